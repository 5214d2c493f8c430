// Package publish registers the gateway's command definitions with the chat
// platform. It runs once, before the webhook listener binds.
package publish

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/mattjoyce/slashgw/internal/interaction"
	"github.com/mattjoyce/slashgw/internal/storage"
)

// DefaultBaseURL is the platform REST API root.
const DefaultBaseURL = "https://discord.com/api/v8"

// maxErrorBody caps how much of a failed response is kept for diagnostics.
const maxErrorBody = 4096

// Config identifies the application and guild that commands are published to.
type Config struct {
	BaseURL       string
	ApplicationID string
	GuildID       string
	BotToken      string
}

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// History stores successful publishes.
type History interface {
	RecordPublish(ctx context.Context, rec storage.PublishRecord) error
}

// StatusError is returned when the platform answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("command publish rejected: status %d", e.StatusCode)
	}
	return fmt.Sprintf("command publish rejected: status %d: %s", e.StatusCode, e.Body)
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithHTTPClient overrides the HTTP client used for the registration call.
func WithHTTPClient(client Doer) Option {
	return func(p *Publisher) { p.client = client }
}

// WithHistory records each successful publish.
func WithHistory(h History) Option {
	return func(p *Publisher) { p.history = h }
}

// WithLogger sets the publisher's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// Publisher replaces the guild's command set with a fixed list of definitions.
type Publisher struct {
	config  Config
	client  Doer
	history History
	logger  *slog.Logger
}

// New builds a Publisher. Missing credentials are rejected here rather than
// surfacing as a 401 from the platform.
func New(cfg Config, opts ...Option) (*Publisher, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	var missing []string
	if cfg.ApplicationID == "" {
		missing = append(missing, "application id")
	}
	if cfg.GuildID == "" {
		missing = append(missing, "guild id")
	}
	if cfg.BotToken == "" {
		missing = append(missing, "bot token")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("publish config: missing %s", strings.Join(missing, ", "))
	}

	p := &Publisher{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Endpoint is the bulk-overwrite URL for the configured guild.
func (p *Publisher) Endpoint() string {
	return fmt.Sprintf("%s/applications/%s/guilds/%s/commands",
		p.config.BaseURL,
		url.PathEscape(p.config.ApplicationID),
		url.PathEscape(p.config.GuildID),
	)
}

// Publish sends defs, in order, as a single PUT. Any transport failure or
// non-2xx status is returned as an error.
func (p *Publisher) Publish(ctx context.Context, defs []interaction.CommandDefinition) error {
	if defs == nil {
		defs = []interaction.CommandDefinition{}
	}
	body, err := json.Marshal(defs)
	if err != nil {
		return fmt.Errorf("encode command definitions: %w", err)
	}

	endpoint := p.Endpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build publish request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+p.config.BotToken)
	req.Header.Set("Content-Type", "application/json")

	p.logger.Info("publishing commands", "endpoint", endpoint, "count", len(defs))

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("publish commands: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	fingerprint := fingerprintJSON(body)
	p.logger.Info("commands published", "status", resp.StatusCode, "count", len(defs), "fingerprint", fingerprint)

	if p.history != nil {
		rec := storage.PublishRecord{Fingerprint: fingerprint, Count: len(defs), Endpoint: endpoint}
		if err := p.history.RecordPublish(ctx, rec); err != nil {
			p.logger.Warn("failed to record publish", "error", err)
		}
	}
	return nil
}

// Fingerprint is the BLAKE3 hash of the JSON that Publish would send for defs.
func Fingerprint(defs []interaction.CommandDefinition) (string, error) {
	if defs == nil {
		defs = []interaction.CommandDefinition{}
	}
	body, err := json.Marshal(defs)
	if err != nil {
		return "", fmt.Errorf("encode command definitions: %w", err)
	}
	return fingerprintJSON(body), nil
}

func fingerprintJSON(body []byte) string {
	sum := blake3.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// IsRejected reports whether err came from a non-2xx platform response.
func IsRejected(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
