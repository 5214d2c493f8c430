package webhook

import (
	"context"
	"time"

	"github.com/mattjoyce/slashgw/internal/auth"
	"github.com/mattjoyce/slashgw/internal/interaction"
	"github.com/mattjoyce/slashgw/internal/storage"
)

// Dispatcher answers verified, parsed interactions.
type Dispatcher interface {
	Dispatch(ctx context.Context, env *interaction.Envelope) (interaction.Response, error)
	Definitions() []interaction.CommandDefinition
}

// Recorder keeps an audit trail of verified interactions.
type Recorder interface {
	Record(ctx context.Context, rec storage.Record) error
	Recent(ctx context.Context, limit int) ([]storage.Record, error)
}

// Config holds webhook server configuration.
type Config struct {
	Listen string

	// EntryPath is the interactions endpoint URL path (default: "/entry")
	EntryPath string

	// MaxBodySize is the maximum allowed request body size in bytes (default: 1MB)
	MaxBodySize int64

	// RequestTimeout bounds the time a command handler may take (default: 3s)
	RequestTimeout time.Duration

	Admin AdminConfig
}

// AdminConfig controls the bearer-protected /admin routes.
type AdminConfig struct {
	Enabled bool
	// Token authenticates with every scope.
	Token  string
	Tokens []auth.TokenConfig
}

// ErrorResponse is the JSON response for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	Commands      int    `json:"commands"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// CommandsResponse is returned by GET /admin/commands.
type CommandsResponse struct {
	Commands []interaction.CommandDefinition `json:"commands"`
}

// InteractionsResponse is returned by GET /admin/interactions.
type InteractionsResponse struct {
	Interactions []storage.Record `json:"interactions"`
}

// Default values
const (
	DefaultEntryPath         = "/entry"
	DefaultMaxBodySize       = 1048576 // 1 MB
	DefaultRequestTimeout    = 3 * time.Second
	DefaultInteractionsLimit = 50
	MaxInteractionsLimit     = 500
)
