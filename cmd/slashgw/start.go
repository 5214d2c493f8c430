package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattjoyce/slashgw/internal/auth"
	"github.com/mattjoyce/slashgw/internal/commands"
	"github.com/mattjoyce/slashgw/internal/config"
	"github.com/mattjoyce/slashgw/internal/dispatch"
	"github.com/mattjoyce/slashgw/internal/interaction"
	"github.com/mattjoyce/slashgw/internal/lock"
	"github.com/mattjoyce/slashgw/internal/log"
	"github.com/mattjoyce/slashgw/internal/publish"
	"github.com/mattjoyce/slashgw/internal/storage"
	"github.com/mattjoyce/slashgw/internal/webhook"
)

type commandPublisher interface {
	Publish(ctx context.Context, defs []interaction.CommandDefinition) error
}

type interactionServer interface {
	Start(ctx context.Context) error
}

// gateway sequences startup: commands are published before the listener
// binds, and a failed publish means the listener never binds.
type gateway struct {
	publisher   commandPublisher // nil skips publishing
	server      interactionServer
	definitions []interaction.CommandDefinition
	logger      *slog.Logger
}

func (g *gateway) run(ctx context.Context) error {
	if g.publisher == nil {
		g.logger.Warn("command publishing skipped")
	} else if err := g.publisher.Publish(ctx, g.definitions); err != nil {
		return fmt.Errorf("publish commands: %w", err)
	}
	return g.server.Start(ctx)
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	skipPublish := fs.Bool("skip-publish", false, "Serve without registering commands first")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("slashgw starting", "version", version, "config", cfg.SourcePath)

	pidLockPath := lock.LockPathFor(cfg.State.Path)
	pidLock, err := lock.Acquire(pidLockPath, cfg.Server.Listen)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", pidLockPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLockPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var audit *storage.AuditLog
	if cfg.State.Audit {
		db, err := storage.OpenSQLite(ctx, cfg.State.Path)
		if err != nil {
			logger.Error("failed to open database", "path", cfg.State.Path, "error", err)
			return 1
		}
		defer db.Close()
		audit = storage.NewAuditLog(db)
		logger.Info("database opened", "path", cfg.State.Path)
	}

	registry, err := newRegistry()
	if err != nil {
		logger.Error("failed to build command registry", "error", err)
		return 1
	}
	for _, def := range registry.Definitions() {
		log.WithCommand(def.Name).Info("command registered", "options", len(def.Options))
	}

	verifier, err := newVerifier(cfg)
	if err != nil {
		logger.Error("invalid public key", "error", err)
		return 1
	}

	router := dispatch.NewRouter(registry, log.WithComponent("dispatch"))
	var recorder webhook.Recorder
	if audit != nil {
		recorder = audit
	}
	server := webhook.New(webhookConfig(cfg), verifier, router, recorder, log.WithComponent("webhook"))

	g := &gateway{
		server:      server,
		definitions: registry.Definitions(),
		logger:      logger,
	}
	if !*skipPublish {
		p, err := newPublisher(cfg, audit)
		if err != nil {
			logger.Error("failed to configure command publisher", "error", err)
			return 1
		}
		g.publisher = p
	}

	err = g.run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("slashgw stopped", "error", err)
		return 1
	}
	logger.Info("slashgw stopped")
	return 0
}

func newRegistry() (*dispatch.Registry, error) {
	return dispatch.NewRegistry(commands.Builtin()...)
}

func newVerifier(cfg *config.Config) (*webhook.Verifier, error) {
	key, err := webhook.ParsePublicKey(cfg.Platform.PublicKey)
	if err != nil {
		return nil, err
	}
	return webhook.NewVerifier(key)
}

// newPublisher builds the command publisher. audit may be nil.
func newPublisher(cfg *config.Config, audit *storage.AuditLog) (*publish.Publisher, error) {
	opts := []publish.Option{publish.WithLogger(log.WithComponent("publish"))}
	if audit != nil {
		opts = append(opts, publish.WithHistory(audit))
	}
	return publish.New(publish.Config{
		BaseURL:       cfg.Platform.APIBaseURL,
		ApplicationID: cfg.Platform.ApplicationID,
		GuildID:       cfg.Platform.GuildID,
		BotToken:      cfg.Platform.BotToken,
	}, opts...)
}

func webhookConfig(cfg *config.Config) webhook.Config {
	tokens := make([]auth.TokenConfig, 0, len(cfg.Admin.Tokens))
	for _, t := range cfg.Admin.Tokens {
		tokens = append(tokens, auth.TokenConfig{Token: t.Token, Scopes: t.Scopes})
	}
	return webhook.Config{
		Listen:         cfg.Server.Listen,
		EntryPath:      cfg.Server.EntryPath,
		MaxBodySize:    cfg.Server.MaxBodyBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
		Admin: webhook.AdminConfig{
			Enabled: cfg.Admin.Enabled,
			Token:   cfg.Admin.Token,
			Tokens:  tokens,
		},
	}
}
