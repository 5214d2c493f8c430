package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mattjoyce/slashgw/internal/interaction"
)

// Router answers a parsed envelope: handshakes directly, command
// invocations through the registry.
type Router struct {
	registry *Registry
	logger   *slog.Logger
}

// NewRouter creates a router over a finished registry.
func NewRouter(registry *Registry, logger *slog.Logger) *Router {
	return &Router{registry: registry, logger: logger}
}

// Dispatch returns exactly one response or a classified error for env.
func (r *Router) Dispatch(ctx context.Context, env *interaction.Envelope) (interaction.Response, error) {
	switch env.Type {
	case interaction.TypeHandshake:
		return interaction.Acknowledge(), nil

	case interaction.TypeCommand:
		name := env.CommandName()
		if name == "" {
			return interaction.Response{}, interaction.NewError(interaction.KindMalformedPayload,
				"command interaction missing data.name", nil)
		}

		h, ok := r.registry.Lookup(name)
		if !ok {
			r.logger.Warn("unknown command", "command", name)
			return interaction.Response{}, interaction.NewError(interaction.KindUnknownCommand,
				fmt.Sprintf("command %q is not registered", name), nil)
		}

		resp, err := h.Handle(ctx, env)
		if err != nil {
			return interaction.Response{}, fmt.Errorf("command %q: %w", name, err)
		}
		r.logger.Debug("command handled", "command", name, "response_type", int(resp.Type))
		return resp, nil

	default:
		return interaction.Response{}, interaction.NewError(interaction.KindUnsupportedInteraction,
			fmt.Sprintf("interaction type %d is not supported", int(env.Type)), nil)
	}
}

// Definitions returns the definitions of every routable command.
func (r *Router) Definitions() []interaction.CommandDefinition {
	return r.registry.Definitions()
}
