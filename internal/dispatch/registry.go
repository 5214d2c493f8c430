package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattjoyce/slashgw/internal/interaction"
)

var (
	ErrEmptyCommandName = errors.New("command name is empty")
	ErrDuplicateCommand = errors.New("command already registered")
	ErrNilHandler       = errors.New("command handler is nil")
)

// Handler produces the reply for one command invocation.
type Handler interface {
	Handle(ctx context.Context, env *interaction.Envelope) (interaction.Response, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, env *interaction.Envelope) (interaction.Response, error)

func (f HandlerFunc) Handle(ctx context.Context, env *interaction.Envelope) (interaction.Response, error) {
	return f(ctx, env)
}

// Command pairs the published definition of a command with its handler.
type Command struct {
	Definition interaction.CommandDefinition
	Handler    Handler
}

// Registry maps command names to handlers. It is built once and never
// modified afterwards, so concurrent lookups need no locking.
type Registry struct {
	handlers map[string]Handler
	defs     []interaction.CommandDefinition
}

// NewRegistry builds a registry from cmds. Definition order is preserved.
func NewRegistry(cmds ...Command) (*Registry, error) {
	r := &Registry{
		handlers: make(map[string]Handler, len(cmds)),
		defs:     make([]interaction.CommandDefinition, 0, len(cmds)),
	}
	for _, c := range cmds {
		name := c.Definition.Name
		if name == "" {
			return nil, ErrEmptyCommandName
		}
		if c.Handler == nil {
			return nil, fmt.Errorf("%w: %q", ErrNilHandler, name)
		}
		if _, exists := r.handlers[name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCommand, name)
		}
		def := c.Definition
		if def.Options == nil {
			def.Options = []interaction.OptionDefinition{}
		}
		r.handlers[name] = c.Handler
		r.defs = append(r.defs, def)
	}
	return r, nil
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Definitions returns a copy of the command definitions in registration order.
func (r *Registry) Definitions() []interaction.CommandDefinition {
	out := make([]interaction.CommandDefinition, len(r.defs))
	for i, d := range r.defs {
		d.Options = append([]interaction.OptionDefinition{}, d.Options...)
		out[i] = d
	}
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int { return len(r.defs) }
