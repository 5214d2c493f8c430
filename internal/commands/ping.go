package commands

import (
	"context"

	"github.com/mattjoyce/slashgw/internal/dispatch"
	"github.com/mattjoyce/slashgw/internal/interaction"
)

// PongContent is the fixed reply to /ping.
const PongContent = "Pong!"

// Ping replies privately to the invoking user without showing the invocation.
func Ping() dispatch.Command {
	return dispatch.Command{
		Definition: interaction.CommandDefinition{
			Name:        "ping",
			Description: "Ping? Pong!",
			Options:     []interaction.OptionDefinition{},
		},
		Handler: dispatch.HandlerFunc(handlePing),
	}
}

func handlePing(ctx context.Context, env *interaction.Envelope) (interaction.Response, error) {
	return interaction.Message(PongContent).Ephemeral(), nil
}
