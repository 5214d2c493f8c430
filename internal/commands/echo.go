package commands

import (
	"context"

	"github.com/mattjoyce/slashgw/internal/dispatch"
	"github.com/mattjoyce/slashgw/internal/interaction"
)

// Echo repeats its single text option back to the channel.
func Echo() dispatch.Command {
	return dispatch.Command{
		Definition: interaction.CommandDefinition{
			Name:        "echo",
			Description: "Let the bot repeat the given text",
			Options: []interaction.OptionDefinition{
				{
					Type:        interaction.OptionString,
					Name:        "text",
					Description: "The text to repeat",
					Required:    true,
				},
			},
		},
		Handler: dispatch.HandlerFunc(handleEcho),
	}
}

// The platform validates invocations against the published definition, so
// options[0] should always exist. That is enforced remotely, not here.
func handleEcho(ctx context.Context, env *interaction.Envelope) (interaction.Response, error) {
	if env.Data == nil || len(env.Data.Options) == 0 {
		return interaction.Response{}, interaction.NewError(interaction.KindMalformedPayload,
			"echo: missing required option \"text\"", nil)
	}
	return interaction.MessageWithSource(env.Data.Options[0].Text()), nil
}
