// Package commands holds the slash commands served by the gateway.
package commands

import "github.com/mattjoyce/slashgw/internal/dispatch"

// Builtin returns every built-in command in publication order.
func Builtin() []dispatch.Command {
	return []dispatch.Command{
		Ping(),
		Echo(),
	}
}
