// Package commands provides the prefix chat commands and their Fx module.
package commands

import (
	"go.uber.org/fx"

	"github.com/Raikerian/go-discord-dj/internal/relay"
)

func asCommand(f any) any {
	return fx.Annotate(f, fx.As(new(Command)), fx.ResultTags(`group:"commands"`))
}

// Module provides the command manager and every chat command.
var Module = fx.Module("commands",
	fx.Provide(
		func(r *relay.Relay) Relay { return r },
		NewCommandManager,
	),
	fx.Provide(
		asCommand(NewJoinCommand),
		asCommand(NewLeaveCommand),
		asCommand(NewPlayCommand),
		asCommand(NewStopCommand),
		asCommand(NewStatusCommand),
		asCommand(NewVersionCommand),
	),
)
