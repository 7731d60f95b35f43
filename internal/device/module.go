package device

import (
	"go.uber.org/fx"
)

// Module provides the device enumerator and its platform collaborators.
var Module = fx.Module("device",
	fx.Provide(
		fx.Annotate(NewExecRunner, fx.As(new(Runner))),
		fx.Annotate(NewMalgoLoopbackLister, fx.As(new(LoopbackLister))),
		NewEnumerator,
	),
)
