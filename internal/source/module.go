package source

import (
	"go.uber.org/fx"

	"github.com/Raikerian/go-discord-dj/internal/device"
)

// Module provides the source factory and the ffmpeg transcoder.
var Module = fx.Module("source",
	fx.Provide(
		fx.Annotate(NewFFmpeg, fx.As(new(Transcoder))),
		func(e *device.Enumerator) DeviceResolver { return e },
		NewFactory,
	),
)
