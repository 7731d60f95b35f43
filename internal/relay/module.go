package relay

import (
	"context"

	"github.com/diamondburned/arikawa/v3/state"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-discord-dj/internal/config"
	"github.com/Raikerian/go-discord-dj/internal/metrics"
	"github.com/Raikerian/go-discord-dj/internal/source"
	"github.com/Raikerian/go-discord-dj/pkg/util"
)

// Module provides the Relay and its arikawa voice collaborators.
var Module = fx.Module("relay",
	fx.Provide(
		func(st *state.State) VoiceStateLookup { return st },
		func(f *source.Factory) SourceFactory { return f },
		fx.Annotate(NewArikawaDialer, fx.As(new(VoiceDialer))),
		NewRelay,
	),
)

// SourceFactory builds the configured source at startup.
type SourceFactory interface {
	FromConfig(ctx context.Context, cfg config.AudioSourceConfig) (source.Source, error)
}

// Params holds dependencies for NewRelay.
type Params struct {
	fx.In

	Cfg     *config.Config
	States  VoiceStateLookup
	Dialer  VoiceDialer
	Factory SourceFactory
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	LC      fx.Lifecycle
}

// NewRelay creates the Relay, selects the configured source on start and
// shuts down voice and source on stop.
func NewRelay(p Params) *Relay {
	opts := Options{
		BitrateKbps:  p.Cfg.Audio.BitrateKbps,
		RecordDir:    p.Cfg.Relay.RecordDir,
		ProbeStreams: p.Cfg.Relay.ProbeStreams,
	}
	if p.Cfg.Relay.IdleTimeout > 0 {
		opts.Idle = util.NewDebouncer(p.Cfg.Relay.IdleTimeout)
	}
	r := New(p.States, p.Dialer, opts, p.Metrics, p.Logger)

	p.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if p.Cfg.Source.IsSet() {
				src, err := p.Factory.FromConfig(ctx, p.Cfg.Source)
				if err != nil {
					p.Logger.Error("Failed to create audio source", zap.String("type", p.Cfg.Source.Type), zap.Error(err))
					return err
				}
				if err := r.SetSource(src); err != nil {
					return err
				}
			} else {
				p.Logger.Warn("No audio source configured; play will be refused")
			}
			r.WatchIdle()
			return nil
		},
		OnStop: r.Shutdown,
	})

	return r
}
