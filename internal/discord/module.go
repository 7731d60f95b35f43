// Package discord opens the bot's gateway session and keeps the cached state
// the relay reads voice channels from.
package discord

import (
	"context"

	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/session"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/diamondburned/arikawa/v3/state/store/defaultstore"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-discord-dj/internal/config"
)

var Module = fx.Module("discord",
	fx.Provide(
		NewSession,
		NewState,
	),
)

// Intents cover prefix commands (guild messages and their content) and the
// voice states used to find which channel a caller sits in.
const Intents = gateway.IntentGuilds |
	gateway.IntentGuildMessages |
	gateway.IntentMessageContent |
	gateway.IntentGuildVoiceStates

type SessionParams struct {
	fx.In
	Cfg    *config.Config
	LC     fx.Lifecycle
	Logger *zap.Logger
}

// NewSession builds the bot session. It connects on start and disconnects on
// stop, after the relay has left voice.
func NewSession(p SessionParams) (*session.Session, error) {
	token := p.Cfg.Discord.BotToken
	if token == "" {
		return nil, &config.ConfigurationError{Key: config.EnvVar("discord.bot_token"), Reason: "is required"}
	}

	s := session.New("Bot " + token)
	s.AddIntents(Intents)

	p.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("Connecting to Discord gateway", zap.Uint64("intents", uint64(Intents)))
			return s.Open(ctx)
		},
		OnStop: func(context.Context) error {
			p.Logger.Info("Disconnecting from Discord gateway")
			return s.Close()
		},
	})
	return s, nil
}

type StateParams struct {
	fx.In
	Session *session.Session
	Logger  *zap.Logger
}

// NewState wraps the session in a cached state. It is created before the
// session opens so the initial guild and voice state events land in the cache.
func NewState(p StateParams) *state.State {
	st := state.NewFromSession(p.Session, defaultstore.New())

	st.AddHandler(func(e *gateway.ReadyEvent) {
		p.Logger.Info("Relay bot ready",
			zap.String("user", e.User.Username),
			zap.Stringer("user_id", e.User.ID),
			zap.Int("guilds", len(e.Guilds)))
	})
	return st
}
