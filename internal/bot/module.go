package bot

import (
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/state"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-discord-dj/internal/commands"
	"github.com/Raikerian/go-discord-dj/internal/config"
	"github.com/Raikerian/go-discord-dj/internal/metrics"
)

// Module provides the Bot wired to the Discord state.
var Module = fx.Module("bot",
	fx.Provide(NewBot),
)

// Params holds dependencies for NewBot.
type Params struct {
	fx.In

	Cfg      *config.Config
	State    *state.State
	Commands *commands.CommandManager
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// NewBot creates the Bot and subscribes it to message events.
func NewBot(p Params) (*Bot, error) {
	var guildID discord.GuildID
	if p.Cfg.Discord.GuildID != "" {
		sf, err := discord.ParseSnowflake(p.Cfg.Discord.GuildID)
		if err != nil {
			p.Logger.Warn("Ignoring invalid guild ID", zap.String("guild_id", p.Cfg.Discord.GuildID), zap.Error(err))
		} else {
			guildID = discord.GuildID(sf)
		}
	}

	b, err := New(p.State, p.Commands, p.Cfg.Discord.CommandPrefix, guildID, p.Metrics, p.Logger)
	if err != nil {
		return nil, err
	}
	p.State.AddHandler(b.HandleMessage)
	return b, nil
}
