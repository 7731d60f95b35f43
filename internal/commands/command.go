package commands

import (
	"context"

	"github.com/diamondburned/arikawa/v3/discord"
)

// Invocation is one chat command issued by a guild member.
type Invocation struct {
	GuildID   discord.GuildID
	ChannelID discord.ChannelID
	UserID    discord.UserID
	Args      []string
}

// Command is a prefix chat command. Execute returns the text reply; an error
// means the command itself broke, not that the user asked for something invalid.
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, inv Invocation) (string, error)
}
