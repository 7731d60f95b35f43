package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/diamondburned/arikawa/v3/discord"
	"go.uber.org/zap"

	"github.com/Raikerian/go-discord-dj/internal/relay"
	"github.com/Raikerian/go-discord-dj/internal/source"
)

// Replies shown to users.
const (
	msgNotInVoice       = "You need to be in a voice channel to use this command."
	msgAlreadyConnected = "Already connected to a voice channel."
	msgNotConnected     = "Not connected to a voice channel."
	msgDisconnected     = "Disconnected from voice channel"
	msgAlreadyPlaying   = "Already playing audio."
	msgNotPlaying       = "Not currently playing audio."
	msgStopped          = "Stopped streaming"
	msgNoSource         = "No audio source selected. Restart the bot and pick a device or URL."
)

// Relay is the voice relay the commands drive.
type Relay interface {
	Join(ctx context.Context, guildID discord.GuildID, userID discord.UserID) (discord.ChannelID, error)
	Leave(ctx context.Context) error
	Play(ctx context.Context, guildID discord.GuildID, userID discord.UserID) (string, error)
	Stop(ctx context.Context) error
	IsConnected() bool
	IsPlaying() bool
	Source() source.Source
}

// JoinCommand joins the caller's voice channel.
type JoinCommand struct {
	relay  Relay
	logger *zap.Logger
}

// NewJoinCommand creates the join command.
func NewJoinCommand(r Relay, logger *zap.Logger) Command {
	return &JoinCommand{relay: r, logger: logger}
}

func (c *JoinCommand) Name() string        { return "join" }
func (c *JoinCommand) Description() string { return "Join your voice channel." }

func (c *JoinCommand) Execute(ctx context.Context, inv Invocation) (string, error) {
	ch, err := c.relay.Join(ctx, inv.GuildID, inv.UserID)
	if err != nil {
		return joinFailure(err), nil
	}
	return "Joined " + ch.Mention(), nil
}

// LeaveCommand disconnects from voice.
type LeaveCommand struct {
	relay  Relay
	logger *zap.Logger
}

// NewLeaveCommand creates the leave command.
func NewLeaveCommand(r Relay, logger *zap.Logger) Command {
	return &LeaveCommand{relay: r, logger: logger}
}

func (c *LeaveCommand) Name() string        { return "leave" }
func (c *LeaveCommand) Description() string { return "Leave the voice channel." }

func (c *LeaveCommand) Execute(ctx context.Context, _ Invocation) (string, error) {
	err := c.relay.Leave(ctx)
	switch {
	case errors.Is(err, relay.ErrNotConnected):
		return msgNotConnected, nil
	case err != nil:
		// The connection is already dropped on our side.
		c.logger.Warn("Voice leave reported an error", zap.Error(err))
	}
	return msgDisconnected, nil
}

// PlayCommand starts streaming the selected source.
type PlayCommand struct {
	relay  Relay
	logger *zap.Logger
}

// NewPlayCommand creates the play command.
func NewPlayCommand(r Relay, logger *zap.Logger) Command {
	return &PlayCommand{relay: r, logger: logger}
}

func (c *PlayCommand) Name() string        { return "play" }
func (c *PlayCommand) Description() string { return "Start streaming the selected source." }

func (c *PlayCommand) Execute(ctx context.Context, inv Invocation) (string, error) {
	desc, err := c.relay.Play(ctx, inv.GuildID, inv.UserID)
	var joinErr *relay.JoinError
	switch {
	case err == nil:
		return "Now streaming from " + desc, nil
	case errors.Is(err, relay.ErrAlreadyPlaying):
		return msgAlreadyPlaying, nil
	case errors.Is(err, relay.ErrNoSource):
		return msgNoSource, nil
	case errors.Is(err, relay.ErrUserNotInVoice), errors.As(err, &joinErr):
		return joinFailure(err), nil
	default:
		c.logger.Error("Failed to start streaming", zap.Error(err))
		return fmt.Sprintf("Failed to start streaming: %v", err), nil
	}
}

// StopCommand stops the running playback.
type StopCommand struct {
	relay  Relay
	logger *zap.Logger
}

// NewStopCommand creates the stop command.
func NewStopCommand(r Relay, logger *zap.Logger) Command {
	return &StopCommand{relay: r, logger: logger}
}

func (c *StopCommand) Name() string        { return "stop" }
func (c *StopCommand) Description() string { return "Stop streaming." }

func (c *StopCommand) Execute(ctx context.Context, _ Invocation) (string, error) {
	err := c.relay.Stop(ctx)
	switch {
	case errors.Is(err, relay.ErrNotConnected):
		return msgNotConnected, nil
	case errors.Is(err, relay.ErrNotPlaying):
		return msgNotPlaying, nil
	case err != nil:
		return "", err
	}
	return msgStopped, nil
}

// StatusCommand reports the connection and the selected source.
type StatusCommand struct {
	relay Relay
}

// NewStatusCommand creates the status command.
func NewStatusCommand(r Relay) Command {
	return &StatusCommand{relay: r}
}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Show what the bot is doing." }

func (c *StatusCommand) Execute(context.Context, Invocation) (string, error) {
	src := "none"
	if s := c.relay.Source(); s != nil {
		src = s.Description()
	}
	switch {
	case c.relay.IsPlaying():
		return "Streaming from " + src, nil
	case c.relay.IsConnected():
		return "Connected, idle. Source: " + src, nil
	default:
		return "Not connected. Source: " + src, nil
	}
}

func joinFailure(err error) string {
	var joinErr *relay.JoinError
	switch {
	case errors.Is(err, relay.ErrUserNotInVoice):
		return msgNotInVoice
	case errors.Is(err, relay.ErrAlreadyConnected):
		return msgAlreadyConnected
	case errors.As(err, &joinErr):
		return fmt.Sprintf("Failed to join voice channel: %v", joinErr.Err)
	default:
		return fmt.Sprintf("Failed to join voice channel: %v", err)
	}
}
