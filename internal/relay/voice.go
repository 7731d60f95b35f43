package relay

import (
	"context"
	"fmt"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/diamondburned/arikawa/v3/voice"
	"github.com/diamondburned/arikawa/v3/voice/voicegateway"
	"go.uber.org/zap"
)

// VoiceStateLookup finds the voice channel a member is in.
type VoiceStateLookup interface {
	VoiceState(guildID discord.GuildID, userID discord.UserID) (*discord.VoiceState, error)
}

// VoiceConn is a live voice connection that accepts Opus packets.
type VoiceConn interface {
	ChannelID() discord.ChannelID
	// Write sends one Opus packet. Implementations pace writes to real time.
	Write(opus []byte) (int, error)
	Leave(ctx context.Context) error
}

// VoiceDialer opens voice connections.
type VoiceDialer interface {
	Join(ctx context.Context, channelID discord.ChannelID) (VoiceConn, error)
}

// ArikawaDialer joins voice channels through an arikawa state.
type ArikawaDialer struct {
	state  *state.State
	logger *zap.Logger
}

// NewArikawaDialer creates a dialer on st.
func NewArikawaDialer(st *state.State, logger *zap.Logger) *ArikawaDialer {
	return &ArikawaDialer{state: st, logger: logger.Named("voice")}
}

// Join implements VoiceDialer.
func (d *ArikawaDialer) Join(ctx context.Context, channelID discord.ChannelID) (VoiceConn, error) {
	sess, err := voice.NewSession(d.state)
	if err != nil {
		return nil, fmt.Errorf("failed to create voice session: %w", err)
	}

	if err := sess.JoinChannel(ctx, channelID, false, true); err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}

	if err := sess.Speaking(ctx, voicegateway.Microphone); err != nil {
		_ = sess.Leave(ctx)
		return nil, fmt.Errorf("failed to set speaking mode: %w", err)
	}

	d.logger.Info("Voice session established", zap.Stringer("channel_id", channelID))
	return &arikawaConn{sess: sess, channelID: channelID, logger: d.logger}, nil
}

type arikawaConn struct {
	sess      *voice.Session
	channelID discord.ChannelID
	logger    *zap.Logger
}

func (c *arikawaConn) ChannelID() discord.ChannelID {
	return c.channelID
}

func (c *arikawaConn) Write(opus []byte) (int, error) {
	return c.sess.Write(opus)
}

func (c *arikawaConn) Leave(ctx context.Context) error {
	if err := c.sess.Leave(ctx); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	c.logger.Info("Left voice channel", zap.Stringer("channel_id", c.channelID))
	return nil
}
