package commands_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Raikerian/go-discord-dj/internal/commands"
	"github.com/Raikerian/go-discord-dj/internal/relay"
	"github.com/Raikerian/go-discord-dj/internal/source"
)

var inv = commands.Invocation{GuildID: 1, ChannelID: 5, UserID: 2}

func execute(t *testing.T, cmd commands.Command) string {
	t.Helper()
	reply, err := cmd.Execute(context.Background(), inv)
	require.NoError(t, err)
	return reply
}

func TestJoinCommand(t *testing.T) {
	tests := []struct {
		name    string
		channel discord.ChannelID
		err     error
		want    string
	}{
		{"success", 10, nil, "Joined <#10>"},
		{"not in voice", 0, relay.ErrUserNotInVoice, "You need to be in a voice channel to use this command."},
		{"already connected", 0, relay.ErrAlreadyConnected, "Already connected to a voice channel."},
		{"dial failure", 0, &relay.JoinError{Err: errors.New("timeout")}, "Failed to join voice channel: timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &MockRelay{}
			r.On("Join", mock.Anything, inv.GuildID, inv.UserID).Return(tt.channel, tt.err)

			assert.Equal(t, tt.want, execute(t, commands.NewJoinCommand(r, zaptest.NewLogger(t))))
			r.AssertExpectations(t)
		})
	}
}

func TestLeaveCommand(t *testing.T) {
	r := &MockRelay{}
	r.On("Leave", mock.Anything).Return(relay.ErrNotConnected).Once()
	r.On("Leave", mock.Anything).Return(nil).Once()
	cmd := commands.NewLeaveCommand(r, zaptest.NewLogger(t))

	assert.Equal(t, "Not connected to a voice channel.", execute(t, cmd))
	assert.Equal(t, "Disconnected from voice channel", execute(t, cmd))
}

func TestPlayCommand(t *testing.T) {
	connErr := &source.SourceConnectionError{Source: "URL Stream: http://x", Err: errors.New("exit status 1")}
	tests := []struct {
		name string
		desc string
		err  error
		want string
	}{
		{"success", "Icecast Stream: http://h:8000/live", nil, "Now streaming from Icecast Stream: http://h:8000/live"},
		{"already playing", "", relay.ErrAlreadyPlaying, "Already playing audio."},
		{"not in voice", "", relay.ErrUserNotInVoice, "You need to be in a voice channel to use this command."},
		{"join failure", "", &relay.JoinError{Err: errors.New("denied")}, "Failed to join voice channel: denied"},
		{"open failure", "", connErr, "Failed to start streaming: " + connErr.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &MockRelay{}
			r.On("Play", mock.Anything, inv.GuildID, inv.UserID).Return(tt.desc, tt.err)

			assert.Equal(t, tt.want, execute(t, commands.NewPlayCommand(r, zaptest.NewLogger(t))))
		})
	}
}

func TestPlayCommandNoSource(t *testing.T) {
	r := &MockRelay{}
	r.On("Play", mock.Anything, inv.GuildID, inv.UserID).Return("", relay.ErrNoSource)

	assert.Contains(t, execute(t, commands.NewPlayCommand(r, zaptest.NewLogger(t))), "No audio source selected")
}

func TestStopCommand(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{relay.ErrNotConnected, "Not connected to a voice channel."},
		{relay.ErrNotPlaying, "Not currently playing audio."},
		{nil, "Stopped streaming"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			r := &MockRelay{}
			r.On("Stop", mock.Anything).Return(tt.err)

			assert.Equal(t, tt.want, execute(t, commands.NewStopCommand(r, zaptest.NewLogger(t))))
		})
	}
}

func TestStopCommandTimeoutIsNotReportedAsStopped(t *testing.T) {
	r := &MockRelay{}
	r.On("Stop", mock.Anything).Return(fmt.Errorf("stop playback p1: %w", context.DeadlineExceeded))

	reply, err := commands.NewStopCommand(r, zaptest.NewLogger(t)).Execute(context.Background(), inv)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, reply)
}

func TestStatusCommand(t *testing.T) {
	src := source.NewURLSource("http://x/y", 128, nil)

	r := &MockRelay{}
	r.On("Source").Return(src)
	r.On("IsPlaying").Return(true)
	assert.Equal(t, "Streaming from URL Stream: http://x/y", execute(t, commands.NewStatusCommand(r)))

	idle := &MockRelay{}
	idle.On("Source").Return(nil)
	idle.On("IsPlaying").Return(false)
	idle.On("IsConnected").Return(false)
	assert.Equal(t, "Not connected. Source: none", execute(t, commands.NewStatusCommand(idle)))
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, "Version: "+commands.AppVersion, execute(t, commands.NewVersionCommand()))
}
