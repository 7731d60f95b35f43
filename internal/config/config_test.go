package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raikerian/go-discord-dj/internal/config"
)

func load(t *testing.T) (*config.Config, error) {
	t.Helper()
	v, err := config.New("")
	require.NoError(t, err)
	return config.Load(v)
}

func TestLoad(t *testing.T) {
	t.Run("MissingToken", func(t *testing.T) {
		t.Setenv("DISCORD_BOT_TOKEN", "")

		_, err := load(t)
		require.Error(t, err)
		assert.True(t, config.IsConfigurationError(err))
		assert.Contains(t, err.Error(), "DISCORD_BOT_TOKEN")
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("DISCORD_BOT_TOKEN", "token")

		cfg, err := load(t)
		require.NoError(t, err)
		assert.Equal(t, "token", cfg.Discord.BotToken)
		assert.Equal(t, "!", cfg.Discord.CommandPrefix)
		assert.Empty(t, cfg.Discord.GuildID)
		assert.Nil(t, cfg.Icecast)
		assert.Equal(t, 128, cfg.Audio.BitrateKbps)
		assert.Equal(t, 48000, cfg.Audio.SampleRateHz)
		assert.Equal(t, "ffmpeg", cfg.Audio.FFmpegPath)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.False(t, cfg.Source.IsSet())
	})

	t.Run("IcecastBlockOnlyWithURL", func(t *testing.T) {
		t.Setenv("DISCORD_BOT_TOKEN", "token")
		t.Setenv("ICECAST_URL", "http://radio:8000/live")
		t.Setenv("ICECAST_PORT", "9000")

		cfg, err := load(t)
		require.NoError(t, err)
		require.NotNil(t, cfg.Icecast)
		assert.Equal(t, "http://radio:8000/live", cfg.Icecast.URL)
		assert.Equal(t, "127.0.0.1", cfg.Icecast.Host)
		assert.Equal(t, 9000, cfg.Icecast.Port)
		assert.Equal(t, "/live", cfg.Icecast.Mount)

		assert.Equal(t, "icecast", cfg.Source.Type)
		assert.Equal(t, "http://radio:8000/live", cfg.Source.URL)
	})

	t.Run("InvalidBitrate", func(t *testing.T) {
		t.Setenv("DISCORD_BOT_TOKEN", "token")
		t.Setenv("AUDIO_BITRATE", "loud")

		_, err := load(t)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AUDIO_BITRATE")
	})

	t.Run("ExplicitSource", func(t *testing.T) {
		t.Setenv("DISCORD_BOT_TOKEN", "token")
		t.Setenv("SOURCE_TYPE", "LOCAL")
		t.Setenv("SOURCE_DEVICE_INDEX", "3")
		t.Setenv("AUDIO_BITRATE", "96")
		t.Setenv("RELAY_IDLE_TIMEOUT", "5m")

		cfg, err := load(t)
		require.NoError(t, err)
		assert.Equal(t, "local", cfg.Source.Type)
		assert.Equal(t, 3, cfg.Source.DeviceIndex)
		assert.Equal(t, 96, cfg.Source.BitrateKbps)
		assert.Equal(t, 5*time.Minute, cfg.Relay.IdleTimeout)
	})
}

func TestNewWithFile(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
discord:
  bot_token: file-token
  command_prefix: "?"
audio:
  bitrate: 64
log_level: DEBUG
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v, err := config.New(path)
	require.NoError(t, err)

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, "file-token", cfg.Discord.BotToken)
	assert.Equal(t, "?", cfg.Discord.CommandPrefix)
	assert.Equal(t, 64, cfg.Audio.BitrateKbps)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestNewMissingFile(t *testing.T) {
	_, err := config.New(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvVar(t *testing.T) {
	assert.Equal(t, "DISCORD_BOT_TOKEN", config.EnvVar("discord.bot_token"))
	assert.Equal(t, "SOME_KEY", config.EnvVar("some.key"))
}
