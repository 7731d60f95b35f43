package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DiscordConfig stores Discord specific configuration.
type DiscordConfig struct {
	BotToken      string `mapstructure:"bot_token" yaml:"bot_token"`
	GuildID       string `mapstructure:"guild_id" yaml:"guild_id,omitempty"`
	CommandPrefix string `mapstructure:"command_prefix" yaml:"command_prefix"`
}

// IcecastConfig describes an upstream Icecast mount. It only exists when a URL is configured.
type IcecastConfig struct {
	URL   string `mapstructure:"url" yaml:"url"`
	Host  string `mapstructure:"host" yaml:"host"`
	Port  int    `mapstructure:"port" yaml:"port"`
	Mount string `mapstructure:"mount" yaml:"mount"`
}

// AudioConfig holds encoder and transcoder settings.
type AudioConfig struct {
	BitrateKbps  int    `mapstructure:"bitrate" yaml:"bitrate"`
	SampleRateHz int    `mapstructure:"sample_rate" yaml:"sample_rate"`
	FFmpegPath   string `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path"`
}

// AudioSourceConfig is the user-selected streaming source.
// DeviceIndex is only meaningful for "local", URL only for "icecast" and "url".
type AudioSourceConfig struct {
	Type         string `mapstructure:"type" yaml:"type"`
	DeviceIndex  int    `mapstructure:"device_index" yaml:"device_index,omitempty"`
	URL          string `mapstructure:"url" yaml:"url,omitempty"`
	BitrateKbps  int    `mapstructure:"bitrate" yaml:"bitrate"`
	SampleRateHz int    `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// IsSet reports whether a source has been selected.
func (c AudioSourceConfig) IsSet() bool {
	return c.Type != ""
}

// RelayConfig holds optional relay behavior.
type RelayConfig struct {
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	RecordDir    string        `mapstructure:"record_dir" yaml:"record_dir,omitempty"`
	ProbeStreams bool          `mapstructure:"probe_streams" yaml:"probe_streams"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr,omitempty"`
}

// Config stores the application configuration.
type Config struct {
	Discord  DiscordConfig     `yaml:"discord"`
	Icecast  *IcecastConfig    `yaml:"icecast,omitempty"`
	Audio    AudioConfig       `yaml:"audio"`
	Source   AudioSourceConfig `yaml:"source"`
	Relay    RelayConfig       `yaml:"relay"`
	Metrics  MetricsConfig     `yaml:"metrics"`
	LogLevel string            `yaml:"log_level"`
}

// ConfigurationError reports a missing or invalid configuration key.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Key, e.Reason)
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// envBindings maps config keys to the environment variables that feed them.
var envBindings = map[string]string{
	"discord.bot_token":      "DISCORD_BOT_TOKEN",
	"discord.guild_id":       "DISCORD_GUILD_ID",
	"discord.command_prefix": "COMMAND_PREFIX",
	"icecast.url":            "ICECAST_URL",
	"icecast.host":           "ICECAST_HOST",
	"icecast.port":           "ICECAST_PORT",
	"icecast.mount":          "ICECAST_MOUNT",
	"audio.bitrate":          "AUDIO_BITRATE",
	"audio.sample_rate":      "AUDIO_SAMPLE_RATE",
	"audio.ffmpeg_path":      "FFMPEG_PATH",
	"source.type":            "SOURCE_TYPE",
	"source.device_index":    "SOURCE_DEVICE_INDEX",
	"source.url":             "SOURCE_URL",
	"relay.idle_timeout":     "RELAY_IDLE_TIMEOUT",
	"relay.record_dir":       "DEBUG_RECORD_DIR",
	"relay.probe_streams":    "PROBE_STREAMS",
	"metrics.addr":           "METRICS_ADDR",
	"log_level":              "LOG_LEVEL",
}

// EnvVar returns the environment variable bound to a config key.
func EnvVar(key string) string {
	if env, ok := envBindings[key]; ok {
		return env
	}
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("discord.command_prefix", "!")
	v.SetDefault("icecast.host", "127.0.0.1")
	v.SetDefault("icecast.port", 8000)
	v.SetDefault("icecast.mount", "/live")
	v.SetDefault("audio.bitrate", 128)
	v.SetDefault("audio.sample_rate", 48000)
	v.SetDefault("audio.ffmpeg_path", "ffmpeg")
	v.SetDefault("relay.idle_timeout", time.Duration(0))
	v.SetDefault("relay.probe_streams", false)
	v.SetDefault("log_level", "info")

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
}

// New returns a viper instance with defaults and env bindings. If configFile
// is not empty it is read as YAML.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	return v, nil
}

// Load builds and validates a Config from v. Required keys that are missing
// produce a *ConfigurationError naming the environment variable.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Discord: DiscordConfig{
			BotToken:      strings.TrimSpace(v.GetString("discord.bot_token")),
			GuildID:       v.GetString("discord.guild_id"),
			CommandPrefix: v.GetString("discord.command_prefix"),
		},
		Audio: AudioConfig{
			BitrateKbps:  v.GetInt("audio.bitrate"),
			SampleRateHz: v.GetInt("audio.sample_rate"),
			FFmpegPath:   v.GetString("audio.ffmpeg_path"),
		},
		Relay: RelayConfig{
			IdleTimeout:  v.GetDuration("relay.idle_timeout"),
			RecordDir:    v.GetString("relay.record_dir"),
			ProbeStreams: v.GetBool("relay.probe_streams"),
		},
		Metrics:  MetricsConfig{Addr: v.GetString("metrics.addr")},
		LogLevel: strings.ToLower(v.GetString("log_level")),
	}

	if cfg.Discord.BotToken == "" {
		return nil, &ConfigurationError{Key: EnvVar("discord.bot_token"), Reason: "is required"}
	}
	if cfg.Discord.CommandPrefix == "" {
		cfg.Discord.CommandPrefix = "!"
	}
	if cfg.Audio.BitrateKbps <= 0 {
		return nil, &ConfigurationError{Key: EnvVar("audio.bitrate"), Reason: "must be a positive integer"}
	}
	if cfg.Audio.SampleRateHz <= 0 {
		return nil, &ConfigurationError{Key: EnvVar("audio.sample_rate"), Reason: "must be a positive integer"}
	}

	if url := v.GetString("icecast.url"); url != "" {
		cfg.Icecast = &IcecastConfig{
			URL:   url,
			Host:  v.GetString("icecast.host"),
			Port:  v.GetInt("icecast.port"),
			Mount: v.GetString("icecast.mount"),
		}
		if cfg.Icecast.Port <= 0 {
			return nil, &ConfigurationError{Key: EnvVar("icecast.port"), Reason: "must be a positive integer"}
		}
	}

	cfg.Source = AudioSourceConfig{
		Type:         strings.ToLower(strings.TrimSpace(v.GetString("source.type"))),
		DeviceIndex:  v.GetInt("source.device_index"),
		URL:          v.GetString("source.url"),
		BitrateKbps:  cfg.Audio.BitrateKbps,
		SampleRateHz: cfg.Audio.SampleRateHz,
	}
	// A configured Icecast mount is the default source.
	if !cfg.Source.IsSet() && cfg.Icecast != nil {
		cfg.Source.Type = "icecast"
		cfg.Source.URL = cfg.Icecast.URL
	}

	return cfg, nil
}
