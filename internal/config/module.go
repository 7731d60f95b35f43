// Package config provides configuration infrastructure and Fx modules.
package config

import (
	"go.uber.org/fx"
)

// Module provides configuration dependencies. It expects a *viper.Viper to be supplied.
var Module = fx.Module("config",
	fx.Provide(
		Load,
		func(cfg *Config) AudioSourceConfig { return cfg.Source },
	),
)
