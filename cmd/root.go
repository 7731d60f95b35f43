// Package cmd implements the command line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-discord-dj/internal/app"
	"github.com/Raikerian/go-discord-dj/internal/bot"
	"github.com/Raikerian/go-discord-dj/internal/commands"
	"github.com/Raikerian/go-discord-dj/internal/config"
	"github.com/Raikerian/go-discord-dj/internal/device"
	"github.com/Raikerian/go-discord-dj/internal/discord"
	"github.com/Raikerian/go-discord-dj/internal/infrastructure"
	"github.com/Raikerian/go-discord-dj/internal/metrics"
	"github.com/Raikerian/go-discord-dj/internal/relay"
	"github.com/Raikerian/go-discord-dj/internal/source"
)

const shutdownTimeout = 30 * time.Second

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// RootCommand creates and returns the root command.
func RootCommand() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:          "go-discord-dj",
		Short:        "Relay a live audio source into a Discord voice channel",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), configFile, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (environment variables take precedence)")

	rootCmd.AddCommand(
		devicesCommand(&configFile),
		versionCommand(),
	)
	return rootCmd
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), commands.AppVersion)
		},
	}
}

func runBot(ctx context.Context, configFile string, in io.Reader, out io.Writer) error {
	v, err := config.New(configFile)
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		if config.IsConfigurationError(err) {
			fmt.Fprintf(os.Stderr, "%v\nSet it in the environment or in the config file.\n", err)
		}
		return err
	}

	logger, err := infrastructure.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.Source.IsSet() {
		if err := chooseSource(ctx, v, cfg, in, out, logger); err != nil {
			if errors.Is(err, ErrSelectionAborted) {
				logger.Info("No source selected, exiting")
				return nil
			}
			return err
		}
	}

	application := app.New(
		fx.Supply(v),

		// Core modules
		config.Module,
		infrastructure.LoggerModule,
		metrics.Module,

		// External services
		discord.Module,

		// Audio
		device.Module,
		source.Module,
		relay.Module,

		// Chat
		commands.Module,
		bot.Module,

		fx.WithLogger(infrastructure.NewFxLoggerAdapter),
	)
	if err := application.Err(); err != nil {
		logger.Error("Failed to build application", zap.Error(err))
		return err
	}

	if err := application.Start(ctx); err != nil {
		logger.Error("Failed to start application", zap.Error(err))
		return err
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := application.Stop(stopCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return err
	}
	logger.Info("Application has shut down gracefully")
	return nil
}

// chooseSource runs the interactive menu and stores the choice in v so the
// application's config picks it up.
func chooseSource(ctx context.Context, v *viper.Viper, cfg *config.Config, in io.Reader, out io.Writer, logger *zap.Logger) error {
	enumerator := device.NewEnumeratorFor(runtime.GOOS, cfg.Audio.FFmpegPath,
		device.NewExecRunner(), device.NewMalgoLoopbackLister(), logger)

	devices, err := enumerator.EnumerateDevices(ctx)
	if err != nil {
		logger.Warn("Device enumeration failed, only stream URLs are available", zap.Error(err))
		devices = nil
	}

	sel, err := SelectSource(ctx, in, out, devices)
	if err != nil {
		return err
	}

	v.Set("source.type", sel.Type)
	v.Set("source.device_index", sel.DeviceIndex)
	v.Set("source.url", sel.URL)
	logger.Info("Source selected",
		zap.String("type", sel.Type),
		zap.Int("device_index", sel.DeviceIndex),
		zap.String("url", sel.URL))
	return nil
}
