// Package app provides the main application structure and lifecycle management.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/go-discord-dj/internal/bot"
	"github.com/Raikerian/go-discord-dj/internal/relay"
)

// Application represents the main application with its lifecycle.
type Application struct {
	app *fx.App
}

// New creates a new Application with the provided modules and options.
func New(modules ...fx.Option) *Application {
	options := append(modules, fx.Invoke(registerLifecycleHooks))

	return &Application{
		app: fx.New(options...),
	}
}

// Err returns any error from building the dependency graph.
func (a *Application) Err() error {
	return a.app.Err()
}

// Start runs every OnStart hook.
func (a *Application) Start(ctx context.Context) error {
	return a.app.Start(ctx)
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	return a.app.Stop(ctx)
}

// registerLifecycleHooks starts the command dispatcher last so commands only
// arrive once the relay and the Discord session are up.
func registerLifecycleHooks(lc fx.Lifecycle, b *bot.Bot, r *relay.Relay, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting application")

			if err := b.Start(ctx); err != nil {
				logger.Error("Failed to start bot", zap.Error(err))

				return err
			}

			src := "none"
			if s := r.Source(); s != nil {
				src = s.Description()
			}
			logger.Info("Application started successfully", zap.String("source", src))

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping application")

			if err := b.Stop(ctx); err != nil {
				logger.Error("Failed to stop bot", zap.Error(err))

				return err
			}

			logger.Info("Application stopped successfully")

			return nil
		},
	})
}
