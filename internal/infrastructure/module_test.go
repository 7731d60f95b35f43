package infrastructure_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/Raikerian/go-discord-dj/internal/config"
	"github.com/Raikerian/go-discord-dj/internal/infrastructure"
)

func TestNewLogger(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"unknown": zapcore.InfoLevel,
	}

	for level, want := range tests {
		t.Run(level, func(t *testing.T) {
			logger, err := infrastructure.NewLogger(level)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(want))
			if want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(want-1))
			}
		})
	}
}

func TestLoggerModule(t *testing.T) {
	app := fxtest.New(t,
		fx.Supply(&config.Config{LogLevel: "error"}),
		infrastructure.LoggerModule,
		fx.Invoke(func(logger *zap.Logger) {
			assert.NotNil(t, logger)
		}),
	)

	app.RequireStart()
	app.RequireStop()
}

func TestFxLoggerAdapter(t *testing.T) {
	logger := zaptest.NewLogger(t)
	adapter := infrastructure.NewFxLoggerAdapter(logger)
	testErr := errors.New("test error")

	events := []fxevent.Event{
		&fxevent.OnStartExecuting{FunctionName: "f", CallerName: "c"},
		&fxevent.OnStartExecuted{FunctionName: "f", CallerName: "c", Runtime: time.Millisecond},
		&fxevent.OnStartExecuted{FunctionName: "f", CallerName: "c", Err: testErr},
		&fxevent.OnStopExecuting{FunctionName: "f", CallerName: "c"},
		&fxevent.OnStopExecuted{FunctionName: "f", CallerName: "c", Err: testErr},
		&fxevent.Supplied{TypeName: "*config.Config"},
		&fxevent.Provided{OutputTypeNames: []string{"*zap.Logger"}},
		&fxevent.Invoking{FunctionName: "f"},
		&fxevent.Invoked{FunctionName: "f", Err: testErr},
		&fxevent.Stopping{Signal: os.Interrupt},
		&fxevent.Stopped{},
		&fxevent.RollingBack{StartErr: testErr},
		&fxevent.RolledBack{},
		&fxevent.Started{},
		&fxevent.Started{Err: testErr},
		&fxevent.LoggerInitialized{ConstructorName: "ctor"},
	}

	for _, event := range events {
		assert.NotPanics(t, func() { adapter.LogEvent(event) })
	}
}

func TestFxIntegration(t *testing.T) {
	logger := zaptest.NewLogger(t)

	app := fxtest.New(t,
		fx.WithLogger(infrastructure.NewFxLoggerAdapter),
		fx.Supply(logger),
		fx.Invoke(func(*zap.Logger) {}),
	)

	app.RequireStart()
	app.RequireStop()
}
