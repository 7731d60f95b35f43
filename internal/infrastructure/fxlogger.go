package infrastructure

import (
	"fmt"

	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// FxLogger routes fx container events to zap.
type FxLogger struct {
	logger *zap.Logger
}

// NewFxLoggerAdapter returns an fxevent.Logger for fx.WithLogger.
func NewFxLoggerAdapter(logger *zap.Logger) fxevent.Logger {
	return &FxLogger{logger: logger.Named("fx")}
}

// LogEvent implements fxevent.Logger. Routine container events go to debug,
// failures to error.
func (l *FxLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		l.logger.Debug("OnStart hook executing", zap.String("callee", e.FunctionName), zap.String("caller", e.CallerName))
	case *fxevent.OnStartExecuted:
		l.hookResult("OnStart", e.FunctionName, e.CallerName, e.Runtime.String(), e.Err)
	case *fxevent.OnStopExecuting:
		l.logger.Debug("OnStop hook executing", zap.String("callee", e.FunctionName), zap.String("caller", e.CallerName))
	case *fxevent.OnStopExecuted:
		l.hookResult("OnStop", e.FunctionName, e.CallerName, e.Runtime.String(), e.Err)
	case *fxevent.Supplied:
		l.result("supplied", e.Err, zap.String("type", e.TypeName), zap.String("module", e.ModuleName))
	case *fxevent.Provided:
		l.result("provided", e.Err, zap.Strings("types", e.OutputTypeNames), zap.String("module", e.ModuleName))
	case *fxevent.Invoking:
		l.logger.Debug("invoking", zap.String("function", e.FunctionName), zap.String("module", e.ModuleName))
	case *fxevent.Invoked:
		l.result("invoked", e.Err, zap.String("function", e.FunctionName), zap.String("module", e.ModuleName))
	case *fxevent.Stopping:
		l.logger.Info("received signal", zap.String("signal", e.Signal.String()))
	case *fxevent.Stopped:
		l.result("stopped", e.Err)
	case *fxevent.RollingBack:
		l.logger.Error("start failed, rolling back", zap.Error(e.StartErr))
	case *fxevent.RolledBack:
		l.result("rolled back", e.Err)
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error("start failed", zap.Error(e.Err))
			return
		}
		l.logger.Info("started")
	case *fxevent.LoggerInitialized:
		l.result("initialized custom fxevent.Logger", e.Err, zap.String("function", e.ConstructorName))
	default:
		l.logger.Debug("unhandled fx event", zap.String("type", typeName(event)))
	}
}

func (l *FxLogger) hookResult(hook, callee, caller, runtime string, err error) {
	if err != nil {
		l.logger.Error(hook+" hook failed", zap.String("callee", callee), zap.String("caller", caller), zap.Error(err))
		return
	}
	l.logger.Debug(hook+" hook executed", zap.String("callee", callee), zap.String("caller", caller), zap.String("runtime", runtime))
}

func (l *FxLogger) result(msg string, err error, fields ...zap.Field) {
	if err != nil {
		l.logger.Error(msg+" with error", append(fields, zap.Error(err))...)
		return
	}
	l.logger.Debug(msg, fields...)
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
