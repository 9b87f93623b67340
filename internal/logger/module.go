package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/polkiloo/paycore/internal/config"
)

// Module wires the zap logger for dependency injection and flushes it on stop.
var Module = fx.Options(
	fx.Provide(newLogger),
	fx.Invoke(registerLifecycle),
)

// EventLogger routes fx's own events through the application logger.
func EventLogger(log *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: log.Named("fx")}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return New(cfg.LogLevel)
}

func registerLifecycle(lc fx.Lifecycle, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
}
