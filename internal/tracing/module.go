package tracing

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/polkiloo/paycore/internal/config"
)

// Module installs the global tracer provider and flushes it on stop.
var Module = fx.Options(
	fx.Provide(
		newProvider,
		func(tp *sdktrace.TracerProvider) trace.TracerProvider { return tp },
	),
	fx.Invoke(registerLifecycle),
)

func newProvider(cfg *config.Config) (*sdktrace.TracerProvider, error) {
	return NewProvider(cfg.TracingEnabled, os.Stdout)
}

func registerLifecycle(lc fx.Lifecycle, tp *sdktrace.TracerProvider) {
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
}
