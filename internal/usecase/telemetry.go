package usecase

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/polkiloo/paycore/internal/metrics"
)

const tracerName = "github.com/polkiloo/paycore/internal/usecase"

func tracerFrom(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return tp.Tracer(tracerName)
}

func collectorsOrNop(c *metrics.Collectors) *metrics.Collectors {
	if c == nil {
		return metrics.NewNop()
	}
	return c
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
