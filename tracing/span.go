package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/bsv-blockchain/teranode-archive"

type Span struct {
	Ctx    context.Context
	otSpan trace.Span
}

// Start opens a span on the global tracer provider. Without a configured provider the span is a no-op.
func Start(ctx context.Context, name string) Span {
	spanCtx, otSpan := otel.Tracer(tracerName).Start(ctx, name)

	return Span{
		Ctx:    spanCtx,
		otSpan: otSpan,
	}
}

func (s *Span) SetTag(key, value string) {
	s.otSpan.SetAttributes(attribute.String(key, value))
}

func (s *Span) RecordError(err error) {
	if err == nil {
		return
	}

	s.otSpan.RecordError(err)
	s.otSpan.SetStatus(codes.Error, err.Error())
}

func (s *Span) Finish() {
	s.otSpan.End()
}
