package telemetry

import (
	"context"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SpanLogProcessor writes a debug line when a span opens and when it closes,
// giving a console view of request flow without a collector.
type SpanLogProcessor struct {
	logger *slog.Logger
}

var _ sdktrace.SpanProcessor = (*SpanLogProcessor)(nil)

// NewSpanLogProcessor returns a processor logging through logger.
func NewSpanLogProcessor(logger *slog.Logger) *SpanLogProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpanLogProcessor{logger: logger}
}

// OnStart logs "span opened".
func (p *SpanLogProcessor) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	if !p.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	sc := s.SpanContext()
	p.logger.LogAttrs(context.Background(), slog.LevelDebug, "span opened",
		slog.String("span", s.Name()),
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}

// OnEnd logs "span closed" with the span's duration and status.
func (p *SpanLogProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	if !p.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	sc := s.SpanContext()
	p.logger.LogAttrs(context.Background(), slog.LevelDebug, "span closed",
		slog.String("span", s.Name()),
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
		slog.Float64("duration_ms", float64(s.EndTime().Sub(s.StartTime()).Microseconds())/1000),
		slog.String("status", s.Status().Code.String()),
	)
}

// Shutdown is a no-op.
func (p *SpanLogProcessor) Shutdown(context.Context) error { return nil }

// ForceFlush is a no-op.
func (p *SpanLogProcessor) ForceFlush(context.Context) error { return nil }
