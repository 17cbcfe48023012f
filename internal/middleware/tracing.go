package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader carries the hex trace ID of the request span on responses.
const TraceIDHeader = "X-Trace-ID"

// TracingConfig wires the request instrumentation to explicit providers.
type TracingConfig struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Propagator     propagation.TextMapPropagator

	// ExcludedPaths are served without a span or HTTP metrics.
	ExcludedPaths []string
}

// Tracing opens a server span per request and records otelhttp's request
// metrics. Once the router has matched, the span is renamed to
// "METHOD /route/pattern" and tagged with http.route.
func Tracing(cfg TracingConfig) func(http.Handler) http.Handler {
	excluded := make(map[string]struct{}, len(cfg.ExcludedPaths))
	for _, p := range cfg.ExcludedPaths {
		excluded[p] = struct{}{}
	}

	opts := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			_, skip := excluded[r.URL.Path]
			return !skip
		}),
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(cfg.MeterProvider))
	}
	if cfg.Propagator != nil {
		opts = append(opts, otelhttp.WithPropagators(cfg.Propagator))
	}

	instrument := otelhttp.NewMiddleware("http.server", opts...)

	return func(next http.Handler) http.Handler {
		return instrument(nameByRoute(next))
	}
}

func nameByRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		pattern := routePattern(r)
		if pattern == "" {
			return
		}

		span := trace.SpanFromContext(r.Context())
		span.SetName(r.Method + " " + pattern)
		span.SetAttributes(semconv.HTTPRoute(pattern))
	})
}

// TraceResponse writes the active span context into the response headers:
// W3C traceparent through propagator, plus X-Trace-ID. It must run inside
// Tracing so the request span exists.
func TraceResponse(propagator propagation.TextMapPropagator) func(http.Handler) http.Handler {
	if propagator == nil {
		propagator = propagation.TraceContext{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if traceID := GetTraceID(r.Context()); traceID != "" {
				propagator.Inject(r.Context(), propagation.HeaderCarrier(w.Header()))
				w.Header().Set(TraceIDHeader, traceID)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestIDAttr(id string) attribute.KeyValue {
	return attribute.String("http.request_id", id)
}
