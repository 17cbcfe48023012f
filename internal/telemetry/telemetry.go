// Package telemetry builds the process-wide tracer and meter providers.
//
// Setup is called once at startup and the returned Providers value is passed
// explicitly to whatever needs a tracer, a meter or the propagator. Nothing is
// installed in the otel global registry. Shutdown flushes both providers and is
// safe to call more than once.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Config controls provider construction.
type Config struct {
	// Enabled turns on OTLP export. When true, exporter construction failure
	// is fatal. When false, spans are still created and metrics are still
	// served through the Prometheus handler, but nothing is pushed.
	Enabled bool

	ServiceName    string
	ServiceVersion string
	Environment    string

	// Insecure disables TLS towards the OTLP collector.
	Insecure bool

	// MetricInterval is the push period of the OTLP metric reader.
	MetricInterval time.Duration
}

// Option customizes Setup. Mostly useful for tests.
type Option func(*options)

type options struct {
	spanProcessors []sdktrace.SpanProcessor
	metricReaders  []sdkmetric.Reader
}

// WithSpanProcessor registers an additional span processor.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) { o.spanProcessors = append(o.spanProcessors, sp) }
}

// WithMetricReader registers an additional metric reader.
func WithMetricReader(r sdkmetric.Reader) Option {
	return func(o *options) { o.metricReaders = append(o.metricReaders, r) }
}

// Providers owns the tracer and meter providers for the process lifetime.
type Providers struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	propagator     propagation.TextMapPropagator
	registry       *prometheus.Registry

	shutdownOnce sync.Once
	shutdownErr  error
}

// Setup builds the resource, the tracer provider and the meter provider, in that order.
func Setup(ctx context.Context, cfg Config, opts ...Option) (*Providers, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp, err := newTracerProvider(ctx, cfg, res, o.spanProcessors)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mp, err := newMeterProvider(ctx, cfg, res, registry, o.metricReaders)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return &Providers{
		tracerProvider: tp,
		meterProvider:  mp,
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
		registry: registry,
	}, nil
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
	)
	if err != nil && !errors.Is(err, resource.ErrPartialResource) {
		return nil, fmt.Errorf("failed to build resource: %w", err)
	}
	return res, nil
}

func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource, extra []sdktrace.SpanProcessor) (*sdktrace.TracerProvider, error) {
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	}

	if cfg.Enabled {
		var exOpts []otlptracehttp.Option
		if cfg.Insecure {
			exOpts = append(exOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, exOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP span exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}

	for _, sp := range extra {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}

	return sdktrace.NewTracerProvider(tpOpts...), nil
}

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource, registry *prometheus.Registry, extra []sdkmetric.Reader) (*sdkmetric.MeterProvider, error) {
	promExporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus metric reader: %w", err)
	}

	mpOpts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	}

	if cfg.Enabled {
		var exOpts []otlpmetrichttp.Option
		if cfg.Insecure {
			exOpts = append(exOpts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, exOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}

		var readerOpts []sdkmetric.PeriodicReaderOption
		if cfg.MetricInterval > 0 {
			readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricInterval))
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)))
	}

	for _, r := range extra {
		mpOpts = append(mpOpts, sdkmetric.WithReader(r))
	}

	return sdkmetric.NewMeterProvider(mpOpts...), nil
}

// Tracer returns a named tracer from the tracer provider.
func (p *Providers) Tracer(name string) trace.Tracer {
	return p.tracerProvider.Tracer(name)
}

// Meter returns a named meter from the meter provider.
func (p *Providers) Meter(name string) metric.Meter {
	return p.meterProvider.Meter(name)
}

// TracerProvider returns the tracer provider.
func (p *Providers) TracerProvider() trace.TracerProvider {
	return p.tracerProvider
}

// MeterProvider returns the meter provider.
func (p *Providers) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// Propagator returns the W3C trace-context and baggage propagator.
func (p *Providers) Propagator() propagation.TextMapPropagator {
	return p.propagator
}

// MetricsHandler serves the meter provider's instruments in Prometheus format.
func (p *Providers) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes pending spans and metrics and closes both providers.
// Only the first call does any work; later calls return the first result.
func (p *Providers) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		p.shutdownErr = errors.Join(
			p.tracerProvider.Shutdown(ctx),
			p.meterProvider.Shutdown(ctx),
		)
	})
	return p.shutdownErr
}
