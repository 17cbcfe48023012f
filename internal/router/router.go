// Package router assembles the HTTP routes and middleware stack.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/penshort/userapi/internal/handler"
	"github.com/penshort/userapi/internal/middleware"
)

// Operational endpoints served without request spans.
var untracedPaths = []string{"/healthz", "/readyz", "/metrics"}

// Deps are the handlers and telemetry the router wires together.
type Deps struct {
	Users   *handler.UserHandler
	Health  *handler.HealthHandler
	Metrics *handler.MetricsHandler

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Propagator     propagation.TextMapPropagator

	Logger        *slog.Logger
	IsDevelopment bool
}

// New builds the chi router with all routes and middleware.
func New(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := handler.New()
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Tracing(middleware.TracingConfig{
		TracerProvider: d.TracerProvider,
		MeterProvider:  d.MeterProvider,
		Propagator:     d.Propagator,
		ExcludedPaths:  untracedPaths,
	}))
	r.Use(middleware.TraceResponse(d.Propagator))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: d.IsDevelopment}))

	if d.Health != nil {
		r.Get("/healthz", d.Health.Healthz)
		r.Get("/readyz", d.Health.Readyz)
	}
	if d.Metrics != nil {
		r.Get("/metrics", d.Metrics.Metrics)
	}

	r.Get("/users", d.Users.List)
	r.Get("/user/{id}", d.Users.Get)
	r.With(middleware.MaxBodySize(middleware.DefaultMaxBodySize)).Post("/user", d.Users.Create)

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
