package metrics

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/penshort/userapi/internal/repository"
)

// PoolStatter reports live connection pool counts.
type PoolStatter interface {
	Stats() repository.PoolStats
}

// RegisterPoolGauges exposes the pool's connection counts as observable gauges.
// The returned registration should be unregistered before the pool is closed.
func RegisterPoolGauges(meter metric.Meter, pool PoolStatter) (metric.Registration, error) {
	total, err1 := meter.Int64ObservableGauge("db.pool.connections.total",
		metric.WithDescription("Open connections in the pool."),
		metric.WithUnit("{connection}"),
	)
	idle, err2 := meter.Int64ObservableGauge("db.pool.connections.idle",
		metric.WithDescription("Idle connections in the pool."),
		metric.WithUnit("{connection}"),
	)
	acquired, err3 := meter.Int64ObservableGauge("db.pool.connections.acquired",
		metric.WithDescription("Connections currently checked out."),
		metric.WithUnit("{connection}"),
	)
	maxConns, err4 := meter.Int64ObservableGauge("db.pool.connections.max",
		metric.WithDescription("Configured maximum pool size."),
		metric.WithUnit("{connection}"),
	)
	if err := errors.Join(err1, err2, err3, err4); err != nil {
		return nil, fmt.Errorf("failed to create pool gauges: %w", err)
	}

	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := pool.Stats()
		o.ObserveInt64(total, s.Total)
		o.ObserveInt64(idle, s.Idle)
		o.ObserveInt64(acquired, s.Acquired)
		o.ObserveInt64(maxConns, s.Max)
		return nil
	}, total, idle, acquired, maxConns)
	if err != nil {
		return nil, fmt.Errorf("failed to register pool gauge callback: %w", err)
	}

	return reg, nil
}
