package metrics

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Instrument names.
const (
	UsersCreatedName    = "users.created"
	UserCacheHitsName   = "users.cache.hits"
	UserCacheMissesName = "users.cache.misses"
)

// OTelRecorder records metric events on OpenTelemetry counters.
type OTelRecorder struct {
	usersCreated    metric.Int64Counter
	userCacheHits   metric.Int64Counter
	userCacheMisses metric.Int64Counter
}

// NewOTel creates the counters on meter. An error means at least one
// instrument could not be created; callers should fall back to NewNoop.
func NewOTel(meter metric.Meter) (*OTelRecorder, error) {
	usersCreated, err1 := meter.Int64Counter(UsersCreatedName,
		metric.WithDescription("Number of users created."),
		metric.WithUnit("{user}"),
	)
	hits, err2 := meter.Int64Counter(UserCacheHitsName,
		metric.WithDescription("User lookups served from the cache."),
		metric.WithUnit("{lookup}"),
	)
	misses, err3 := meter.Int64Counter(UserCacheMissesName,
		metric.WithDescription("User lookups that fell through to the database."),
		metric.WithUnit("{lookup}"),
	)
	if err := errors.Join(err1, err2, err3); err != nil {
		return nil, fmt.Errorf("failed to create counters: %w", err)
	}

	return &OTelRecorder{
		usersCreated:    usersCreated,
		userCacheHits:   hits,
		userCacheMisses: misses,
	}, nil
}

// IncUserCreated increments the users created counter.
func (r *OTelRecorder) IncUserCreated(ctx context.Context) {
	r.usersCreated.Add(ctx, 1)
}

// IncUserCacheHit increments the cache hit counter.
func (r *OTelRecorder) IncUserCacheHit(ctx context.Context) {
	r.userCacheHits.Add(ctx, 1)
}

// IncUserCacheMiss increments the cache miss counter.
func (r *OTelRecorder) IncUserCacheMiss(ctx context.Context) {
	r.userCacheMisses.Add(ctx, 1)
}
