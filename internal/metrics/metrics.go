// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "context"

// Recorder captures metric events for the application.
// Implementations must be safe for concurrent use and must never fail the caller.
type Recorder interface {
	// User lifecycle metrics
	IncUserCreated(ctx context.Context)

	// Read-through cache metrics
	IncUserCacheHit(ctx context.Context)
	IncUserCacheMiss(ctx context.Context)
}
