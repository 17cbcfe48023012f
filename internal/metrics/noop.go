package metrics

import "context"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncUserCreated is a no-op.
func (n *NoopRecorder) IncUserCreated(ctx context.Context) {}

// IncUserCacheHit is a no-op.
func (n *NoopRecorder) IncUserCacheHit(ctx context.Context) {}

// IncUserCacheMiss is a no-op.
func (n *NoopRecorder) IncUserCacheMiss(ctx context.Context) {}
