package metrics

import (
	"context"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersCreated    uint64
	UserCacheHits   uint64
	UserCacheMisses uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	usersCreated    atomic.Uint64
	userCacheHits   atomic.Uint64
	userCacheMisses atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersCreated:    m.usersCreated.Load(),
		UserCacheHits:   m.userCacheHits.Load(),
		UserCacheMisses: m.userCacheMisses.Load(),
	}
}

// IncUserCreated increments the users created counter.
func (m *InMemoryRecorder) IncUserCreated(ctx context.Context) {
	m.usersCreated.Add(1)
}

// IncUserCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncUserCacheHit(ctx context.Context) {
	m.userCacheHits.Add(1)
}

// IncUserCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncUserCacheMiss(ctx context.Context) {
	m.userCacheMisses.Add(1)
}
