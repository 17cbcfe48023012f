package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/penshort/userapi/internal/cache"
	"github.com/penshort/userapi/internal/metrics"
	"github.com/penshort/userapi/internal/model"
	"github.com/penshort/userapi/internal/testutil"
)

type fakeCache struct {
	mu      sync.Mutex
	users   map[uuid.UUID]model.User
	getErr  error
	setErr  error
	setCall int
}

func newFakeCache() *fakeCache {
	return &fakeCache{users: make(map[uuid.UUID]model.User)}
}

func (c *fakeCache) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	u, ok := c.users[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &u, nil
}

func (c *fakeCache) SetUser(ctx context.Context, user *model.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCall++
	if c.setErr != nil {
		return c.setErr
	}
	c.users[user.ID] = *user
	return nil
}

type testEnv struct {
	svc      *UserService
	store    *testutil.MemoryUserStore
	recorder *metrics.InMemoryRecorder
	spans    *tracetest.SpanRecorder
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	store := testutil.NewMemoryUserStore()
	recorder := metrics.NewInMemory()

	base := []Option{WithRecorder(recorder), WithTracer(tp.Tracer("test"))}
	return &testEnv{
		svc:      NewUserService(store, append(base, opts...)...),
		store:    store,
		recorder: recorder,
		spans:    spans,
	}
}

func (e *testEnv) spanNames() []string {
	var names []string
	for _, s := range e.spans.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func (e *testEnv) dbSpan(t *testing.T) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, s := range e.spans.Ended() {
		if s.Name() == "db.query" {
			return s
		}
	}
	t.Fatal("no db.query span recorded")
	return nil
}

func attr(s sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range s.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestUserService_CreateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.svc.CreateUser(ctx, model.CreateUserRequest{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, uuid.Version(4), user.ID.Version())
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, "Lovelace", user.LastName)
	assert.Equal(t, 1, env.store.Len())
	assert.Equal(t, uint64(1), env.recorder.Snapshot().UsersCreated)

	assert.Equal(t, []string{"db.query", "result.build"}, env.spanNames())
	assert.Equal(t, StatementInsertUser, attr(env.dbSpan(t), "db.statement").AsString())
}

func TestUserService_CreateUser_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.Err = errors.New("connection refused")

	_, err := env.svc.CreateUser(context.Background(), model.CreateUserRequest{FirstName: "a", LastName: "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, env.store.Err)
	assert.Zero(t, env.recorder.Snapshot().UsersCreated, "counter must not move on failure")

	span := env.dbSpan(t)
	assert.Equal(t, codes.Error, span.Status().Code)
	require.NotEmpty(t, span.Events())
	assert.Equal(t, "exception", span.Events()[0].Name)
}

func TestUserService_CreateUser_IDGeneratorFailure(t *testing.T) {
	env := newTestEnv(t, WithIDGenerator(func() (uuid.UUID, error) {
		return uuid.Nil, errors.New("entropy exhausted")
	}))

	_, err := env.svc.CreateUser(context.Background(), model.CreateUserRequest{FirstName: "a", LastName: "b"})
	require.Error(t, err)
	assert.Zero(t, env.store.Len())
}

func TestUserService_CreateUser_ConcurrentIDsAreUnique(t *testing.T) {
	env := newTestEnv(t)

	const k = 50
	ids := make(chan uuid.UUID, k)
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := env.svc.CreateUser(context.Background(), model.CreateUserRequest{FirstName: "f", LastName: "l"})
			if assert.NoError(t, err) {
				ids <- u.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uuid.UUID]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, k)
	assert.Equal(t, k, env.store.Len())
	assert.Equal(t, uint64(k), env.recorder.Snapshot().UsersCreated)
}

func TestUserService_ListUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	users, err := env.svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	a, err := env.svc.CreateUser(ctx, model.CreateUserRequest{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	b, err := env.svc.CreateUser(ctx, model.CreateUserRequest{FirstName: "Grace", LastName: "Hopper"})
	require.NoError(t, err)

	users, err = env.svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.User{*a, *b}, users)
}

func TestUserService_ListUsers_Spans(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.ListUsers(context.Background())
	require.NoError(t, err)

	ended := env.spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "db.query", ended[0].Name())
	assert.Equal(t, StatementListUsers, attr(ended[0], "db.statement").AsString())
	assert.Equal(t, "result.map", ended[1].Name())
	assert.Equal(t, int64(0), attr(ended[1], "row_count").AsInt64())
}

func TestUserService_ListUsers_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.Err = errors.New("timeout")

	_, err := env.svc.ListUsers(context.Background())
	assert.ErrorIs(t, err, env.store.Err)
}

func TestUserService_GetUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.svc.CreateUser(ctx, model.CreateUserRequest{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)

	got, err := env.svc.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, *got)
}

func TestUserService_GetUser_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)

	span := env.dbSpan(t)
	assert.Equal(t, StatementGetUser, attr(span, "db.statement").AsString())
	assert.NotEqual(t, codes.Error, span.Status().Code, "absence is not a span error")
}

func TestUserService_GetUser_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.Err = errors.New("boom")

	_, err := env.svc.GetUser(context.Background(), uuid.New())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUserNotFound))
}

func TestUserService_GetUser_CacheReadThrough(t *testing.T) {
	c := newFakeCache()
	env := newTestEnv(t, WithCache(c))
	ctx := context.Background()

	created, err := env.svc.CreateUser(ctx, model.CreateUserRequest{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)

	// First read misses and populates the cache.
	_, err = env.svc.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.setCall)

	// Second read is served by the cache even if the store is down.
	env.store.Err = errors.New("store down")
	got, err := env.svc.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, *got)

	snap := env.recorder.Snapshot()
	assert.Equal(t, uint64(1), snap.UserCacheMisses)
	assert.Equal(t, uint64(1), snap.UserCacheHits)
}

func TestUserService_GetUser_CacheErrorsFallBackToStore(t *testing.T) {
	c := newFakeCache()
	c.getErr = errors.New("redis unavailable")
	c.setErr = errors.New("redis unavailable")
	env := newTestEnv(t, WithCache(c))
	ctx := context.Background()

	created, err := env.svc.CreateUser(ctx, model.CreateUserRequest{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)

	got, err := env.svc.GetUser(ctx, created.ID)
	require.NoError(t, err, "cache failures must not fail the lookup")
	assert.Equal(t, *created, *got)
	assert.Equal(t, uint64(1), env.recorder.Snapshot().UserCacheMisses)
}

func TestNewUserService_Defaults(t *testing.T) {
	t.Parallel()

	svc := NewUserService(testutil.NewMemoryUserStore(), WithRecorder(nil))

	user, err := svc.CreateUser(context.Background(), model.CreateUserRequest{FirstName: "x", LastName: "y"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
}
