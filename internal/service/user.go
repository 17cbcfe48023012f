// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/penshort/userapi/internal/cache"
	"github.com/penshort/userapi/internal/metrics"
	"github.com/penshort/userapi/internal/model"
	"github.com/penshort/userapi/internal/repository"
)

// Service errors.
var (
	ErrUserNotFound = errors.New("user not found")
)

// Statement labels attached to db.query spans.
const (
	StatementListUsers  = "SELECT users"
	StatementGetUser    = "SELECT user BY id"
	StatementInsertUser = "INSERT user"
)

// UserStore is the persistence the service needs.
type UserStore interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
}

// UserCache is an optional read-through cache in front of UserStore.
type UserCache interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	SetUser(ctx context.Context, user *model.User) error
}

// UserService handles user business logic.
type UserService struct {
	store   UserStore
	cache   UserCache
	metrics metrics.Recorder
	tracer  trace.Tracer
	logger  *slog.Logger
	newID   func() (uuid.UUID, error)
}

// Option configures a UserService.
type Option func(*UserService)

// WithCache puts cache in front of GetUser lookups.
func WithCache(c UserCache) Option {
	return func(s *UserService) { s.cache = c }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *UserService) { s.metrics = r }
}

// WithTracer sets the tracer used for db.query and result spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *UserService) { s.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *UserService) { s.logger = l }
}

// WithIDGenerator overrides random UUID generation.
func WithIDGenerator(fn func() (uuid.UUID, error)) Option {
	return func(s *UserService) { s.newID = fn }
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore, opts ...Option) *UserService {
	s := &UserService{
		store:   store,
		metrics: metrics.NewNoop(),
		tracer:  noop.NewTracerProvider().Tracer(""),
		logger:  slog.Default(),
		newID:   uuid.NewRandom,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewNoop()
	}
	return s
}

// ListUsers returns every stored user. No users is an empty slice, not an error.
func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	var rows []model.User
	err := s.query(ctx, StatementListUsers, func(ctx context.Context) error {
		var err error
		rows, err = s.store.ListUsers(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	_, span := s.tracer.Start(ctx, "result.map", trace.WithAttributes(
		attribute.Int("row_count", len(rows)),
	))
	defer span.End()

	users := make([]model.User, 0, len(rows))
	users = append(users, rows...)

	return users, nil
}

// GetUser looks a user up by ID, consulting the cache first when one is configured.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if user := s.cachedUser(ctx, id); user != nil {
		return user, nil
	}

	var found *model.User
	err := s.query(ctx, StatementGetUser, func(ctx context.Context) error {
		var err error
		found, err = s.store.GetUserByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	_, span := s.tracer.Start(ctx, "result.build")
	user := &model.User{ID: found.ID, FirstName: found.FirstName, LastName: found.LastName}
	span.End()

	if s.cache != nil {
		if err := s.cache.SetUser(ctx, user); err != nil {
			s.logger.WarnContext(ctx, "user cache write failed",
				slog.String("user_id", id.String()),
				slog.Any("error", err),
			)
		}
	}

	return user, nil
}

// CreateUser assigns a fresh random ID and stores the user.
func (s *UserService) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user id: %w", err)
	}
	user := req.NewUser(id)

	err = s.query(ctx, StatementInsertUser, func(ctx context.Context) error {
		return s.store.CreateUser(ctx, &user)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	s.metrics.IncUserCreated(ctx)

	_, span := s.tracer.Start(ctx, "result.build")
	created := &model.User{ID: user.ID, FirstName: user.FirstName, LastName: user.LastName}
	span.End()

	return created, nil
}

// query runs fn inside a db.query span labelled with statement.
func (s *UserService) query(ctx context.Context, statement string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "db.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.statement", statement),
		),
	)
	defer span.End()

	err := fn(ctx)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
	}
	return err
}

func (s *UserService) cachedUser(ctx context.Context, id uuid.UUID) *model.User {
	if s.cache == nil {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "cache.get", trace.WithAttributes(
		attribute.String("cache.key", "user:"+id.String()),
	))
	defer span.End()

	user, err := s.cache.GetUser(ctx, id)
	switch {
	case err == nil:
		span.SetAttributes(attribute.Bool("cache.hit", true))
		s.metrics.IncUserCacheHit(ctx)
		return user
	case errors.Is(err, cache.ErrCacheMiss):
	default:
		span.RecordError(err)
		s.logger.WarnContext(ctx, "user cache read failed",
			slog.String("user_id", id.String()),
			slog.Any("error", err),
		)
	}

	span.SetAttributes(attribute.Bool("cache.hit", false))
	s.metrics.IncUserCacheMiss(ctx)
	return nil
}
