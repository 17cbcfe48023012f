package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/penshort/userapi/internal/model"
	"github.com/penshort/userapi/internal/repository"
)

// MemoryUserStore is an in-memory stand-in for the Postgres repository.
// It keeps insertion order so ListUsers behaves like a heap scan of a fresh table.
type MemoryUserStore struct {
	mu    sync.Mutex
	order []uuid.UUID
	users map[uuid.UUID]model.User

	// Err, when set, is returned by every call.
	Err error
}

// NewMemoryUserStore returns an empty store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uuid.UUID]model.User)}
}

// ListUsers returns all users in insertion order.
func (s *MemoryUserStore) ListUsers(ctx context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	users := make([]model.User, 0, len(s.order))
	for _, id := range s.order {
		users = append(users, s.users[id])
	}
	return users, nil
}

// GetUserByID returns repository.ErrUserNotFound for unknown IDs.
func (s *MemoryUserStore) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &user, nil
}

// CreateUser rejects duplicate IDs the way the primary key would.
func (s *MemoryUserStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("failed to create user: duplicate key %s", user.ID)
	}
	s.users[user.ID] = *user
	s.order = append(s.order, user.ID)
	return nil
}

// Len returns the number of stored users.
func (s *MemoryUserStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
