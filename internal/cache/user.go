package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/penshort/userapi/internal/model"
)

// Cache key prefixes and TTLs.
const (
	userKeyPrefix = "user:"

	// DefaultUserTTL is the TTL for cached user data.
	DefaultUserTTL = time.Hour
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetUser retrieves a user from cache by ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	result, err := c.client.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	user, ok := userFromHash(id, result)
	if !ok {
		return nil, ErrCacheMiss
	}

	return user, nil
}

// SetUser stores a user in cache. Users never change after creation, so
// entries are only ever evicted by TTL.
func (c *Cache) SetUser(ctx context.Context, user *model.User) error {
	key := userKey(user.ID)

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	})
	pipe.Expire(ctx, key, c.userTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}

	return nil
}

func userKey(id uuid.UUID) string {
	return userKeyPrefix + id.String()
}

// userFromHash rebuilds a user from its hash fields. A partial hash counts as a miss.
func userFromHash(id uuid.UUID, fields map[string]string) (*model.User, bool) {
	first, okFirst := fields["first_name"]
	last, okLast := fields["last_name"]
	if !okFirst || !okLast {
		return nil, false
	}
	return &model.User{ID: id, FirstName: first, LastName: last}, true
}
