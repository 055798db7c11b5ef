package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/penshort/budgetdesk/internal/model"
	"github.com/penshort/budgetdesk/internal/session"
)

// sessionPrefix is the Redis key prefix for visitor sessions.
const sessionPrefix = "session:"

// SessionStore keeps sessions in Redis as JSON with a sliding TTL, so every
// API instance sees the same attempt counter and verified flag.
type SessionStore struct {
	cache *Cache
	ttl   time.Duration
}

var _ session.Store = (*SessionStore)(nil)

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(c *Cache, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: c, ttl: ttl}
}

// Get loads a session and refreshes its TTL.
func (s *SessionStore) Get(ctx context.Context, id string) (*model.Session, error) {
	key := sessionKey(id)

	data, err := s.cache.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// Corrupted entry - treat as missing
		_ = s.cache.client.Del(ctx, key).Err()
		return nil, session.ErrNotFound
	}

	if s.ttl > 0 {
		_ = s.cache.client.Expire(ctx, key, s.ttl).Err()
	}
	return &sess, nil
}

// Save writes the session.
func (s *SessionStore) Save(ctx context.Context, sess *model.Session) error {
	sess.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.cache.client.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the session.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return sessionPrefix + id
}
