// Package session holds the explicit per-visitor session state used by the
// verification flow and the stores that persist it between requests.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/penshort/budgetdesk/internal/model"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Store persists sessions between requests.
type Store interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	Save(ctx context.Context, sess *model.Session) error
	Delete(ctx context.Context, id string) error
}

// New starts a fresh, unauthenticated session.
func New(now time.Time) *model.Session {
	return &model.Session{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// MemoryStore keeps sessions in process. Sessions idle for longer than the
// TTL are dropped.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

type memoryEntry struct {
	sess     model.Session
	lastSeen time.Time
}

// NewMemoryStore creates a MemoryStore with the given idle TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns a copy of the stored session.
func (m *MemoryStore) Get(ctx context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := m.now()
	if m.ttl > 0 && now.Sub(entry.lastSeen) > m.ttl {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}

	entry.lastSeen = now
	m.sessions[id] = entry

	sess := entry.sess
	return &sess, nil
}

// Save stores a copy of the session and sweeps expired entries.
func (m *MemoryStore) Save(ctx context.Context, sess *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	sess.UpdatedAt = now.UTC()
	m.sessions[sess.ID] = memoryEntry{sess: *sess, lastSeen: now}
	m.sweepLocked(now)
	return nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryStore) sweepLocked(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	for id, entry := range m.sessions {
		if now.Sub(entry.lastSeen) > m.ttl {
			delete(m.sessions, id)
		}
	}
}
