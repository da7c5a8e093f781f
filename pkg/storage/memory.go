package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/quest-weaver/pkg/session"
)

type memoryLock struct {
	owner   string
	expires time.Time
}

// MemoryStorage keeps sessions in process memory. It is used for local
// runs and tests.
type MemoryStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*session.Session
	locks     map[uuid.UUID]memoryLock
	pingError error
	now       func() time.Time
}

// Ensure MemoryStorage implements Storage interface
var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[uuid.UUID]*session.Session),
		locks:    make(map[uuid.UUID]memoryLock),
		now:      time.Now,
	}
}

// SetPingError configures Ping to fail with err. A nil err restores success.
func (m *MemoryStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) SaveSession(ctx context.Context, s *session.Session) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = clone(s)
	return nil
}

func (m *MemoryStorage) LoadSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return clone(s), nil
}

func (m *MemoryStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// AcquireLock takes the session lock for owner unless another owner holds an unexpired one.
func (m *MemoryStorage) AcquireLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if l, held := m.locks[id]; held && now.Before(l.expires) {
		return false, nil
	}
	m.locks[id] = memoryLock{owner: owner, expires: now.Add(ttl)}
	return true, nil
}

// ReleaseLock drops the lock only if owner still holds it.
func (m *MemoryStorage) ReleaseLock(ctx context.Context, id uuid.UUID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, held := m.locks[id]; held && l.owner == owner {
		delete(m.locks, id)
	}
	return nil
}

func clone(s *session.Session) *session.Session {
	c := *s
	c.Transcript = append([]session.Line(nil), s.Transcript...)
	return &c
}
