package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	s       Session
	expires time.Time
}

// MemoryStore keeps sessions in process. Used when no Redis address is configured.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*memoryEntry
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]*memoryEntry),
		now:      time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Create(_ context.Context, studentName, institution string) (*Session, error) {
	s := newSession(uuid.NewString(), studentName, institution)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gcLocked()
	m.sessions[s.ID] = &memoryEntry{s: *s, expires: m.expiry()}
	return s, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.liveLocked(id)
	if !ok {
		return nil, errNotFound(id)
	}
	s := e.s
	return &s, nil
}

func (m *MemoryStore) RefreshCaptcha(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.liveLocked(id)
	if !ok {
		return nil, errNotFound(id)
	}
	e.s.CaptchaA, e.s.CaptchaB = NewChallenge()
	s := e.s
	return &s, nil
}

func (m *MemoryStore) ClaimSubmission(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.liveLocked(id)
	if !ok {
		return errNotFound(id)
	}
	if e.s.Submitted {
		return errAlreadySubmitted()
	}
	e.s.Submitted = true
	return nil
}

func (m *MemoryStore) ReleaseSubmission(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.liveLocked(id); ok {
		e.s.Submitted = false
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) expiry() time.Time {
	if m.ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(m.ttl)
}

func (m *MemoryStore) liveLocked(id string) (*memoryEntry, bool) {
	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.sessions, id)
		return nil, false
	}
	return e, true
}

func (m *MemoryStore) gcLocked() {
	now := m.now()
	for id, e := range m.sessions {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(m.sessions, id)
		}
	}
}
