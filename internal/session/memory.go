package session

import (
	"context"
	"sync"
	"time"

	"github.com/redfield-bmc/redfield/internal/authn"
)

// MemoryStore holds sessions in process memory under a single mutex.
// Expiry is decided lazily at lookup time from CreatedAt, so correctness
// never depends on a background task; the optional sweeper only bounds
// memory held by tokens nobody asks about again.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// MemoryOption customises a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore constructs a store whose sessions live for ttl after
// creation.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, principal authn.Principal) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := newToken()
	for _, exists := s.sessions[token]; exists; _, exists = s.sessions[token] {
		token = newToken()
	}
	sess := Session{Token: token, Principal: principal, CreatedAt: s.now()}
	s.sessions[token] = sess
	return sess, nil
}

// Lookup implements Store.
func (s *MemoryStore) Lookup(ctx context.Context, token string) (*authn.Principal, error) {
	sess, err := s.Get(ctx, token)
	if err != nil || sess == nil {
		return nil, err
	}
	principal := sess.Principal
	return &principal, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, token string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, nil
	}
	if s.expired(sess) {
		delete(s.sessions, token)
		return nil, nil
	}
	copied := sess
	return &copied, nil
}

// List implements Store. Expired entries encountered along the way are
// dropped.
func (s *MemoryStore) List(ctx context.Context) ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := make([]Session, 0, len(s.sessions))
	for token, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, token)
			continue
		}
		live = append(live, sess)
	}
	return live, nil
}

// Revoke implements Store.
func (s *MemoryStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps on the given interval until the context is cancelled.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *MemoryStore) expired(sess Session) bool {
	return s.now().Sub(sess.CreatedAt) > s.ttl
}

var _ Store = (*MemoryStore)(nil)
