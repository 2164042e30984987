package auth

import (
	"context"
	"sync"
	"time"

	"github.com/rsvphq/firstaccess/pkg"
)

const DefaultSessionTTL = 24 * 7 * time.Hour

var _ SessionStore = (*MemorySessionStore)(nil)
var _ SessionStore = (*RedisSessionStore)(nil)

// SessionStore maps opaque bearer tokens to admin identities with expiry
// semantics. Resolve returns found=false uniformly for tokens that never
// existed, were revoked, or expired.
type SessionStore interface {
	Create(ctx context.Context, adminID string) (string, error)
	Resolve(ctx context.Context, token string) (adminID string, found bool, err error)
	Revoke(ctx context.Context, token string) error
}

type session struct {
	adminID   string
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in a process-local table. Sessions do not
// survive restarts and are not shared between instances; use the redis store
// for multi-instance deployments.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]session
	// ability to inject time and random string generator func for tokens (for unit and dev testing)
	NowFunc        func() time.Time
	RandStringFunc func(s int) (string, error)
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:            ttl,
		sessions:       make(map[string]session),
		NowFunc:        time.Now,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (s *MemorySessionStore) Create(_ context.Context, adminID string) (string, error) {
	token, err := s.RandStringFunc(35)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[token] = session{
		adminID:   adminID,
		expiresAt: s.NowFunc().Add(s.ttl),
	}

	return token, nil
}

// Resolve expires lazily: an expired entry is removed on lookup, there is no
// background sweep
func (s *MemorySessionStore) Resolve(_ context.Context, token string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return "", false, nil
	}

	if !s.NowFunc().Before(sess.expiresAt) {
		delete(s.sessions, token)
		return "", false, nil
	}

	return sess.adminID, true, nil
}

func (s *MemorySessionStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}
