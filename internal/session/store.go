package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/redfield-bmc/redfield/internal/authn"
)

// Session associates an opaque token with a principal. Lifetime is absolute:
// a session expires TTL after CreatedAt regardless of use.
type Session struct {
	Token     string
	Principal authn.Principal
	CreatedAt time.Time
}

// Store is the session registry shared by all request handlers. All methods
// are safe for concurrent use and atomic with respect to each other: a
// Lookup never observes a half-written Create.
type Store interface {
	// Create issues a session for the principal under a fresh random token.
	Create(ctx context.Context, principal authn.Principal) (Session, error)
	// Lookup resolves a token to its principal. Absent and expired tokens
	// return (nil, nil); expiry is checked lazily against CreatedAt.
	Lookup(ctx context.Context, token string) (*authn.Principal, error)
	// Get returns the full session record, or nil if absent/expired.
	Get(ctx context.Context, token string) (*Session, error)
	// List returns all live sessions, in no particular order.
	List(ctx context.Context) ([]Session, error)
	// Revoke removes the session. Revoking an unknown token is not an error.
	Revoke(ctx context.Context, token string) error
}

// newToken generates a 256-bit random token. uuid covers the unlikely case of
// the system entropy source failing mid-read.
func newToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
