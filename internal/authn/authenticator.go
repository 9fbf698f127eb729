package authn

import (
	"context"
	"errors"
)

// ErrInvalidCredentials indicates a verification failure. Implementations
// collapse "unknown user", "disabled user" and "wrong secret" into this one
// error so responses do not reveal which part was wrong.
var ErrInvalidCredentials = errors.New("authn: invalid credentials")

// Authenticator verifies a username/secret pair and produces a principal.
// Secrets are never logged and are discarded after the verification attempt.
// The context bounds external round-trips (account store, OS authentication
// service).
type Authenticator interface {
	Verify(ctx context.Context, username, secret string) (Principal, error)
}
