package authn

import (
	"context"
	"fmt"
	"net/http"
)

// Strategy extracts and verifies credentials from a raw request.
//
// The return contract: (nil, nil) means no credentials of this scheme were
// presented and the request is anonymous so far; the caller decides whether
// that is acceptable. A non-nil Principal means verified. A *Rejection error
// means the strategy actively rejected the request (bad secret, malformed
// header) and, unless another strategy succeeds, that response must be
// returned verbatim.
type Strategy interface {
	Authenticate(r *http.Request) (*Principal, error)
}

// Challenger is implemented by strategies that advertise a WWW-Authenticate
// value on 401 responses.
type Challenger interface {
	Challenge() string
}

// BasicStrategy authenticates the Authorization: Basic header against an
// Authenticator. A missing header is soft (anonymous); a header that is
// present but unparsable is a hard 400; failed verification is a hard 401
// with a Basic challenge.
type BasicStrategy struct {
	Authenticator Authenticator
	Realm         string
}

// Challenge implements Challenger.
func (s BasicStrategy) Challenge() string {
	return fmt.Sprintf("Basic realm=%q", s.Realm)
}

// Authenticate implements Strategy.
func (s BasicStrategy) Authenticate(r *http.Request) (*Principal, error) {
	if r.Header.Get("Authorization") == "" {
		return nil, nil
	}
	username, secret, ok := r.BasicAuth()
	if !ok {
		return nil, Malformed("The Authorization header could not be parsed.")
	}
	principal, err := s.Authenticator.Verify(r.Context(), username, secret)
	if err != nil {
		if err == ErrInvalidCredentials {
			return nil, Unauthorized("Authentication failed.", s.Challenge())
		}
		return nil, err
	}
	return &principal, nil
}

// TokenSource resolves a session token to its principal. A nil principal with
// a nil error means the token is unknown or expired.
type TokenSource interface {
	Lookup(ctx context.Context, token string) (*Principal, error)
}

// SessionStrategy authenticates an opaque session token carried in a header
// or cookie. Unknown and expired tokens are soft failures so a combined
// strategy can fall through to another scheme.
type SessionStrategy struct {
	Sessions   TokenSource
	HeaderName string
	CookieName string
}

// Authenticate implements Strategy.
func (s SessionStrategy) Authenticate(r *http.Request) (*Principal, error) {
	token := r.Header.Get(s.HeaderName)
	if token == "" && s.CookieName != "" {
		if cookie, err := r.Cookie(s.CookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		return nil, nil
	}
	principal, err := s.Sessions.Lookup(r.Context(), token)
	if err != nil {
		return nil, err
	}
	return principal, nil
}

// CombinedStrategy tries strategies in order; the first success wins.
// Rejections from earlier strategies are deferred, not returned, so a request
// carrying both a stale session cookie and valid Basic credentials still
// succeeds. Only when every strategy has been tried without success is the
// deferred rejection surfaced, with all challenges merged.
type CombinedStrategy struct {
	Strategies []Strategy
}

// Authenticate implements Strategy.
func (s CombinedStrategy) Authenticate(r *http.Request) (*Principal, error) {
	var deferred []*Rejection
	for _, strategy := range s.Strategies {
		principal, err := strategy.Authenticate(r)
		if err != nil {
			rejection, ok := err.(*Rejection)
			if !ok {
				// Unexpected failure inside a strategy is not a caller
				// problem; stop immediately.
				return nil, err
			}
			deferred = append(deferred, rejection)
			continue
		}
		if principal != nil {
			return principal, nil
		}
	}
	if len(deferred) == 0 {
		return nil, nil
	}
	return nil, mergeRejections(deferred)
}

// mergeRejections folds deferred rejections into one response. A 401 beats a
// 400 because the caller's best next move is to re-authenticate; challenges
// from every scheme are carried so the client sees all its options.
func mergeRejections(rejections []*Rejection) *Rejection {
	merged := &Rejection{
		Status:  rejections[0].Status,
		Code:    rejections[0].Code,
		Message: rejections[0].Message,
	}
	for _, rejection := range rejections {
		if rejection.Status == http.StatusUnauthorized && merged.Status != http.StatusUnauthorized {
			merged.Status = rejection.Status
			merged.Code = rejection.Code
			merged.Message = rejection.Message
		}
		for _, challenge := range rejection.Challenges {
			if !containsString(merged.Challenges, challenge) {
				merged.Challenges = append(merged.Challenges, challenge)
			}
		}
	}
	return merged
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
