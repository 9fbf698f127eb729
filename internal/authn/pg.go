package authn

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/redfield-bmc/redfield/internal/privilege"
)

// AccountAuthenticator verifies credentials against the accounts table. The
// role column stores the identity provider's vocabulary and is translated
// through the role-map.
type AccountAuthenticator struct {
	pool  *pgxpool.Pool
	roles *privilege.RoleMap
}

// NewAccountAuthenticator constructs a database-backed authenticator.
func NewAccountAuthenticator(pool *pgxpool.Pool, roles *privilege.RoleMap) *AccountAuthenticator {
	return &AccountAuthenticator{pool: pool, roles: roles}
}

// Verify looks up the account and checks the secret against its bcrypt hash.
func (a *AccountAuthenticator) Verify(ctx context.Context, username, secret string) (Principal, error) {
	var (
		passwordHash string
		roleName     string
		enabled      bool
	)
	err := a.pool.QueryRow(ctx,
		`SELECT password_hash, role, enabled FROM accounts WHERE username = $1`,
		username,
	).Scan(&passwordHash, &roleName, &enabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, err
	}
	if !enabled {
		return Principal{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(secret)); err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	role, ok := a.roles.FromExternal(roleName)
	if !ok {
		// A stored role outside the map is an operator mistake, not a caller
		// one; surface it so it gets logged rather than mapped to 401.
		return Principal{}, errors.New("authn: account role not in role-map: " + roleName)
	}
	return Principal{Username: username, Role: role}, nil
}

var _ Authenticator = (*AccountAuthenticator)(nil)
