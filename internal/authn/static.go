package authn

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/redfield-bmc/redfield/internal/privilege"
)

// Account is a statically configured credential record.
type Account struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
	Disabled     bool   `yaml:"disabled"`
}

type accountsFile struct {
	Accounts []Account `yaml:"accounts"`
}

type staticAccount struct {
	passwordHash string
	role         privilege.Role
	disabled     bool
}

// StaticAuthenticator verifies credentials against accounts loaded from
// configuration. Read-only after construction; safe for concurrent use.
type StaticAuthenticator struct {
	accounts map[string]staticAccount
}

// NewStaticAuthenticator builds an authenticator from account records. Role
// names are translated through the role-map so externally provisioned files
// may use provider vocabulary.
func NewStaticAuthenticator(accounts []Account, roles *privilege.RoleMap) (*StaticAuthenticator, error) {
	byName := make(map[string]staticAccount, len(accounts))
	for _, account := range accounts {
		if account.Username == "" || account.PasswordHash == "" {
			return nil, fmt.Errorf("authn: account requires username and password_hash")
		}
		role, ok := roles.FromExternal(account.Role)
		if !ok {
			return nil, fmt.Errorf("authn: account %q has unmapped role %q", account.Username, account.Role)
		}
		if _, exists := byName[account.Username]; exists {
			return nil, fmt.Errorf("authn: duplicate account %q", account.Username)
		}
		byName[account.Username] = staticAccount{
			passwordHash: account.PasswordHash,
			role:         role,
			disabled:     account.Disabled,
		}
	}
	return &StaticAuthenticator{accounts: byName}, nil
}

// LoadAccounts reads account records from a YAML file.
func LoadAccounts(path string) ([]Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file accountsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("authn: parse accounts %s: %w", path, err)
	}
	return file.Accounts, nil
}

// Verify checks the secret against the stored bcrypt hash.
func (a *StaticAuthenticator) Verify(ctx context.Context, username, secret string) (Principal, error) {
	account, ok := a.accounts[username]
	if !ok || account.disabled {
		return Principal{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.passwordHash), []byte(secret)); err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	return Principal{Username: username, Role: account.role}, nil
}

var _ Authenticator = (*StaticAuthenticator)(nil)
