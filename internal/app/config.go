package app

import (
	"errors"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Authentication method names accepted in AUTH_METHODS.
const (
	MethodBasic   = "basic"
	MethodSession = "session"
)

// Config holds runtime configuration for the service.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	ServiceName string `envconfig:"SERVICE_NAME" default:"Redfield Management Service"`
	ServiceID   string `envconfig:"SERVICE_ID" default:"RootService"`

	// AuthMethods lists enabled authentication strategies in the order the
	// combined strategy tries them.
	AuthMethods []string `envconfig:"AUTH_METHODS" default:"session,basic"`
	BasicRealm  string   `envconfig:"BASIC_REALM" default:"redfield"`

	SessionTTL           time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	SessionMax           int           `envconfig:"SESSION_MAX" default:"64"`
	SessionTokenHeader   string        `envconfig:"SESSION_TOKEN_HEADER" default:"X-Auth-Token"`
	SessionCookieName    string        `envconfig:"SESSION_COOKIE_NAME" default:"redfield_session"`
	SessionBackend       string        `envconfig:"SESSION_BACKEND" default:"memory"`
	SessionSweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"5m"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	// PGDSN, when set, selects the database-backed authenticator; otherwise
	// accounts come from AccountsPath.
	PGDSN        string `envconfig:"PG_DSN" default:""`
	AccountsPath string `envconfig:"ACCOUNTS_PATH" default:""`
	RoleMapPath  string `envconfig:"ROLE_MAP_PATH" default:""`

	// LoginRateLimit caps session-creation attempts per client IP per minute.
	LoginRateLimit int `envconfig:"LOGIN_RATE_LIMIT" default:"10"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if len(cfg.AuthMethods) == 0 {
		return nil, errors.New("at least one authentication method must be enabled")
	}
	for _, method := range cfg.AuthMethods {
		switch strings.TrimSpace(method) {
		case MethodBasic, MethodSession:
		default:
			return nil, errors.New("unknown authentication method: " + method)
		}
	}
	if cfg.SessionBackend != "memory" && cfg.SessionBackend != "redis" {
		return nil, errors.New("session backend must be memory or redis")
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("session TTL must be positive")
	}
	if cfg.PGDSN == "" && cfg.AccountsPath == "" {
		return nil, errors.New("either PG_DSN or ACCOUNTS_PATH must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the service runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
