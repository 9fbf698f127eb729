package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/redfield-bmc/redfield/internal/authn"
	"github.com/redfield-bmc/redfield/internal/privilege"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions in Redis with a server-side TTL matching the
// absolute session lifetime. An alternative to MemoryStore for deployments
// that want sessions to survive a process restart; atomicity between Create,
// Lookup and Revoke comes from Redis command semantics.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

type redisPayload struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRedisStore constructs a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

// Create implements Store. SET NX guards against the negligible chance of a
// token collision.
func (s *RedisStore) Create(ctx context.Context, principal authn.Principal) (Session, error) {
	payload := redisPayload{
		Username:  principal.Username,
		Role:      principal.Role.String(),
		CreatedAt: s.now().UTC(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Session{}, err
	}
	for {
		token := newToken()
		set, err := s.client.SetNX(ctx, redisKeyPrefix+token, data, s.ttl).Result()
		if err != nil {
			return Session{}, err
		}
		if set {
			return Session{Token: token, Principal: principal, CreatedAt: payload.CreatedAt}, nil
		}
	}
}

// Lookup implements Store.
func (s *RedisStore) Lookup(ctx context.Context, token string) (*authn.Principal, error) {
	sess, err := s.Get(ctx, token)
	if err != nil || sess == nil {
		return nil, err
	}
	principal := sess.Principal
	return &principal, nil
}

// Get implements Store. Redis expiry is authoritative but CreatedAt is still
// checked so semantics match MemoryStore exactly.
func (s *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	sess, err := s.decode(token, data)
	if err != nil {
		return nil, err
	}
	if s.now().Sub(sess.CreatedAt) > s.ttl {
		return nil, nil
	}
	return sess, nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context) ([]Session, error) {
	var (
		sessions []Session
		cursor   uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			token := key[len(redisKeyPrefix):]
			sess, err := s.Get(ctx, token)
			if err != nil {
				return nil, err
			}
			if sess != nil {
				sessions = append(sessions, *sess)
			}
		}
		cursor = next
		if cursor == 0 {
			return sessions, nil
		}
	}
}

// Revoke implements Store.
func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	err := s.client.Del(ctx, redisKeyPrefix+token).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (s *RedisStore) decode(token string, data []byte) (*Session, error) {
	var payload redisPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	role, err := privilege.ParseRole(payload.Role)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		Principal: authn.Principal{Username: payload.Username, Role: role},
		CreatedAt: payload.CreatedAt,
	}, nil
}

var _ Store = (*RedisStore)(nil)
