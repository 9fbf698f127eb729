package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/redfield-bmc/redfield/internal/authn"
	"github.com/redfield-bmc/redfield/internal/privilege"
	"github.com/redfield-bmc/redfield/internal/session"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*session.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return session.NewRedisStore(client, ttl), mr
}

func TestRedisStoreCreateLookupRevoke(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)
	principal := authn.Principal{Username: "alice", Role: privilege.ConfigureComponents}

	sess, err := store.Create(context.Background(), principal)
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)

	found, err := store.Lookup(context.Background(), sess.Token)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, principal, *found)

	require.NoError(t, store.Revoke(context.Background(), sess.Token))
	found, err = store.Lookup(context.Background(), sess.Token)
	require.NoError(t, err)
	require.Nil(t, found)

	require.NoError(t, store.Revoke(context.Background(), sess.Token))
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)

	sess, err := store.Create(context.Background(), authn.Principal{Username: "bob", Role: privilege.ReadOnly})
	require.NoError(t, err)

	mr.FastForward(61 * time.Second)

	found, err := store.Lookup(context.Background(), sess.Token)
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestRedisStoreList(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)

	for _, name := range []string{"a", "b", "c"} {
		_, err := store.Create(context.Background(), authn.Principal{Username: name, Role: privilege.ReadOnly})
		require.NoError(t, err)
	}

	sessions, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 3)
}
