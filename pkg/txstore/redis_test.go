package txstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withRedisStore(t *testing.T, fn func(t *testing.T, s *RedisStore)) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	fn(t, s)
}

func TestRedisStore_AuthorizationRequest_CreateGetDelete(t *testing.T) {
	t.Parallel()
	withRedisStore(t, func(t *testing.T, s *RedisStore) {
		ctx := context.Background()
		req := &AuthorizationRequest{
			StateRef:  "state-1",
			ClientID:  "rp-client",
			ExpiresAt: time.Now().Add(time.Minute),
		}
		require.NoError(t, s.CreateAuthorizationRequest(ctx, req))
		assert.ErrorIs(t, s.CreateAuthorizationRequest(ctx, req), ErrAlreadyExists)

		got, err := s.GetAuthorizationRequest(ctx, "state-1")
		require.NoError(t, err)
		assert.Equal(t, "rp-client", got.ClientID)

		require.NoError(t, s.DeleteAuthorizationRequest(ctx, "state-1"))
		_, err = s.GetAuthorizationRequest(ctx, "state-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRedisStore_AuthorizationCode_ConsumeIsSingleUse(t *testing.T) {
	t.Parallel()
	withRedisStore(t, func(t *testing.T, s *RedisStore) {
		ctx := context.Background()
		code := &AuthorizationCode{
			Code:      "code-1",
			ClientID:  "rp-client",
			ExpiresAt: time.Now().Add(time.Minute),
		}
		require.NoError(t, s.CreateAuthorizationCode(ctx, code))

		got, err := s.ConsumeAuthorizationCode(ctx, "code-1")
		require.NoError(t, err)
		assert.Equal(t, "rp-client", got.ClientID)

		_, err = s.ConsumeAuthorizationCode(ctx, "code-1")
		assert.ErrorIs(t, err, ErrConsumed)
	})
}

func TestRedisStore_RefreshChain_ConsumeIsSingleUse(t *testing.T) {
	t.Parallel()
	withRedisStore(t, func(t *testing.T, s *RedisStore) {
		ctx := context.Background()
		chain := &RefreshChain{
			ChainID:   "chain-1",
			Subject:   "42",
			ExpiresAt: time.Now().Add(time.Minute),
		}
		require.NoError(t, s.CreateRefreshChain(ctx, chain))

		got, err := s.ConsumeRefreshChain(ctx, "chain-1")
		require.NoError(t, err)
		assert.Equal(t, "42", got.Subject)

		_, err = s.ConsumeRefreshChain(ctx, "chain-1")
		assert.ErrorIs(t, err, ErrConsumed)
	})
}

func TestRedisStore_ConsumeUnknown(t *testing.T) {
	t.Parallel()
	withRedisStore(t, func(t *testing.T, s *RedisStore) {
		ctx := context.Background()
		_, err := s.ConsumeAuthorizationCode(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRedisStore_Stats(t *testing.T) {
	t.Parallel()
	withRedisStore(t, func(t *testing.T, s *RedisStore) {
		ctx := context.Background()
		require.NoError(t, s.CreateAuthorizationRequest(ctx, &AuthorizationRequest{StateRef: "s1", ExpiresAt: time.Now().Add(time.Minute)}))
		require.NoError(t, s.CreateAuthorizationCode(ctx, &AuthorizationCode{Code: "c1", ExpiresAt: time.Now().Add(time.Minute)}))
		require.NoError(t, s.CreateRefreshChain(ctx, &RefreshChain{ChainID: "r1", ExpiresAt: time.Now().Add(time.Minute)}))

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, Stats{AuthorizationRequests: 1, AuthorizationCodes: 1, RefreshChains: 1}, stats)
	})
}

func TestRedisStore_ExpiredAuthorizationCodeIsGone(t *testing.T) {
	t.Parallel()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client)
	defer func() { require.NoError(t, s.Close()) }()

	ctx := context.Background()
	code := &AuthorizationCode{Code: "soon", ExpiresAt: time.Now().Add(time.Second)}
	require.NoError(t, s.CreateAuthorizationCode(ctx, code))

	mr.FastForward(2 * time.Second)

	_, err = s.ConsumeAuthorizationCode(ctx, "soon")
	assert.ErrorIs(t, err, ErrNotFound, "redis TTL expiry removes the key outright")
}
