package userstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/wareease/wareease-web/internal/wareease/autologout"
	"github.com/wareease/wareease-web/internal/wareease/signin"
)

var now = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func sampleInfo(exp time.Time) signin.UserInfo {
	return signin.UserInfo{
		Email:      "manager@wareease.test",
		Password:   "Secret1!",
		Roles:      []string{"Manager", "Staff"},
		Token:      "header.payload.sig",
		Expiration: exp,
	}
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisStore(rdb, "test:userinfo:", 10*time.Minute)
	store.now = func() time.Time { return now }
	return store, mr
}

func TestRedisStoreRoundTripAndTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	info := sampleInfo(now.Add(time.Hour))

	require.NoError(t, store.Put(ctx, "sid-1", info))
	require.True(t, mr.Exists("test:userinfo:sid-1"))
	require.Equal(t, 70*time.Minute, mr.TTL("test:userinfo:sid-1"))

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.Equal(t, info.Email, got.Email)
	require.Equal(t, info.Roles, got.Roles)
	require.Equal(t, info.Token, got.Token)
	require.True(t, got.Expiration.Equal(info.Expiration))
}

func TestRedisStoreExpiresKeys(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sid-1", sampleInfo(now.Add(time.Minute))))
	mr.FastForward(12 * time.Minute)

	_, err := store.Get(ctx, "sid-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreDeleteIsIdempotent(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sid-1", sampleInfo(now.Add(time.Hour))))
	require.NoError(t, store.Delete(ctx, "sid-1"))
	require.NoError(t, store.Delete(ctx, "sid-1"))

	_, err := store.Get(ctx, "sid-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	err := store.Put(context.Background(), "sid-1", sampleInfo(now.Add(time.Hour)))
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestMemoryStoreRetention(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	clock := now
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sid-1", sampleInfo(now.Add(time.Minute))))
	clock = now.Add(90 * time.Second)
	_, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)

	clock = now.Add(3 * time.Minute)
	_, err = store.Get(ctx, "sid-1")
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, store.Len())
}

func TestMemoryStoreCopiesRoles(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	info := sampleInfo(time.Time{})

	require.NoError(t, store.Put(ctx, "sid-1", info))
	info.Roles[0] = "Admin"

	got, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	require.Equal(t, []string{"Manager", "Staff"}, got.Roles)
}

func TestBindingTokenStates(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	store.now = func() time.Time { return now }
	clock := now
	b := Bind(store, "sid-1", func() time.Time { return clock })
	ctx := context.Background()

	tok, err := b.AuthToken(ctx)
	require.NoError(t, err)
	require.Empty(t, tok)
	d, err := b.AuthTokenDuration(ctx)
	require.NoError(t, err)
	require.Zero(t, d)

	require.NoError(t, b.SetUserInfo(ctx, sampleInfo(now.Add(10*time.Minute))))
	tok, err = b.AuthToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "header.payload.sig", tok)
	d, err = b.AuthTokenDuration(ctx)
	require.NoError(t, err)
	require.Equal(t, 10*time.Minute, d)

	clock = now.Add(10 * time.Minute)
	tok, err = b.AuthToken(ctx)
	require.NoError(t, err)
	require.Equal(t, autologout.ExpiredToken, tok)
	d, err = b.AuthTokenDuration(ctx)
	require.NoError(t, err)
	require.Zero(t, d)
}

func TestExpiredBindingTriggersRevocation(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	store.now = func() time.Time { return now }
	b := Bind(store, "sid-1", func() time.Time { return now.Add(2 * time.Hour) })
	ctx := context.Background()
	require.NoError(t, b.SetUserInfo(ctx, sampleInfo(now.Add(time.Hour))))

	sched := autologout.NewScheduler(Revoker{Store: store})
	t.Cleanup(sched.Close)

	state, _, err := sched.Check(ctx, b.SessionID(), b)
	require.NoError(t, err)
	require.Equal(t, autologout.StateExpiredToken, state)

	_, err = b.UserInfo(ctx)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBindingClear(t *testing.T) {
	store, _ := newRedisStore(t)
	b := Bind(store, "sid-2", func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, b.SetUserInfo(ctx, sampleInfo(now.Add(time.Hour))))
	require.NoError(t, b.Clear(ctx))

	tok, err := b.AuthToken(ctx)
	require.NoError(t, err)
	require.Empty(t, tok)
	require.NoError(t, b.Clear(ctx))
}
