package userstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wareease/wareease-web/internal/wareease/signin"
)

const minTTL = time.Second

// RedisStore keeps UserInfo as JSON under "<prefix>:<sessionID>".
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// NewRedisStore constructs a RedisStore. Keys expire retention after the
// token does.
func NewRedisStore(client redis.UniversalClient, prefix string, retention time.Duration) *RedisStore {
	if client == nil {
		panic("userstore: redis client is required")
	}
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "wareease:userinfo"
	}
	return &RedisStore{
		client:    client,
		prefix:    prefix,
		retention: retention,
		now:       time.Now,
	}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, sessionID string, info signin.UserInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("userstore: encode user info: %w", err)
	}

	var ttl time.Duration
	if !info.Expiration.IsZero() {
		ttl = info.Expiration.Sub(s.now()) + s.retention
		if ttl < minTTL {
			ttl = minTTL
		}
	}

	if err := s.client.Set(ctx, s.key(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (signin.UserInfo, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return signin.UserInfo{}, ErrNotFound
		}
		return signin.UserInfo{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var info signin.UserInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return signin.UserInfo{}, fmt.Errorf("userstore: decode user info: %w", err)
	}
	return info, nil
}

// Delete implements Store. Deleting an absent key is not an error.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
