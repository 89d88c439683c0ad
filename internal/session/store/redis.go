package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"certflow/internal/session"
	"certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
)

const challengeKeyPrefix = "session:challenge:"

// Redis keeps challenges with their expiry as the key TTL. GETDEL makes
// consumption single-use across replicas.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Save(ctx context.Context, c session.Challenge) error {
	ttl := time.Until(c.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("challenge already expired")
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}
	if err := r.client.Set(ctx, challengeKey(c.Identity), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save challenge: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) Consume(ctx context.Context, id domain.Identity) (session.Challenge, error) {
	data, err := r.client.GetDel(ctx, challengeKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Challenge{}, fmt.Errorf("challenge for %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return session.Challenge{}, fmt.Errorf("consume challenge: %w: %w", sentinel.ErrUnavailable, err)
	}
	var c session.Challenge
	if err := json.Unmarshal(data, &c); err != nil {
		return session.Challenge{}, fmt.Errorf("decode challenge: %w", err)
	}
	return c, nil
}

func challengeKey(id domain.Identity) string {
	return challengeKeyPrefix + id.String()
}

const revokedKeyPrefix = "session:revoked:"

// RedisRevocations shares revoked token ids across replicas.
type RedisRevocations struct {
	client *redis.Client
}

func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

func (r *RedisRevocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := r.client.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w: %w", sentinel.ErrUnavailable, err)
	}
	return n > 0, nil
}
