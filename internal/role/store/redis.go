package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"certflow/internal/role/models"
	"certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
)

const keyPrefix = "role:resolution:"

// Redis shares resolutions across replicas so an invalidation on one
// replica is seen by all.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, id domain.Identity) (models.Resolution, error) {
	data, err := r.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Resolution{}, fmt.Errorf("resolution for %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.Resolution{}, fmt.Errorf("read resolution: %w: %w", sentinel.ErrUnavailable, err)
	}
	var res models.Resolution
	if err := json.Unmarshal(data, &res); err != nil {
		return models.Resolution{}, fmt.Errorf("decode resolution: %w", err)
	}
	return res, nil
}

func (r *Redis) Put(ctx context.Context, res models.Resolution) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode resolution: %w", err)
	}
	if err := r.client.Set(ctx, key(res.Identity), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("write resolution: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, id domain.Identity) error {
	if err := r.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("invalidate resolution: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func key(id domain.Identity) string {
	return keyPrefix + id.String()
}
