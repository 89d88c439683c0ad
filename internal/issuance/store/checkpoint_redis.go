package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"certflow/internal/issuance/models"
	"certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
)

const checkpointPrefix = "issuance:checkpoint:"

// RedisCheckpoints lets any replica resume an approval another replica
// started.
type RedisCheckpoints struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisCheckpoints(client *redis.Client, ttl time.Duration, opts ...Option) *RedisCheckpoints {
	o := buildOptions(opts)
	return &RedisCheckpoints{client: client, ttl: ttl, now: o.now}
}

func (r *RedisCheckpoints) Get(ctx context.Context, id domain.RequestID) (models.Checkpoint, error) {
	data, err := r.client.Get(ctx, checkpointKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Checkpoint{}, fmt.Errorf("checkpoint for request %d: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.Checkpoint{}, fmt.Errorf("read checkpoint: %w: %w", sentinel.ErrUnavailable, err)
	}
	var cp models.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return models.Checkpoint{}, fmt.Errorf("decode checkpoint: %w", err)
	}
	return cp, nil
}

func (r *RedisCheckpoints) Save(ctx context.Context, cp models.Checkpoint) error {
	cp.UpdatedAt = r.now()
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := r.client.Set(ctx, checkpointKey(cp.RequestID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("write checkpoint: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (r *RedisCheckpoints) Delete(ctx context.Context, id domain.RequestID) error {
	if err := r.client.Del(ctx, checkpointKey(id)).Err(); err != nil {
		return fmt.Errorf("delete checkpoint: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func checkpointKey(id domain.RequestID) string {
	return checkpointPrefix + strconv.FormatUint(uint64(id), 10)
}
