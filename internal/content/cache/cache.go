// Package cache puts a Redis read-through cache in front of a content
// backend. Blobs are immutable, so entries are never invalidated; the TTL
// only bounds memory.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/redis/go-redis/v9"

	"certflow/internal/content"
	"certflow/internal/content/metrics"
)

const keyPrefix = "content:cache:"

type Backend struct {
	next    content.Backend
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Backend)

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Backend) {
		b.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

func New(next content.Backend, client *redis.Client, ttl time.Duration, opts ...Option) *Backend {
	b := &Backend{next: next, client: client, ttl: ttl}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Put writes through to the wrapped backend and primes the cache.
func (b *Backend) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	id, err := b.next.Put(ctx, data)
	if err != nil {
		return cid.Undef, err
	}
	b.store(ctx, id, data)
	return id, nil
}

// Get serves from Redis when it can. Cache failures fall back to the
// wrapped backend.
func (b *Backend) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	data, err := b.client.Get(ctx, key(id)).Bytes()
	switch {
	case err == nil:
		if content.Verify(id, data) == nil {
			b.hit()
			return data, nil
		}
		b.warn(ctx, "content_cache_entry_corrupt", "cid", id.String())
	case errors.Is(err, redis.Nil):
	default:
		b.warn(ctx, "content_cache_read_failed", "cid", id.String(), "error", err)
	}
	b.miss()

	data, err = b.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if content.Verify(id, data) == nil {
		b.store(ctx, id, data)
	}
	return data, nil
}

func (b *Backend) Health(ctx context.Context) error {
	return b.next.Health(ctx)
}

func (b *Backend) store(ctx context.Context, id cid.Cid, data []byte) {
	if err := b.client.Set(ctx, key(id), data, b.ttl).Err(); err != nil {
		b.warn(ctx, "content_cache_write_failed", "cid", id.String(), "error", err)
	}
}

func (b *Backend) hit() {
	if b.metrics != nil {
		b.metrics.RecordCacheHit()
	}
}

func (b *Backend) miss() {
	if b.metrics != nil {
		b.metrics.RecordCacheMiss()
	}
}

func (b *Backend) warn(ctx context.Context, msg string, args ...any) {
	if b.logger != nil {
		b.logger.WarnContext(ctx, msg, args...)
	}
}

func key(id cid.Cid) string {
	return keyPrefix + id.String()
}

var _ content.Backend = (*Backend)(nil)
