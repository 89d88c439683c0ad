// Package redis keeps content blobs in Redis. Entries never expire: a
// reference handed out must keep resolving.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/redis/go-redis/v9"

	"certflow/internal/content"
	"certflow/pkg/platform/sentinel"
)

const keyPrefix = "content:blob:"

type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	id, err := content.ComputeCID(data)
	if err != nil {
		return cid.Undef, err
	}
	if err := s.client.SetNX(ctx, key(id), data, 0).Err(); err != nil {
		return cid.Undef, fmt.Errorf("store content: %w: %w", sentinel.ErrUnavailable, err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	data, err := s.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("content %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load content: %w: %w", sentinel.ErrUnavailable, err)
	}
	return data, nil
}

func (s *Store) Health(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func key(id cid.Cid) string {
	return keyPrefix + id.String()
}

var _ content.Backend = (*Store)(nil)
