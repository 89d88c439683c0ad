//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certflow/internal/session"
	"certflow/pkg/platform/sentinel"
	"certflow/pkg/testutil"
	"certflow/pkg/testutil/containers"
)

func TestRedisChallenges_ConsumeOnce(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))
	store := NewRedis(rc.Client)

	now := time.Now().UTC()
	c := session.Challenge{
		Identity:  testutil.Student,
		Nonce:     "abc",
		Message:   "sign me",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Minute),
	}
	require.NoError(t, store.Save(ctx, c))

	ttl, err := rc.Client.TTL(ctx, challengeKey(c.Identity)).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)

	result := testutil.RunConcurrent(8, func(int) error {
		_, err := store.Consume(ctx, c.Identity)
		return err
	})
	assert.Equal(t, int32(1), result.Successes, "a challenge is consumed once")
	assert.Equal(t, int32(7), result.NotFounds)

	_, err = store.Consume(ctx, c.Identity)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisChallenges_RejectsExpired(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	store := NewRedis(rc.Client)
	err := store.Save(context.Background(), session.Challenge{
		Identity:  testutil.Student,
		ExpiresAt: time.Now().Add(-time.Second),
	})
	require.Error(t, err)
}

func TestRedisRevocations(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))
	revocations := NewRedisRevocations(rc.Client)

	revoked, err := revocations.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, revocations.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = revocations.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}
