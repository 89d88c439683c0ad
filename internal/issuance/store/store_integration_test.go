//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certflow/internal/issuance/models"
	"certflow/pkg/platform/sentinel"
	"certflow/pkg/testutil"
	"certflow/pkg/testutil/containers"
)

func TestRedisCheckpoints(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))
	store := NewRedisCheckpoints(rc.Client, time.Minute)

	_, err := store.Get(ctx, 5)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	cp := models.Checkpoint{
		RequestID:       5,
		Institute:       testutil.Institute,
		ImageRef:        "ipfs://img",
		MetadataRef:     "ipfs://meta",
		CertificateType: "Degree",
		Name:            "BSc",
		InstitutionName: "Example University",
	}
	require.NoError(t, store.Save(ctx, cp))

	ttl, err := rc.Client.TTL(ctx, checkpointKey(5)).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)

	got, err := store.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, cp.MetadataRef, got.MetadataRef)
	assert.Equal(t, cp.Institute, got.Institute)

	require.NoError(t, store.Delete(ctx, 5))
	_, err = store.Get(ctx, 5)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresCancellations(t *testing.T) {
	pg := containers.GetManager().GetPostgres(t)
	ctx := context.Background()
	require.NoError(t, pg.TruncateTables(ctx, "request_cancellations"))
	store := NewPostgresCancellations(pg.DB)

	_, err := store.Get(ctx, 9)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(ctx, models.Cancellation{
		RequestID:   9,
		Student:     testutil.Student,
		Institute:   testutil.Institute,
		Kind:        models.CancelRejected,
		Note:        "transcript missing",
		CancelledBy: testutil.Institute,
		TxHash:      "0xabc",
		CancelledAt: at,
	}))
	require.NoError(t, store.Record(ctx, models.Cancellation{
		RequestID: 9, Student: testutil.Student, Institute: testutil.Institute,
		Kind: models.CancelWithdrawn, CancelledBy: testutil.Student,
	}))

	got, err := store.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, models.CancelRejected, got.Kind)
	assert.Equal(t, "transcript missing", got.Note)
	assert.Equal(t, testutil.Institute, got.CancelledBy)
	assert.True(t, at.Equal(got.CancelledAt))

	require.NoError(t, store.Record(ctx, models.Cancellation{
		RequestID: 10, Student: testutil.Student, Institute: testutil.Institute,
		Kind: models.CancelWithdrawn, CancelledBy: testutil.Student,
	}))
	got, err = store.Get(ctx, 10)
	require.NoError(t, err)
	assert.False(t, got.CancelledAt.IsZero())
}
