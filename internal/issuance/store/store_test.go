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
)

func TestMemoryCheckpoints_Expire(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := NewMemoryCheckpoints(time.Hour, WithClock(clock))
	ctx := context.Background()

	cp := models.Checkpoint{RequestID: 7, Institute: testutil.Institute, ImageRef: "ipfs://img"}
	require.NoError(t, store.Save(ctx, cp))

	got, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://img", got.ImageRef)
	assert.Equal(t, now, got.UpdatedAt)

	now = now.Add(time.Hour)
	_, err = store.Get(ctx, 7)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryCheckpoints_Delete(t *testing.T) {
	store := NewMemoryCheckpoints(time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, models.Checkpoint{RequestID: 1}))
	require.NoError(t, store.Delete(ctx, 1))
	require.NoError(t, store.Delete(ctx, 1))

	_, err := store.Get(ctx, 1)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryCancellations_FirstRecordWins(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryCancellations(WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := store.Get(ctx, 3)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, store.Record(ctx, models.Cancellation{RequestID: 3, Kind: models.CancelWithdrawn, CancelledBy: testutil.Student}))
	require.NoError(t, store.Record(ctx, models.Cancellation{RequestID: 3, Kind: models.CancelRejected, CancelledBy: testutil.Institute}))

	got, err := store.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, models.CancelWithdrawn, got.Kind)
	assert.Equal(t, now, got.CancelledAt)
}
