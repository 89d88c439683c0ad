//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"certflow/internal/ledger"
	"certflow/internal/ledger/ledgertest"
	"certflow/pkg/testutil"
	"certflow/pkg/testutil/containers"
)

func TestPostgresBackend(t *testing.T) {
	pg := containers.GetManager().GetPostgres(t)

	suite.Run(t, &ledgertest.BackendSuite{
		NewBackend: func() ledger.Backend {
			ctx := context.Background()
			require.NoError(t, pg.TruncateAll(ctx))
			b, err := New(ctx, pg.DB, testutil.Admin)
			require.NoError(t, err)
			return b
		},
	})
}

// TestNew_RejectsOwnerMismatch verifies a deployed ledger keeps its owner.
func TestNew_RejectsOwnerMismatch(t *testing.T) {
	pg := containers.GetManager().GetPostgres(t)
	ctx := context.Background()
	require.NoError(t, pg.TruncateAll(ctx))

	_, err := New(ctx, pg.DB, testutil.Admin)
	require.NoError(t, err)

	_, err = New(ctx, pg.DB, testutil.Stranger)
	require.Error(t, err)

	again, err := New(ctx, pg.DB, testutil.Admin)
	require.NoError(t, err)
	owner, err := again.Owner(ctx)
	require.NoError(t, err)
	require.Equal(t, testutil.Admin, owner)
}
