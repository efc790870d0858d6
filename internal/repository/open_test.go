package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivanoskov/finance_dashboard/internal/model"
)

func TestOpenSQLiteSeedsProfile(t *testing.T) {
	ctx := context.Background()
	repo, closeFn, err := Open(ctx, Options{
		Backend:     BackendSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "local.db"),
		SeedProfile: &model.UserProfile{ID: "local", Currency: "EUR"},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { closeFn() })

	profile, err := repo.GetProfile(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, "EUR", profile.CurrencyCode())
}

func TestOpenSupabase(t *testing.T) {
	repo, closeFn, err := Open(context.Background(), Options{
		Backend:     BackendSupabase,
		SupabaseURL: "http://localhost:54321",
		SupabaseKey: "key",
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SupabaseRepository{}, repo)
	assert.NoError(t, closeFn())
}

func TestOpenUnknownBackend(t *testing.T) {
	_, _, err := Open(context.Background(), Options{Backend: "mongo"}, nil)
	assert.ErrorContains(t, err, "unsupported backend type")
	assert.False(t, Backend("mongo").IsValid())
	assert.True(t, BackendSQLite.IsValid())
}
