package reftable_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/medscore/internal/db"
	"github.com/mind-engage/medscore/internal/reftable"
)

func openSQLite(t *testing.T) *reftable.SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "ref.db") + "?_pragma=busy_timeout(5000)"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbh.Close() })
	return reftable.NewSQLStore(dbh, "sqlite:test")
}

func TestSQLStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	src, err := reftable.LoadCSV("testdata/conditions.csv", reftable.DefaultLayout())
	require.NoError(t, err)
	require.NoError(t, store.Replace(ctx, src))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, src.Len(), got.Len())
	assert.Equal(t, "sqlite:test", got.Stats().Source)

	want := src.Entries()
	have := got.Entries()
	require.Len(t, have, len(want))
	for i := range want {
		assert.Equal(t, want[i].Name, have[i].Name)
		assert.InDelta(t, want[i].RAF, have[i].RAF, 1e-9)
	}

	raf, ok := got.Lookup(" DIABETES ")
	require.True(t, ok)
	assert.InDelta(t, 0.30, raf, 1e-9)
}

func TestSQLStoreReplaceOverwrites(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	first := reftable.FromEntries("one", reftable.KeepLast, []reftable.Entry{
		{Description: "Flu", RAF: 0.1},
		{Description: "Gout", RAF: 0.3},
	})
	second := reftable.FromEntries("two", reftable.KeepLast, []reftable.Entry{
		{Description: "COPD", RAF: 0.4},
	})
	require.NoError(t, store.Replace(ctx, first))
	require.NoError(t, store.Replace(ctx, second))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
	_, ok := got.Lookup("flu")
	assert.False(t, ok)
}

func TestSQLStoreEmpty(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, reftable.ErrEmptyTable)
	require.ErrorIs(t, store.Replace(ctx, &reftable.Table{}), reftable.ErrEmptyTable)
}

func TestSQLStoreHistory(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	hist, err := store.History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, hist)

	src, err := reftable.LoadCSV("testdata/conditions.csv", reftable.DefaultLayout())
	require.NoError(t, err)
	require.NoError(t, store.Replace(ctx, src))
	require.NoError(t, store.Replace(ctx, reftable.FromEntries("manual", reftable.KeepLast, []reftable.Entry{
		{Description: "COPD", RAF: 0.4},
	})))

	hist, err = store.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "manual", hist[0].Stats.Source)
	assert.Equal(t, 1, hist[0].Stats.Loaded)
	assert.Equal(t, src.Stats(), hist[1].Stats)
	assert.Greater(t, hist[0].ID, hist[1].ID)
	assert.False(t, hist[1].ImportedAt.IsZero())

	hist, err = store.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "manual", hist[0].Stats.Source)
}

func TestSQLStoreFailedReplaceLeavesNoHistory(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	require.ErrorIs(t, store.Replace(ctx, &reftable.Table{}), reftable.ErrEmptyTable)
	hist, err := store.History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, hist)
}
