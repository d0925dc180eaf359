package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_ReferenceLifecycle(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	capMin := 50.0
	created, err := s.CreateReference(ctx, model.Reference{
		Name:       "Chalet Wengen",
		Lat:        46.6053,
		Lng:        7.9218,
		Enabled:    true,
		MaxMinutes: &capMin,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Custom)

	got, err := s.GetReference(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chalet Wengen", got.Name)
	assert.True(t, got.Enabled)
	require.NotNil(t, got.MaxMinutes)
	assert.Equal(t, 50.0, *got.MaxMinutes)

	require.NoError(t, s.SetReferenceEnabled(ctx, created.ID, false))
	got, err = s.GetReference(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	refs, err := s.ListReferences(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 1)

	require.NoError(t, s.DeleteReference(ctx, created.ID))
	refs, err = s.ListReferences(ctx)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestSQLiteStore_ReferenceNotFound(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := s.GetReference(ctx, "missing")
	assert.Error(t, err)
	assert.Error(t, s.SetReferenceEnabled(ctx, "missing", true))
	assert.Error(t, s.DeleteReference(ctx, "missing"))
}

func TestSQLiteStore_ReferenceTimes(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	ref, err := s.CreateReference(ctx, model.Reference{Name: "Office", Lat: 47.36, Lng: 8.53, Enabled: true})
	require.NoError(t, err)

	drive := map[string]float64{"plz_8001": 600, "plz_3011": 5400}
	pt := map[string]float64{"plz_8001": 480}
	require.NoError(t, s.SetReferenceTimes(ctx, ref.ID, drive, pt))

	gotDrive, gotPT, err := s.GetReferenceTimes(ctx, ref.ID)
	require.NoError(t, err)
	assert.Equal(t, drive, gotDrive)
	assert.Equal(t, pt, gotPT)

	// Upsert replaces the stored maps.
	require.NoError(t, s.SetReferenceTimes(ctx, ref.ID, map[string]float64{"plz_8001": 700}, pt))
	gotDrive, _, err = s.GetReferenceTimes(ctx, ref.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"plz_8001": 700}, gotDrive)
}

func TestSQLiteStore_ReferenceTimes_Missing(t *testing.T) {
	s := newTestSQLiteStore(t)

	drive, pt, err := s.GetReferenceTimes(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, drive)
	assert.Nil(t, pt)
}

func TestSQLiteStore_Snapshots(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	lo, hi := 12.5, 88.0
	snap, err := s.CreateSnapshot(ctx, model.Snapshot{
		Params: model.DefaultParams(),
		RefIDs: []string{"zurich", "bern"},
		Summary: model.SnapshotSummary{
			Areas:    3181,
			Scored:   3000,
			Excluded: 181,
			MinScore: &lo,
			MaxScore: &hi,
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.False(t, snap.CreatedAt.IsZero())

	got, err := s.GetSnapshot(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"zurich", "bern"}, got.RefIDs)
	assert.Equal(t, 0.7, got.Params.PTFactor)
	assert.Equal(t, 3181, got.Summary.Areas)
	require.NotNil(t, got.Summary.MinScore)
	assert.Equal(t, 12.5, *got.Summary.MinScore)

	list, err := s.ListSnapshots(ctx, SnapshotFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = s.ListSnapshots(ctx, SnapshotFilter{Limit: 10, Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSQLiteStore_GetSnapshot_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.GetSnapshot(context.Background(), "missing")
	assert.Error(t, err)
}
