package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/parcel-cli/internal/parcel"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testRun() *Run {
	return &Run{
		Region: parcel.Query{
			Center:      &parcel.Coordinate{Lat: 29.58, Lon: -95.76},
			WidthMeters: 5000,
		},
		Filter: parcel.FilterSpec{
			MinYearBuilt:          parcel.Bound(1980),
			RequireConnectedWater: true,
		},
		Partitions: []parcel.PartitionCount{
			{Partition: "FortBendCounty", Records: 42},
		},
		Records: 42,
	}
}

func TestSQLite_RecordAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run := testRun()
	require.NoError(t, st.RecordRun(ctx, run))
	require.NotEmpty(t, run.ID)
	require.False(t, run.CreatedAt.IsZero())

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, 42, got.Records)
	require.NotNil(t, got.Region.Center)
	assert.InDelta(t, 29.58, got.Region.Center.Lat, 1e-9)
	require.NotNil(t, got.Filter.MinYearBuilt)
	assert.Equal(t, 1980.0, *got.Filter.MinYearBuilt)
	assert.True(t, got.Filter.RequireConnectedWater)
	require.Len(t, got.Partitions, 1)
	assert.Equal(t, "FortBendCounty", got.Partitions[0].Partition)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLite_ListRuns_OrderAndLimit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := testRun()
		run.ID = string(rune('a' + i))
		run.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, st.RecordRun(ctx, run))
	}

	runs, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	// Newest first.
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "a", runs[2].ID)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c", limited[0].ID)

	offset, err := st.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, offset, 1)
	assert.Equal(t, "b", offset[0].ID)
}

func TestSQLite_RecordRun_NilPartitions(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run := testRun()
	run.Partitions = nil
	run.Records = 0
	require.NoError(t, st.RecordRun(ctx, run))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Partitions)
}
