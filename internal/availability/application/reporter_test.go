package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lcatricity/internal/apperr"
	genapp "lcatricity/internal/generation/application"
	generation "lcatricity/internal/generation/domain"
	referencedata "lcatricity/internal/referencedata/domain"
	"lcatricity/internal/storage/memory"
)

func newTestReporter(t *testing.T, regions int) *Reporter {
	t.Helper()
	store := memory.NewStore()
	for i := 1; i <= regions; i++ {
		store.AddRegion(referencedata.Region{ID: int64(i), Code: fmt.Sprintf("R%03d", i)})
	}
	day := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	_, _, err := store.ReplaceGeneration(context.Background(), 1, 4, []generation.Point{
		{Timestamp: day, AggregatedGeneration: 1},
		{Timestamp: day.Add(15 * time.Minute), AggregatedGeneration: 2},
		{Timestamp: day.AddDate(0, 0, 3), AggregatedGeneration: 3},
	})
	require.NoError(t, err)

	resolver, err := genapp.NewRegionResolver(store, nil)
	require.NoError(t, err)
	reporter, err := NewReporter(store, resolver, 0, 0)
	require.NoError(t, err)
	return reporter
}

func TestRegionCoverage(t *testing.T) {
	reporter := newTestReporter(t, 2)

	rows, err := reporter.RegionCoverage(context.Background(), "", "", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "R001", rows[0].RegionCode)
	assert.Equal(t, int64(3), rows[0].CountDataPoints)
	assert.Equal(t, "R002", rows[1].RegionCode)
	assert.Zero(t, rows[1].CountDataPoints)
	assert.Nil(t, rows[1].EarliestTimestamp)
	assert.Nil(t, rows[1].LatestTimestamp)
}

func TestRegionCoverageWithWindow(t *testing.T) {
	reporter := newTestReporter(t, 1)

	rows, err := reporter.RegionCoverage(context.Background(), "2023-01-01", "2023-01-02", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].CountDataPoints)

	_, err = reporter.RegionCoverage(context.Background(), "", "2023-01-02", 0)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRegionCoverageClampsMaxRows(t *testing.T) {
	reporter := newTestReporter(t, 250)
	ctx := context.Background()

	rows, err := reporter.RegionCoverage(ctx, "", "", 5)
	require.NoError(t, err)
	assert.Len(t, rows, 5)

	rows, err = reporter.RegionCoverage(ctx, "", "", 200)
	require.NoError(t, err)
	assert.Len(t, rows, 200)

	for _, maxRows := range []int{0, -1, 201} {
		rows, err = reporter.RegionCoverage(ctx, "", "", maxRows)
		require.NoError(t, err)
		assert.Len(t, rows, 100, "max_rows %d", maxRows)
	}
}

func TestDailyCounts(t *testing.T) {
	reporter := newTestReporter(t, 2)
	ctx := context.Background()

	rows, err := reporter.DailyCounts(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2023-01-01", rows[0].Datestamp)
	assert.Equal(t, int64(2), rows[0].CountDataPoints)
	assert.Equal(t, "2023-01-04", rows[1].Datestamp)

	rows, err = reporter.DailyCounts(ctx, "R002")
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = reporter.DailyCounts(ctx, "NOPE")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
