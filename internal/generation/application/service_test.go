package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lcatricity/internal/apperr"
	generation "lcatricity/internal/generation/domain"
	referencedata "lcatricity/internal/referencedata/domain"
	"lcatricity/internal/storage/memory"
)

type staticCodes []string

func (c staticCodes) RegionCodes() []string { return c }

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	store.AddRegion(referencedata.Region{ID: 1, Code: "FR", Name: "France"})
	store.AddRegion(referencedata.Region{ID: 2, Code: "NL", Name: "Netherlands"})

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, typeID := range []int64{4, 14} {
		points := make([]generation.Point, 0, 96)
		for i := 0; i < 96; i++ {
			points = append(points, generation.Point{
				Timestamp:            start.Add(time.Duration(i) * 15 * time.Minute),
				AggregatedGeneration: float64(typeID*100 + int64(i)),
			})
		}
		_, _, err := store.ReplaceGeneration(context.Background(), 1, typeID, points)
		require.NoError(t, err)
	}
	return store
}

func newTestService(t *testing.T, store *memory.Store, opts ...Option) *Service {
	t.Helper()
	resolver, err := NewRegionResolver(store, staticCodes{"FR", "NL", "DE_LU"})
	require.NoError(t, err)
	svc, err := NewService(resolver, store, opts...)
	require.NoError(t, err)
	return svc
}

func TestResolve(t *testing.T) {
	store := newTestStore(t)
	resolver, err := NewRegionResolver(store, staticCodes{"FR", "NL", "DE_LU"})
	require.NoError(t, err)
	ctx := context.Background()

	region, err := resolver.Resolve(ctx, "FR")
	require.NoError(t, err)
	assert.Equal(t, int64(1), region.ID)

	_, err = resolver.Resolve(ctx, "ZZ_UNKNOWN")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = resolver.Resolve(ctx, "de")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Contains(t, err.Error(), "did you mean DE_LU")

	_, err = resolver.Resolve(ctx, "")
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = resolver.Resolve(ctx, "MUCH_TOO_LONG")
	require.ErrorIs(t, err, apperr.ErrValidation)

	store.AddRegion(referencedata.Region{ID: 3, Code: "NL", Name: "Netherlands (copy)"})
	_, err = resolver.Resolve(ctx, "NL")
	require.ErrorIs(t, err, apperr.ErrIntegrity)
}

func TestFetchReturnsAllTypesWithinWindow(t *testing.T) {
	svc := newTestService(t, newTestStore(t), WithRowLimit(1000))

	records, window, err := svc.Fetch(context.Background(), Request{DateStart: "2023-01-01", RegionCode: "FR"})
	require.NoError(t, err)
	assert.Len(t, records, 192)
	types := map[int64]bool{}
	for _, r := range records {
		types[r.GenerationTypeID] = true
		assert.True(t, window.Contains(r.Timestamp))
		assert.Equal(t, "FR", r.RegionCode)
	}
	assert.Len(t, types, 2)
}

func TestFetchHonorsTypeFilterAndRowLimit(t *testing.T) {
	svc := newTestService(t, newTestStore(t), WithRowLimit(10))
	typeID := int64(14)

	records, _, err := svc.Fetch(context.Background(), Request{DateStart: "2023-01-01", RegionCode: "FR", GenerationTypeID: &typeID})
	require.NoError(t, err)
	assert.Len(t, records, 10)
	for _, r := range records {
		assert.Equal(t, typeID, r.GenerationTypeID)
	}
}

func TestFetchRejectsBadDates(t *testing.T) {
	svc := newTestService(t, newTestStore(t))

	_, _, err := svc.Fetch(context.Background(), Request{DateStart: "01/01/2023", RegionCode: "FR"})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, _, err = svc.Fetch(context.Background(), Request{DateStart: "2023-01-02", DateEnd: "2023-01-01", RegionCode: "FR"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGenerationResamplesAndIsIdempotent(t *testing.T) {
	svc := newTestService(t, newTestStore(t))
	req := Request{DateStart: "2023-01-01", RegionCode: "FR", MaxDatapoints: 100}

	first, err := svc.Generation(context.Background(), req)
	require.NoError(t, err)
	// 96 quarter hours collapse into 24 hourly buckets per type
	assert.Len(t, first, 48)

	second, err := svc.Generation(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerationUnknownRegionIsEmptyNotFound(t *testing.T) {
	svc := newTestService(t, newTestStore(t))

	records, err := svc.Generation(context.Background(), Request{DateStart: "2023-01-01", RegionCode: "ZZ_UNKNOWN"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Nil(t, records)
}

func TestGenerationRegionWithoutDataIsEmpty(t *testing.T) {
	svc := newTestService(t, newTestStore(t))

	records, err := svc.Generation(context.Background(), Request{DateStart: "2023-01-01", RegionCode: "NL"})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestResampleRejectsNegativeBudget(t *testing.T) {
	svc := newTestService(t, newTestStore(t))

	_, err := svc.Resample(nil, -1)
	require.ErrorIs(t, err, apperr.ErrValidation)
}
