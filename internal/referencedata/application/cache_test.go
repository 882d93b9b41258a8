package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	referencedata "lcatricity/internal/referencedata/domain"
)

type stubSource struct {
	regions    []referencedata.Region
	categories []referencedata.ImpactCategory
	failOn     string
}

func (s stubSource) ListRegions(context.Context) ([]referencedata.Region, error) {
	if s.failOn == "regions" {
		return nil, errors.New("regions down")
	}
	return s.regions, nil
}

func (s stubSource) ListGenerationTypes(context.Context) ([]referencedata.GenerationType, error) {
	return []referencedata.GenerationType{{ID: 4, Code: "B04", Name: "Fossil Gas"}}, nil
}

func (s stubSource) ListGenerationTypeMappings(context.Context) ([]referencedata.GenerationTypeMapping, error) {
	return []referencedata.GenerationTypeMapping{{GenerationTypeID: 4, SourceName: "Fossil Gas", SourceSystem: "ENTSO-E"}}, nil
}

func (s stubSource) ListImpactCategories(context.Context) ([]referencedata.ImpactCategory, error) {
	return s.categories, nil
}

func TestLoadCache(t *testing.T) {
	source := stubSource{
		regions:    []referencedata.Region{{ID: 1, Code: "FR", Name: "France"}, {ID: 2, Code: "NL", Name: "Netherlands"}},
		categories: []referencedata.ImpactCategory{{ID: 7, Name: "climate change", Unit: "g CO2 eq."}},
	}

	cache, err := LoadCache(context.Background(), source)
	require.NoError(t, err)

	assert.Len(t, cache.Regions(), 2)
	assert.Len(t, cache.GenerationTypes(), 1)
	assert.Len(t, cache.GenerationTypeMappings(), 1)
	assert.Equal(t, []string{"FR", "NL"}, cache.RegionCodes())

	category, ok := cache.ImpactCategory(7)
	require.True(t, ok)
	assert.Equal(t, "g CO2 eq.", category.Unit)
	_, ok = cache.ImpactCategory(8)
	assert.False(t, ok)
}

func TestLoadCacheFailsWhenAnyQueryFails(t *testing.T) {
	_, err := LoadCache(context.Background(), stubSource{failOn: "regions"})
	assert.EqualError(t, err, "regions down")
}

func TestCacheAccessorsReturnCopies(t *testing.T) {
	cache := NewCache([]referencedata.Region{{ID: 1, Code: "FR"}}, nil, nil, nil)

	regions := cache.Regions()
	regions[0].Code = "XX"

	assert.Equal(t, "FR", cache.Regions()[0].Code)
}
