package impact

import (
	"context"
	"sort"
)

// Factor is the environmental impact of one unit of generation of a type,
// for one impact category and reference year.
type Factor struct {
	ID               int64
	GenerationTypeID int64
	ImpactCategoryID int64
	ReferenceYear    int
	ImpactValue      float64
	PerUnit          string
}

// FactorStore reads impact factors.
type FactorStore interface {
	// ListFactors returns the factors of one impact category.
	ListFactors(ctx context.Context, impactCategoryID int64) ([]Factor, error)
}

// LatestPerGenerationType keeps, for each generation type, the factor with the
// most recent reference year in the given category. Ties keep the lowest id.
func LatestPerGenerationType(factors []Factor, impactCategoryID int64) []Factor {
	latest := make(map[int64]Factor)
	for _, f := range factors {
		if f.ImpactCategoryID != impactCategoryID {
			continue
		}
		current, ok := latest[f.GenerationTypeID]
		if !ok || f.ReferenceYear > current.ReferenceYear || (f.ReferenceYear == current.ReferenceYear && f.ID < current.ID) {
			latest[f.GenerationTypeID] = f
		}
	}
	result := make([]Factor, 0, len(latest))
	for _, f := range latest {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].GenerationTypeID < result[j].GenerationTypeID })
	return result
}
