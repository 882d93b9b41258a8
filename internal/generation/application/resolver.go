package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"lcatricity/internal/apperr"
	generation "lcatricity/internal/generation/domain"
	referencedata "lcatricity/internal/referencedata/domain"
)

// MaxRegionCodeLength matches the width of the region code column.
const MaxRegionCodeLength = 10

const maxSuggestions = 3

// CodeLister lists known region codes for suggestions.
type CodeLister interface {
	RegionCodes() []string
}

// RegionResolver maps a region code to exactly one region.
type RegionResolver struct {
	store generation.Store
	codes CodeLister
}

// NewRegionResolver constructs a resolver. codes may be nil.
func NewRegionResolver(store generation.Store, codes CodeLister) (*RegionResolver, error) {
	if store == nil {
		return nil, errors.New("region resolver: nil store")
	}
	return &RegionResolver{store: store, codes: codes}, nil
}

// Resolve returns the region for code. Zero matches is NotFound, more than one is an integrity defect.
func (r *RegionResolver) Resolve(ctx context.Context, code string) (referencedata.Region, error) {
	if code == "" {
		return referencedata.Region{}, apperr.Validation("region_code is required")
	}
	if len(code) > MaxRegionCodeLength {
		return referencedata.Region{}, apperr.Validation("region_code must be at most %d characters", MaxRegionCodeLength)
	}

	regions, err := r.store.FindRegionsByCode(ctx, code, 2)
	if err != nil {
		return referencedata.Region{}, fmt.Errorf("resolve region %q: %w", code, err)
	}
	switch len(regions) {
	case 0:
		return referencedata.Region{}, apperr.NotFound("region code `%s` could not be found%s", code, r.suggest(code))
	case 1:
		return regions[0], nil
	default:
		return referencedata.Region{}, apperr.Integrity("more than one region found for region code `%s`", code)
	}
}

func (r *RegionResolver) suggest(code string) string {
	if r.codes == nil {
		return ""
	}
	ranks := fuzzy.RankFindNormalizedFold(code, r.codes.RegionCodes())
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	names := make([]string, 0, maxSuggestions)
	for _, rank := range ranks {
		if len(names) == maxSuggestions {
			break
		}
		names = append(names, rank.Target)
	}
	return "; did you mean " + strings.Join(names, ", ") + "?"
}
