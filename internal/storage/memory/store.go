// Package memory is an in-memory store for demo mode and tests. It implements
// the store interfaces of every bounded context.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	availability "lcatricity/internal/availability/domain"
	generation "lcatricity/internal/generation/domain"
	impact "lcatricity/internal/impact/domain"
	referencedata "lcatricity/internal/referencedata/domain"
)

type recordKey struct {
	regionID         int64
	generationTypeID int64
	ts               time.Time
}

// Store holds reference tables, generation rows and impact factors.
type Store struct {
	mu         sync.RWMutex
	regions    []referencedata.Region
	genTypes   []referencedata.GenerationType
	mappings   []referencedata.GenerationTypeMapping
	categories []referencedata.ImpactCategory
	factors    []impact.Factor
	records    map[recordKey]float64
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{records: make(map[recordKey]float64)}
}

// AddRegion registers a region. Duplicate codes are allowed so integrity
// failures can be exercised.
func (s *Store) AddRegion(region referencedata.Region) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regions = append(s.regions, region)
}

// AddGenerationType registers a generation type.
func (s *Store) AddGenerationType(genType referencedata.GenerationType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genTypes = append(s.genTypes, genType)
}

// AddGenerationTypeMapping registers a source-system name mapping.
func (s *Store) AddGenerationTypeMapping(mapping referencedata.GenerationTypeMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings = append(s.mappings, mapping)
}

// AddImpactCategory registers an impact category.
func (s *Store) AddImpactCategory(category referencedata.ImpactCategory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, category)
}

// AddFactor registers an impact factor.
func (s *Store) AddFactor(factor impact.Factor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factors = append(s.factors, factor)
}

// ListRegions returns regions ordered by code.
func (s *Store) ListRegions(ctx context.Context) ([]referencedata.Region, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := append([]referencedata.Region(nil), s.regions...)
	sort.SliceStable(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// ListGenerationTypes returns generation types ordered by id.
func (s *Store) ListGenerationTypes(ctx context.Context) ([]referencedata.GenerationType, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := append([]referencedata.GenerationType(nil), s.genTypes...)
	sort.SliceStable(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ListGenerationTypeMappings returns all mappings.
func (s *Store) ListGenerationTypeMappings(ctx context.Context) ([]referencedata.GenerationTypeMapping, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]referencedata.GenerationTypeMapping(nil), s.mappings...), nil
}

// ListImpactCategories returns impact categories ordered by id.
func (s *Store) ListImpactCategories(ctx context.Context) ([]referencedata.ImpactCategory, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := append([]referencedata.ImpactCategory(nil), s.categories...)
	sort.SliceStable(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// FindRegionsByCode returns at most limit regions with the code.
func (s *Store) FindRegionsByCode(ctx context.Context, code string, limit int) ([]referencedata.Region, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []referencedata.Region
	for _, region := range s.regions {
		if region.Code != code {
			continue
		}
		if len(result) == limit {
			break
		}
		result = append(result, region)
	}
	return result, nil
}

// FetchGeneration returns rows in the inclusive window ordered by timestamp then type.
func (s *Store) FetchGeneration(ctx context.Context, q generation.Query) ([]generation.Record, error) {
	_ = ctx
	if q.RowLimit <= 0 {
		return nil, errors.New("memory store: row limit must be positive")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]generation.Record, 0)
	for key, value := range s.records {
		if key.regionID != q.Region.ID || !q.Window.Contains(key.ts) {
			continue
		}
		if q.GenerationTypeID != nil && key.generationTypeID != *q.GenerationTypeID {
			continue
		}
		result = append(result, generation.Record{
			RegionID:             key.regionID,
			RegionCode:           q.Region.Code,
			GenerationTypeID:     key.generationTypeID,
			Timestamp:            key.ts,
			AggregatedGeneration: value,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.Before(result[j].Timestamp)
		}
		return result[i].GenerationTypeID < result[j].GenerationTypeID
	})
	if len(result) > q.RowLimit {
		result = result[:q.RowLimit]
	}
	return result, nil
}

// ReplaceGeneration deletes rows in [min ts, max ts] for the region/type and inserts points.
func (s *Store) ReplaceGeneration(ctx context.Context, regionID, generationTypeID int64, points []generation.Point) (int64, int64, error) {
	_ = ctx
	if len(points) == 0 {
		return 0, 0, nil
	}
	start, end := points[0].Timestamp.UTC(), points[0].Timestamp.UTC()
	for _, p := range points[1:] {
		ts := p.Timestamp.UTC()
		if ts.Before(start) {
			start = ts
		}
		if ts.After(end) {
			end = ts
		}
	}
	window := generation.Window{Start: start, End: end}

	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for key := range s.records {
		if key.regionID == regionID && key.generationTypeID == generationTypeID && window.Contains(key.ts) {
			delete(s.records, key)
			deleted++
		}
	}
	for _, p := range points {
		s.records[recordKey{regionID: regionID, generationTypeID: generationTypeID, ts: p.Timestamp.UTC()}] = p.AggregatedGeneration
	}
	return deleted, int64(len(points)), nil
}

// ListFactors returns all factors of the category.
func (s *Store) ListFactors(ctx context.Context, impactCategoryID int64) ([]impact.Factor, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []impact.Factor
	for _, f := range s.factors {
		if f.ImpactCategoryID == impactCategoryID {
			result = append(result, f)
		}
	}
	return result, nil
}

// RegionCoverage reports per-region coverage including regions without rows.
func (s *Store) RegionCoverage(ctx context.Context, window *generation.Window, limit int) ([]availability.RegionCoverage, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	byRegion := make(map[int64]*availability.RegionCoverage, len(s.regions))
	result := make([]availability.RegionCoverage, 0, len(s.regions))
	for _, region := range s.regions {
		if _, seen := byRegion[region.ID]; seen {
			continue
		}
		result = append(result, availability.RegionCoverage{RegionID: region.ID, RegionCode: region.Code})
		byRegion[region.ID] = &result[len(result)-1]
	}
	for key := range s.records {
		if window != nil && !window.Contains(key.ts) {
			continue
		}
		row := byRegion[key.regionID]
		if row == nil {
			continue
		}
		ts := key.ts
		if row.EarliestTimestamp == nil || ts.Before(*row.EarliestTimestamp) {
			row.EarliestTimestamp = &ts
		}
		if row.LatestTimestamp == nil || ts.After(*row.LatestTimestamp) {
			row.LatestTimestamp = &ts
		}
		row.CountDataPoints++
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CountDataPoints != result[j].CountDataPoints {
			return result[i].CountDataPoints > result[j].CountDataPoints
		}
		return result[i].RegionCode < result[j].RegionCode
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DailyCounts groups rows by UTC day and region.
func (s *Store) DailyCounts(ctx context.Context, regionID *int64) ([]availability.DayCount, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	codes := make(map[int64]string, len(s.regions))
	for _, region := range s.regions {
		codes[region.ID] = region.Code
	}
	type dayKey struct {
		day      string
		regionID int64
	}
	counts := make(map[dayKey]int64)
	for key := range s.records {
		if regionID != nil && key.regionID != *regionID {
			continue
		}
		if _, ok := codes[key.regionID]; !ok {
			continue
		}
		counts[dayKey{day: key.ts.UTC().Format(generation.DateLayout), regionID: key.regionID}]++
	}

	result := make([]availability.DayCount, 0, len(counts))
	for key, count := range counts {
		result = append(result, availability.DayCount{
			Datestamp:       key.day,
			RegionID:        key.regionID,
			RegionCode:      codes[key.regionID],
			CountDataPoints: count,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Datestamp != result[j].Datestamp {
			return result[i].Datestamp < result[j].Datestamp
		}
		return result[i].RegionCode < result[j].RegionCode
	})
	return result, nil
}
