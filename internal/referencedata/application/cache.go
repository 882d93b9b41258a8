package application

import (
	"context"
	"errors"
	"slices"

	"golang.org/x/sync/errgroup"

	referencedata "lcatricity/internal/referencedata/domain"
)

// Cache is an immutable snapshot of the reference tables. It is built once at
// startup and shared read-only by request handlers.
type Cache struct {
	regions         []referencedata.Region
	generationTypes []referencedata.GenerationType
	mappings        []referencedata.GenerationTypeMapping
	categories      []referencedata.ImpactCategory

	categoryByID map[int64]referencedata.ImpactCategory
}

// LoadCache runs the four list queries concurrently and returns the snapshot.
func LoadCache(ctx context.Context, source referencedata.Source) (*Cache, error) {
	if source == nil {
		return nil, errors.New("reference cache: nil source")
	}

	var (
		regions    []referencedata.Region
		genTypes   []referencedata.GenerationType
		mappings   []referencedata.GenerationTypeMapping
		categories []referencedata.ImpactCategory
	)
	errg, errgctx := errgroup.WithContext(ctx)
	errg.Go(func() (err error) {
		regions, err = source.ListRegions(errgctx)
		return err
	})
	errg.Go(func() (err error) {
		genTypes, err = source.ListGenerationTypes(errgctx)
		return err
	})
	errg.Go(func() (err error) {
		mappings, err = source.ListGenerationTypeMappings(errgctx)
		return err
	})
	errg.Go(func() (err error) {
		categories, err = source.ListImpactCategories(errgctx)
		return err
	})
	if err := errg.Wait(); err != nil {
		return nil, err
	}

	return NewCache(regions, genTypes, mappings, categories), nil
}

// NewCache builds a snapshot from already loaded tables.
func NewCache(regions []referencedata.Region, genTypes []referencedata.GenerationType, mappings []referencedata.GenerationTypeMapping, categories []referencedata.ImpactCategory) *Cache {
	c := &Cache{
		regions:         slices.Clone(regions),
		generationTypes: slices.Clone(genTypes),
		mappings:        slices.Clone(mappings),
		categories:      slices.Clone(categories),
		categoryByID:    make(map[int64]referencedata.ImpactCategory, len(categories)),
	}
	for _, category := range categories {
		c.categoryByID[category.ID] = category
	}
	return c
}

// Regions returns the cached regions.
func (c *Cache) Regions() []referencedata.Region {
	return slices.Clone(c.regions)
}

// GenerationTypes returns the cached generation types.
func (c *Cache) GenerationTypes() []referencedata.GenerationType {
	return slices.Clone(c.generationTypes)
}

// GenerationTypeMappings returns the cached generation type mappings.
func (c *Cache) GenerationTypeMappings() []referencedata.GenerationTypeMapping {
	return slices.Clone(c.mappings)
}

// ImpactCategories returns the cached impact categories.
func (c *Cache) ImpactCategories() []referencedata.ImpactCategory {
	return slices.Clone(c.categories)
}

// ImpactCategory looks up one category by id.
func (c *Cache) ImpactCategory(id int64) (referencedata.ImpactCategory, bool) {
	category, ok := c.categoryByID[id]
	return category, ok
}

// RegionCodes returns the codes of all cached regions.
func (c *Cache) RegionCodes() []string {
	codes := make([]string, 0, len(c.regions))
	for _, region := range c.regions {
		codes = append(codes, region.Code)
	}
	return codes
}
