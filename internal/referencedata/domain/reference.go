package referencedata

import "context"

// Region is an electricity market area. Code is unique.
type Region struct {
	ID   int64  `json:"Id"`
	Code string `json:"Code"`
	Name string `json:"Name"`
}

// GenerationType is a category of electricity source.
type GenerationType struct {
	ID   int64  `json:"Id"`
	Code string `json:"Code"`
	Name string `json:"Name"`
}

// GenerationTypeMapping records the name a source system uses for a generation type.
type GenerationTypeMapping struct {
	GenerationTypeID int64  `json:"GenerationTypeId"`
	SourceName       string `json:"SourceName"`
	SourceSystem     string `json:"SourceSystem"`
}

// ImpactCategory is an environmental metric, e.g. CO2-equivalent emissions.
type ImpactCategory struct {
	ID   int64  `json:"Id"`
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

// Source lists the reference tables from the store.
type Source interface {
	ListRegions(ctx context.Context) ([]Region, error)
	ListGenerationTypes(ctx context.Context) ([]GenerationType, error)
	ListGenerationTypeMappings(ctx context.Context) ([]GenerationTypeMapping, error)
	ListImpactCategories(ctx context.Context) ([]ImpactCategory, error)
}
