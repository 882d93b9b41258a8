package generation

import (
	"context"
	"time"

	referencedata "lcatricity/internal/referencedata/domain"
)

// Record is one generation interval for a region and generation type.
// The natural key is (RegionID, GenerationTypeID, Timestamp).
type Record struct {
	RegionID             int64     `json:"RegionId"`
	RegionCode           string    `json:"RegionCode"`
	GenerationTypeID     int64     `json:"GenerationTypeId"`
	Timestamp            time.Time `json:"DateStamp"`
	AggregatedGeneration float64   `json:"AggregatedGeneration"`
}

// Point is an ingested value for a single interval start.
type Point struct {
	Timestamp            time.Time
	AggregatedGeneration float64
}

// Query bounds a generation fetch. GenerationTypeID nil means all types.
type Query struct {
	Region           referencedata.Region
	GenerationTypeID *int64
	Window           Window
	RowLimit         int
}

// Store reads generation data.
type Store interface {
	// FindRegionsByCode returns at most limit regions with the given code.
	FindRegionsByCode(ctx context.Context, code string, limit int) ([]referencedata.Region, error)
	// FetchGeneration returns rows matching the query ordered by timestamp.
	FetchGeneration(ctx context.Context, query Query) ([]Record, error)
}

// Writer replaces generation data for a region and type.
type Writer interface {
	// ReplaceGeneration deletes existing rows in [min ts, max ts] for the
	// region/type and inserts points, keeping the natural key unique.
	ReplaceGeneration(ctx context.Context, regionID, generationTypeID int64, points []Point) (deleted int64, inserted int64, err error)
}
