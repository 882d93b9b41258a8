package availability

import (
	"context"
	"time"

	generation "lcatricity/internal/generation/domain"
)

// RegionCoverage summarizes the generation rows stored for one region.
// Regions without rows have nil timestamps and a zero count.
type RegionCoverage struct {
	RegionID          int64      `json:"RegionId"`
	RegionCode        string     `json:"RegionCode"`
	EarliestTimestamp *time.Time `json:"EarliestTimeStamp"`
	LatestTimestamp   *time.Time `json:"LatestTimeStamp"`
	CountDataPoints   int64      `json:"CountDataPoints"`
}

// DayCount is the number of generation rows for a region on a calendar day.
type DayCount struct {
	Datestamp       string `json:"Datestamp"`
	RegionID        int64  `json:"RegionId"`
	RegionCode      string `json:"RegionCode"`
	CountDataPoints int64  `json:"CountDataPoints"`
}

// Store runs the coverage queries.
type Store interface {
	// RegionCoverage returns every region, including those without rows, ordered by
	// count descending then code, limited to limit rows. A nil window covers all time.
	RegionCoverage(ctx context.Context, window *generation.Window, limit int) ([]RegionCoverage, error)
	// DailyCounts groups rows by UTC day and region, for one region when regionID is set.
	DailyCounts(ctx context.Context, regionID *int64) ([]DayCount, error)
}
