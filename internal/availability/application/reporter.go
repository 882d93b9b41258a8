package application

import (
	"context"
	"errors"
	"fmt"

	availability "lcatricity/internal/availability/domain"
	genapp "lcatricity/internal/generation/application"
	generation "lcatricity/internal/generation/domain"
)

const (
	defaultMaxRows = 100
	maxRowsLimit   = 200
)

// Reporter produces data coverage reports.
type Reporter struct {
	store          availability.Store
	resolver       *genapp.RegionResolver
	defaultMaxRows int
	maxRowsLimit   int
}

// NewReporter constructs a Reporter. Non-positive bounds fall back to 100 and 200.
func NewReporter(store availability.Store, resolver *genapp.RegionResolver, defaultRows, rowsLimit int) (*Reporter, error) {
	if store == nil {
		return nil, errors.New("availability reporter: nil store")
	}
	if resolver == nil {
		return nil, errors.New("availability reporter: nil resolver")
	}
	if defaultRows <= 0 {
		defaultRows = defaultMaxRows
	}
	if rowsLimit <= 0 {
		rowsLimit = maxRowsLimit
	}
	if rowsLimit < defaultRows {
		rowsLimit = defaultRows
	}
	return &Reporter{store: store, resolver: resolver, defaultMaxRows: defaultRows, maxRowsLimit: rowsLimit}, nil
}

// RegionCoverage reports earliest/latest timestamps and counts per region.
// An empty dateStart covers all stored data.
func (r *Reporter) RegionCoverage(ctx context.Context, dateStart, dateEnd string, maxRows int) ([]availability.RegionCoverage, error) {
	window, err := generation.ParseOptionalWindow(dateStart, dateEnd)
	if err != nil {
		return nil, err
	}
	result, err := r.store.RegionCoverage(ctx, window, r.clampRows(maxRows))
	if err != nil {
		return nil, fmt.Errorf("region coverage: %w", err)
	}
	return result, nil
}

// DailyCounts reports datapoints per day and region, for one region when regionCode is set.
func (r *Reporter) DailyCounts(ctx context.Context, regionCode string) ([]availability.DayCount, error) {
	var regionID *int64
	if regionCode != "" {
		region, err := r.resolver.Resolve(ctx, regionCode)
		if err != nil {
			return nil, err
		}
		regionID = &region.ID
	}
	result, err := r.store.DailyCounts(ctx, regionID)
	if err != nil {
		return nil, fmt.Errorf("daily counts: %w", err)
	}
	return result, nil
}

func (r *Reporter) clampRows(maxRows int) int {
	if maxRows < 1 || maxRows > r.maxRowsLimit {
		return r.defaultMaxRows
	}
	return maxRows
}
