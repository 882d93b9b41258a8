package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lcatricity/internal/apperr"
	genapp "lcatricity/internal/generation/application"
	impact "lcatricity/internal/impact/domain"
	"lcatricity/internal/observability/metrics"
	referencedata "lcatricity/internal/referencedata/domain"
)

// CategoryLookup resolves impact category metadata.
type CategoryLookup interface {
	ImpactCategory(id int64) (referencedata.ImpactCategory, bool)
}

// Request is an impact calculation as received from a caller.
type Request struct {
	DateStart        string
	DateEnd          string
	RegionCode       string
	ImpactCategoryID int64
	MaxDatapoints    int
}

// Calculator joins generation data to impact factors.
type Calculator struct {
	generation     *genapp.Service
	factors        impact.FactorStore
	categories     CategoryLookup
	conversions    impact.ConversionTable
	generationUnit string
	logger         *slog.Logger
}

// NewCalculator constructs a Calculator. An empty generationUnit defaults to MJ.
func NewCalculator(generation *genapp.Service, factors impact.FactorStore, categories CategoryLookup, conversions impact.ConversionTable, generationUnit string, logger *slog.Logger) (*Calculator, error) {
	if generation == nil {
		return nil, errors.New("impact calculator: nil generation service")
	}
	if factors == nil {
		return nil, errors.New("impact calculator: nil factor store")
	}
	if categories == nil {
		return nil, errors.New("impact calculator: nil category lookup")
	}
	if len(conversions) == 0 {
		conversions = impact.DefaultConversionTable()
	}
	if generationUnit == "" {
		generationUnit = "MJ"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{
		generation:     generation,
		factors:        factors,
		categories:     categories,
		conversions:    conversions,
		generationUnit: generationUnit,
		logger:         logger,
	}, nil
}

// Calculate returns the environmental impact of the generation of a region over a period.
func (c *Calculator) Calculate(ctx context.Context, req Request) (rows []impact.Row, err error) {
	started := time.Now()
	defer func() {
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultError
		}
		metrics.ObserveImpact(result, time.Since(started))
	}()

	category, ok := c.categories.ImpactCategory(req.ImpactCategoryID)
	if !ok {
		return nil, apperr.NotFound("impact category %d could not be found", req.ImpactCategoryID)
	}

	records, window, err := c.generation.Fetch(ctx, genapp.Request{
		DateStart:  req.DateStart,
		DateEnd:    req.DateEnd,
		RegionCode: req.RegionCode,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperr.NoData("no data available for region '%s' in the period '%s' - '%s'",
			req.RegionCode, window.Start.Format(time.DateOnly), window.End.Format(time.DateOnly))
	}
	records, err = c.generation.Resample(records, req.MaxDatapoints)
	if err != nil {
		return nil, err
	}

	factors, err := c.factors.ListFactors(ctx, category.ID)
	if err != nil {
		return nil, fmt.Errorf("list impact factors for category %d: %w", category.ID, err)
	}
	factors = impact.LatestPerGenerationType(factors, category.ID)

	calc := impact.Calculation{
		Conversions:    c.conversions,
		GenerationUnit: c.generationUnit,
		Category:       category,
	}
	rows, dropped, err := calc.Apply(records, factors)
	if err != nil {
		c.logger.Error("impact calculation failed", "region", req.RegionCode, "category", category.ID, "err", err)
		return nil, err
	}
	if dropped > 0 {
		metrics.AddImpactRowsDropped(dropped)
		c.logger.Debug("generation rows without impact factor", "region", req.RegionCode, "category", category.ID, "dropped", dropped)
	}
	return rows, nil
}
