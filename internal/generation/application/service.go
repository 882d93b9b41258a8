package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lcatricity/internal/apperr"
	generation "lcatricity/internal/generation/domain"
	"lcatricity/internal/observability/metrics"
)

// Request is a generation query as received from a caller.
type Request struct {
	DateStart        string
	DateEnd          string
	RegionCode       string
	GenerationTypeID *int64
	MaxDatapoints    int
}

// Service resolves, fetches and resamples generation data.
type Service struct {
	resolver      *RegionResolver
	store         generation.Store
	ladder        generation.Ladder
	rowLimit      int
	maxDatapoints int
	logger        *slog.Logger
}

// Option configures the service.
type Option func(*Service)

// WithLadder overrides the resampling ladder.
func WithLadder(ladder generation.Ladder) Option {
	return func(s *Service) {
		if len(ladder) > 0 {
			s.ladder = ladder
		}
	}
}

// WithRowLimit overrides the fetch row cap.
func WithRowLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.rowLimit = limit
		}
	}
}

// WithMaxDatapoints overrides the default resampling budget.
func WithMaxDatapoints(max int) Option {
	return func(s *Service) {
		if max > 0 {
			s.maxDatapoints = max
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a Service.
func NewService(resolver *RegionResolver, store generation.Store, opts ...Option) (*Service, error) {
	if resolver == nil {
		return nil, errors.New("generation service: nil resolver")
	}
	if store == nil {
		return nil, errors.New("generation service: nil store")
	}
	s := &Service{
		resolver:      resolver,
		store:         store,
		ladder:        generation.DefaultLadder,
		rowLimit:      1000,
		maxDatapoints: 1000,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Fetch resolves the region and returns raw rows for the window, capped at the row limit.
func (s *Service) Fetch(ctx context.Context, req Request) ([]generation.Record, generation.Window, error) {
	window, err := generation.ParseWindow(req.DateStart, req.DateEnd)
	if err != nil {
		return nil, generation.Window{}, err
	}
	region, err := s.resolver.Resolve(ctx, req.RegionCode)
	if err != nil {
		return nil, window, err
	}
	s.logger.Debug("fetching generation", "region", region.Code, "region_id", region.ID, "start", window.Start, "end", window.End)

	records, err := s.store.FetchGeneration(ctx, generation.Query{
		Region:           region,
		GenerationTypeID: req.GenerationTypeID,
		Window:           window,
		RowLimit:         s.rowLimit,
	})
	if err != nil {
		return nil, window, fmt.Errorf("fetch generation for %s: %w", region.Code, err)
	}
	for i := range records {
		records[i].RegionCode = region.Code
	}
	return records, window, nil
}

// Generation fetches rows and resamples them down to the requested number of datapoints.
func (s *Service) Generation(ctx context.Context, req Request) ([]generation.Record, error) {
	records, _, err := s.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Resample(records, req.MaxDatapoints)
}

// Resample applies the ladder with max, or the service default when max is zero.
func (s *Service) Resample(records []generation.Record, max int) ([]generation.Record, error) {
	if max == 0 {
		max = s.maxDatapoints
	}
	if max < 0 {
		return nil, apperr.Validation("max_datapoints must be positive")
	}
	out, err := generation.Resample(records, max, s.ladder)
	if err != nil {
		metrics.IncResample("exhausted")
		return nil, err
	}
	if out.Passes > 0 {
		metrics.IncResample(out.Bucket)
		s.logger.Debug("resampled generation", "bucket", out.Bucket, "passes", out.Passes, "rows_in", len(records), "rows_out", len(out.Records))
	}
	return out.Records, nil
}
