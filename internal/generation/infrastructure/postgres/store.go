package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	generation "lcatricity/internal/generation/domain"
	referencedata "lcatricity/internal/referencedata/domain"
)

const (
	defaultGenerationTable = "electricity_generation"
	defaultRegionsTable    = "regions"
)

// Store is the Postgres implementation of the generation store and writer.
type Store struct {
	db           *sql.DB
	table        string
	regionsTable string
}

// NewStore constructs a store with default table names.
func NewStore(db *sql.DB, opts ...Option) *Store {
	store := &Store{db: db, table: defaultGenerationTable, regionsTable: defaultRegionsTable}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Option configures the store.
type Option func(*Store)

// WithTable overrides the generation table name.
func WithTable(table string) Option {
	return func(s *Store) {
		if table != "" {
			s.table = table
		}
	}
}

// FindRegionsByCode returns at most limit regions with the given code.
func (s *Store) FindRegionsByCode(ctx context.Context, code string, limit int) ([]referencedata.Region, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("generation store: nil db")
	}
	if limit <= 0 {
		limit = 1
	}
	query := fmt.Sprintf(`
SELECT id, code, name
FROM %s
WHERE code = $1
LIMIT $2`, s.regionsTable)

	rows, err := s.db.QueryContext(ctx, query, code, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []referencedata.Region
	for rows.Next() {
		var region referencedata.Region
		if err := rows.Scan(&region.ID, &region.Code, &region.Name); err != nil {
			return nil, err
		}
		result = append(result, region)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// FetchGeneration returns rows in [start, end] ordered by timestamp, capped at the row limit.
func (s *Store) FetchGeneration(ctx context.Context, q generation.Query) ([]generation.Record, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("generation store: nil db")
	}
	if q.RowLimit <= 0 {
		return nil, errors.New("generation store: row limit must be positive")
	}

	var typeFilter sql.NullInt64
	if q.GenerationTypeID != nil {
		typeFilter = sql.NullInt64{Int64: *q.GenerationTypeID, Valid: true}
	}

	query := fmt.Sprintf(`
SELECT region_id, generation_type_id, ts, aggregated_generation
FROM %s
WHERE region_id = $1
	AND ts >= $2
	AND ts <= $3
	AND ($4::bigint IS NULL OR generation_type_id = $4)
ORDER BY ts ASC, generation_type_id ASC
LIMIT $5`, s.table)

	rows, err := s.db.QueryContext(ctx, query, q.Region.ID, q.Window.Start.UTC(), q.Window.End.UTC(), typeFilter, q.RowLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]generation.Record, 0)
	for rows.Next() {
		record := generation.Record{RegionCode: q.Region.Code}
		if err := rows.Scan(&record.RegionID, &record.GenerationTypeID, &record.Timestamp, &record.AggregatedGeneration); err != nil {
			return nil, err
		}
		record.Timestamp = record.Timestamp.UTC()
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReplaceGeneration deletes overlapping rows and inserts points in one transaction.
func (s *Store) ReplaceGeneration(ctx context.Context, regionID, generationTypeID int64, points []generation.Point) (int64, int64, error) {
	if s == nil || s.db == nil {
		return 0, 0, errors.New("generation store: nil db")
	}
	if len(points) == 0 {
		return 0, 0, nil
	}

	start, end := points[0].Timestamp, points[0].Timestamp
	for _, p := range points[1:] {
		if p.Timestamp.Before(start) {
			start = p.Timestamp
		}
		if p.Timestamp.After(end) {
			end = p.Timestamp
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, fmt.Sprintf(`
DELETE FROM %s
WHERE region_id = $1
	AND generation_type_id = $2
	AND ts >= $3
	AND ts <= $4`, s.table), regionID, generationTypeID, start.UTC(), end.UTC())
	if err != nil {
		return 0, 0, fmt.Errorf("delete overlapping generation: %w", err)
	}
	deleted, _ := res.RowsAffected()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
INSERT INTO %s (region_id, generation_type_id, ts, aggregated_generation)
VALUES ($1, $2, $3, $4)`, s.table))
	if err != nil {
		return 0, 0, err
	}
	defer stmt.Close()

	var inserted int64
	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, regionID, generationTypeID, p.Timestamp.UTC(), p.AggregatedGeneration); err != nil {
			return 0, 0, fmt.Errorf("insert generation at %s: %w", p.Timestamp.UTC(), err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return deleted, inserted, nil
}
