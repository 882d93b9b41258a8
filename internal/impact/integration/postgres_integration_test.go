package integration_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lcatricity/internal/apperr"
	availapp "lcatricity/internal/availability/application"
	availrepo "lcatricity/internal/availability/infrastructure/postgres"
	genapp "lcatricity/internal/generation/application"
	generation "lcatricity/internal/generation/domain"
	genrepo "lcatricity/internal/generation/infrastructure/postgres"
	impactapp "lcatricity/internal/impact/application"
	impactrepo "lcatricity/internal/impact/infrastructure/postgres"
	refapp "lcatricity/internal/referencedata/application"
	refrepo "lcatricity/internal/referencedata/infrastructure/postgres"
)

const (
	regionWithData  = int64(9001)
	regionEmpty     = int64(9002)
	genTypeID       = int64(9001)
	categoryID      = int64(9001)
	regionCodeData  = "ZZT_DATA"
	regionCodeEmpty = "ZZT_EMPTY"
)

func TestImpactPipeline_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, applyMigrations(db))
	ctx := context.Background()
	cleanup(ctx, db)
	defer cleanup(ctx, db)
	require.NoError(t, seedReference(ctx, db))

	store := genrepo.NewStore(db)
	day := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	points := []generation.Point{
		{Timestamp: day, AggregatedGeneration: 3010},
		{Timestamp: day.Add(15 * time.Minute), AggregatedGeneration: 3020},
		{Timestamp: day.AddDate(0, 0, 1), AggregatedGeneration: 3030},
	}
	_, inserted, err := store.ReplaceGeneration(ctx, regionWithData, genTypeID, points)
	require.NoError(t, err)
	assert.Equal(t, int64(3), inserted)

	deleted, inserted, err := store.ReplaceGeneration(ctx, regionWithData, genTypeID, points)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.Equal(t, int64(3), inserted)

	cache, err := refapp.LoadCache(ctx, refrepo.NewRepository(db))
	require.NoError(t, err)
	_, ok := cache.ImpactCategory(categoryID)
	require.True(t, ok)

	resolver, err := genapp.NewRegionResolver(store, cache)
	require.NoError(t, err)
	svc, err := genapp.NewService(resolver, store)
	require.NoError(t, err)

	// the window end is inclusive, so the next midnight is part of the day
	records, err := svc.Generation(ctx, genapp.Request{DateStart: "2023-01-01", RegionCode: regionCodeData})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.True(t, records[2].Timestamp.Equal(day.AddDate(0, 0, 1)))

	calc, err := impactapp.NewCalculator(svc, impactrepo.NewFactorRepository(db), cache, nil, "MJ", nil)
	require.NoError(t, err)
	rows, err := calc.Calculate(ctx, impactapp.Request{DateStart: "2023-01-01", RegionCode: regionCodeData, ImpactCategoryID: categoryID})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 2021, rows[0].ReferenceYear)
	assert.InDelta(t, 3010*3.6*280, rows[0].EnvironmentalImpact, 1e-6)

	_, err = calc.Calculate(ctx, impactapp.Request{DateStart: "2099-01-01", RegionCode: regionCodeData, ImpactCategoryID: categoryID})
	require.ErrorIs(t, err, apperr.ErrNoData)

	reporter, err := availapp.NewReporter(availrepo.NewQuery(db), resolver, 0, 200)
	require.NoError(t, err)
	coverage, err := reporter.RegionCoverage(ctx, "", "", 200)
	require.NoError(t, err)
	var sawEmpty bool
	for _, row := range coverage {
		switch row.RegionID {
		case regionWithData:
			assert.Equal(t, int64(3), row.CountDataPoints)
		case regionEmpty:
			sawEmpty = true
			assert.Zero(t, row.CountDataPoints)
			assert.Nil(t, row.EarliestTimestamp)
		}
	}
	assert.True(t, sawEmpty, "region without rows must be listed")

	counts, err := reporter.DailyCounts(ctx, regionCodeData)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "2023-01-01", counts[0].Datestamp)
	assert.Equal(t, int64(2), counts[0].CountDataPoints)
}

func seedReference(ctx context.Context, db *sql.DB) error {
	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO regions (id, code, name) VALUES ($1, $2, 'test region')`, []any{regionWithData, regionCodeData}},
		{`INSERT INTO regions (id, code, name) VALUES ($1, $2, 'empty region')`, []any{regionEmpty, regionCodeEmpty}},
		{`INSERT INTO generation_types (id, code, name) VALUES ($1, 'ZZT', 'test type')`, []any{genTypeID}},
		{`INSERT INTO impact_categories (id, name, unit) VALUES ($1, 'test category', 'g CO2 eq.')`, []any{categoryID}},
		{`INSERT INTO environmental_impacts (id, generation_type_id, impact_category_id, reference_year, impact_value, per_unit)
VALUES (9001, $1, $2, 2019, 500, 'kWh'), (9002, $1, $2, 2021, 280, 'kWh')`, []any{genTypeID, categoryID}},
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return err
		}
	}
	return nil
}

func cleanup(ctx context.Context, db *sql.DB) {
	_, _ = db.ExecContext(ctx, "DELETE FROM electricity_generation WHERE region_id IN ($1, $2)", regionWithData, regionEmpty)
	_, _ = db.ExecContext(ctx, "DELETE FROM environmental_impacts WHERE impact_category_id = $1", categoryID)
	_, _ = db.ExecContext(ctx, "DELETE FROM impact_categories WHERE id = $1", categoryID)
	_, _ = db.ExecContext(ctx, "DELETE FROM generation_types WHERE id = $1", genTypeID)
	_, _ = db.ExecContext(ctx, "DELETE FROM regions WHERE id IN ($1, $2)", regionWithData, regionEmpty)
}

func applyMigrations(db *sql.DB) error {
	content, err := os.ReadFile(filepath.Join(projectRoot(), "migrations", "0001_init.sql"))
	if err != nil {
		return err
	}
	_, err = db.Exec(string(content))
	return err
}

func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return filepath.Clean(filepath.Join(dir, "..", "..", ".."))
}
