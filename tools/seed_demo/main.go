package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	generation "lcatricity/internal/generation/domain"
	genrepo "lcatricity/internal/generation/infrastructure/postgres"
	"lcatricity/internal/storage/memory"
)

type config struct {
	dsn        string
	migrations string
	until      string
	days       int
}

func main() {
	cfg := parseConfig()
	if cfg.dsn == "" {
		fatal("PG_DSN or DATABASE_URL is required", nil)
	}
	if cfg.days <= 0 {
		fatal("days must be > 0", nil)
	}
	until := time.Now().UTC()
	if cfg.until != "" {
		parsed, err := time.Parse(generation.DateLayout, cfg.until)
		if err != nil {
			fatal("invalid until date", err)
		}
		until = parsed
	}

	db, err := sql.Open("pgx", cfg.dsn)
	if err != nil {
		fatal("open db", err)
	}
	defer db.Close()

	ctx := context.Background()
	if cfg.migrations != "" {
		if err := applySchema(ctx, db, cfg.migrations); err != nil {
			fatal("apply schema", err)
		}
	}

	demo, err := memory.NewDemoStore(ctx, until, cfg.days)
	if err != nil {
		fatal("build demo data", err)
	}
	if err := seedReference(ctx, db, demo); err != nil {
		fatal("seed reference data", err)
	}

	store := genrepo.NewStore(db)
	regions, err := demo.ListRegions(ctx)
	if err != nil {
		fatal("list regions", err)
	}
	types, err := demo.ListGenerationTypes(ctx)
	if err != nil {
		fatal("list generation types", err)
	}
	end := time.Date(until.Year(), until.Month(), until.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	window := generation.Window{Start: end.AddDate(0, 0, -cfg.days), End: end}
	for _, region := range regions {
		for _, genType := range types {
			typeID := genType.ID
			records, err := demo.FetchGeneration(ctx, generation.Query{
				Region:           region,
				GenerationTypeID: &typeID,
				Window:           window,
				RowLimit:         cfg.days*96 + 1,
			})
			if err != nil {
				fatal("read demo generation", err)
			}
			if len(records) == 0 {
				continue
			}
			points := make([]generation.Point, 0, len(records))
			for _, rec := range records {
				points = append(points, generation.Point{Timestamp: rec.Timestamp, AggregatedGeneration: rec.AggregatedGeneration})
			}
			deleted, inserted, err := store.ReplaceGeneration(ctx, region.ID, typeID, points)
			if err != nil {
				fatal("replace generation", err)
			}
			slog.Info("seeded generation", "region", region.Code, "generation_type", genType.Code, "deleted", deleted, "inserted", inserted)
		}
	}
	slog.Info("seed complete", "days", cfg.days, "until", end.Format(generation.DateLayout))
}

func parseConfig() config {
	cfg := config{}
	flag.StringVar(&cfg.dsn, "pg-dsn", envOrDefault("PG_DSN", envOrDefault("DATABASE_URL", "")), "Postgres DSN")
	flag.StringVar(&cfg.migrations, "schema", envOrDefault("SCHEMA_FILE", ""), "optional SQL file applied before seeding")
	flag.StringVar(&cfg.until, "until", envOrDefault("UNTIL", ""), "last seeded day (YYYY-MM-DD), default today")
	flag.IntVar(&cfg.days, "days", envOrInt("DAYS", 7), "number of days to seed")
	flag.Parse()
	return cfg
}

func applySchema(ctx context.Context, db *sql.DB, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(data))
	return err
}

func seedReference(ctx context.Context, db *sql.DB, demo *memory.Store) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	regions, err := demo.ListRegions(ctx)
	if err != nil {
		return err
	}
	for _, r := range regions {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO regions (id, code, name) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, name = EXCLUDED.name`, r.ID, r.Code, r.Name); err != nil {
			return fmt.Errorf("region %s: %w", r.Code, err)
		}
	}

	types, err := demo.ListGenerationTypes(ctx)
	if err != nil {
		return err
	}
	for _, t := range types {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO generation_types (id, code, name) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, name = EXCLUDED.name`, t.ID, t.Code, t.Name); err != nil {
			return fmt.Errorf("generation type %s: %w", t.Code, err)
		}
	}

	mappings, err := demo.ListGenerationTypeMappings(ctx)
	if err != nil {
		return err
	}
	for _, m := range mappings {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO generation_type_mappings (generation_type_id, source_name, source_system) VALUES ($1, $2, $3)
ON CONFLICT (source_system, source_name) DO UPDATE SET generation_type_id = EXCLUDED.generation_type_id`,
			m.GenerationTypeID, m.SourceName, m.SourceSystem); err != nil {
			return fmt.Errorf("mapping %s: %w", m.SourceName, err)
		}
	}

	categories, err := demo.ListImpactCategories(ctx)
	if err != nil {
		return err
	}
	for _, c := range categories {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO impact_categories (id, name, unit) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, unit = EXCLUDED.unit`, c.ID, c.Name, c.Unit); err != nil {
			return fmt.Errorf("impact category %d: %w", c.ID, err)
		}
		factors, err := demo.ListFactors(ctx, c.ID)
		if err != nil {
			return err
		}
		for _, f := range factors {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO environmental_impacts (id, generation_type_id, impact_category_id, reference_year, impact_value, per_unit)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET impact_value = EXCLUDED.impact_value, per_unit = EXCLUDED.per_unit`,
				f.ID, f.GenerationTypeID, f.ImpactCategoryID, f.ReferenceYear, f.ImpactValue, f.PerUnit); err != nil {
				return fmt.Errorf("impact factor %d: %w", f.ID, err)
			}
		}
	}
	return tx.Commit()
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func fatal(msg string, err error) {
	if err != nil {
		slog.Error(msg, "err", err)
	} else {
		slog.Error(msg)
	}
	os.Exit(1)
}
