package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	referencedata "lcatricity/internal/referencedata/domain"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by the repository.
type DBTX interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Repository reads the reference tables.
type Repository struct {
	db DBTX
}

// NewRepository constructs a repository.
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// ListRegions returns all regions ordered by code.
func (r *Repository) ListRegions(ctx context.Context) ([]referencedata.Region, error) {
	var result []referencedata.Region
	err := r.query(ctx, `SELECT id, code, name FROM regions ORDER BY code ASC`, func(rows *sql.Rows) error {
		var item referencedata.Region
		if err := rows.Scan(&item.ID, &item.Code, &item.Name); err != nil {
			return err
		}
		result = append(result, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	return result, nil
}

// ListGenerationTypes returns all generation types ordered by id.
func (r *Repository) ListGenerationTypes(ctx context.Context) ([]referencedata.GenerationType, error) {
	var result []referencedata.GenerationType
	err := r.query(ctx, `SELECT id, code, name FROM generation_types ORDER BY id ASC`, func(rows *sql.Rows) error {
		var item referencedata.GenerationType
		if err := rows.Scan(&item.ID, &item.Code, &item.Name); err != nil {
			return err
		}
		result = append(result, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list generation types: %w", err)
	}
	return result, nil
}

// ListGenerationTypeMappings returns all source-system name mappings.
func (r *Repository) ListGenerationTypeMappings(ctx context.Context) ([]referencedata.GenerationTypeMapping, error) {
	var result []referencedata.GenerationTypeMapping
	err := r.query(ctx, `
SELECT generation_type_id, source_name, source_system
FROM generation_type_mappings
ORDER BY generation_type_id ASC, source_system ASC`, func(rows *sql.Rows) error {
		var item referencedata.GenerationTypeMapping
		if err := rows.Scan(&item.GenerationTypeID, &item.SourceName, &item.SourceSystem); err != nil {
			return err
		}
		result = append(result, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list generation type mappings: %w", err)
	}
	return result, nil
}

// ListImpactCategories returns all impact categories ordered by id.
func (r *Repository) ListImpactCategories(ctx context.Context) ([]referencedata.ImpactCategory, error) {
	var result []referencedata.ImpactCategory
	err := r.query(ctx, `SELECT id, name, unit FROM impact_categories ORDER BY id ASC`, func(rows *sql.Rows) error {
		var item referencedata.ImpactCategory
		if err := rows.Scan(&item.ID, &item.Name, &item.Unit); err != nil {
			return err
		}
		result = append(result, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list impact categories: %w", err)
	}
	return result, nil
}

func (r *Repository) query(ctx context.Context, query string, scan func(*sql.Rows) error) error {
	if r == nil || r.db == nil {
		return errors.New("reference repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
