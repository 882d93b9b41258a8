package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	impact "lcatricity/internal/impact/domain"
)

const defaultFactorsTable = "environmental_impacts"

// FactorRepository reads environmental impact factors.
type FactorRepository struct {
	db    *sql.DB
	table string
}

// NewFactorRepository constructs a repository.
func NewFactorRepository(db *sql.DB) *FactorRepository {
	return &FactorRepository{db: db, table: defaultFactorsTable}
}

// ListFactors returns, per generation type, the factor with the latest reference year in the category.
func (r *FactorRepository) ListFactors(ctx context.Context, impactCategoryID int64) ([]impact.Factor, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("factor repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT DISTINCT ON (generation_type_id)
	id,
	generation_type_id,
	impact_category_id,
	reference_year,
	impact_value,
	per_unit
FROM %s
WHERE impact_category_id = $1
ORDER BY generation_type_id ASC, reference_year DESC, id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, impactCategoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []impact.Factor
	for rows.Next() {
		var f impact.Factor
		if err := rows.Scan(&f.ID, &f.GenerationTypeID, &f.ImpactCategoryID, &f.ReferenceYear, &f.ImpactValue, &f.PerUnit); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
