package impact

import (
	"time"

	generation "lcatricity/internal/generation/domain"
	referencedata "lcatricity/internal/referencedata/domain"
)

// Row is one generation interval joined to its impact factor.
type Row struct {
	RegionCode                    string    `json:"RegionCode"`
	DateStamp                     time.Time `json:"DateStamp"`
	GenerationTypeID              int64     `json:"GenerationTypeId"`
	AggregatedGeneration          float64   `json:"AggregatedGeneration"`
	GenerationUnit                string    `json:"GenerationUnit"`
	ImpactFactorID                int64     `json:"ImpactFactorId"`
	ImpactCategoryID              int64     `json:"ImpactCategoryId"`
	ImpactCategoryName            string    `json:"ImpactCategoryName"`
	ImpactUnit                    string    `json:"ImpactUnit"`
	ReferenceYear                 int       `json:"ReferenceYear"`
	ImpactValue                   float64   `json:"ImpactValue"`
	PerUnit                       string    `json:"PerUnit"`
	ConversionFactor              float64   `json:"ConversionFactor"`
	AggregatedGenerationConverted float64   `json:"AggregatedGenerationConverted"`
	EnvironmentalImpact           float64   `json:"EnvironmentalImpact"`
}

// Calculation joins generation records to factors and computes the impact of each row.
type Calculation struct {
	Conversions    ConversionTable
	GenerationUnit string
	Category       referencedata.ImpactCategory
}

// Apply inner-joins records to factors on generation type. Records without a factor
// are dropped and counted; the output keeps the record order.
func (c Calculation) Apply(records []generation.Record, factors []Factor) ([]Row, int, error) {
	byType := make(map[int64][]Factor, len(factors))
	for _, f := range factors {
		byType[f.GenerationTypeID] = append(byType[f.GenerationTypeID], f)
	}

	rows := make([]Row, 0, len(records))
	dropped := 0
	for _, rec := range records {
		matches := byType[rec.GenerationTypeID]
		if len(matches) == 0 {
			dropped++
			continue
		}
		for _, f := range matches {
			conversion, err := c.Conversions.Factor(c.GenerationUnit, f.PerUnit)
			if err != nil {
				return nil, dropped, err
			}
			converted := rec.AggregatedGeneration * conversion
			rows = append(rows, Row{
				RegionCode:                    rec.RegionCode,
				DateStamp:                     rec.Timestamp,
				GenerationTypeID:              rec.GenerationTypeID,
				AggregatedGeneration:          rec.AggregatedGeneration,
				GenerationUnit:                c.GenerationUnit,
				ImpactFactorID:                f.ID,
				ImpactCategoryID:              f.ImpactCategoryID,
				ImpactCategoryName:            c.Category.Name,
				ImpactUnit:                    c.Category.Unit,
				ReferenceYear:                 f.ReferenceYear,
				ImpactValue:                   f.ImpactValue,
				PerUnit:                       f.PerUnit,
				ConversionFactor:              conversion,
				AggregatedGenerationConverted: converted,
				EnvironmentalImpact:           converted * f.ImpactValue,
			})
		}
	}
	return rows, dropped, nil
}
