package memory

import (
	"context"
	"math"
	"time"

	generation "lcatricity/internal/generation/domain"
	impact "lcatricity/internal/impact/domain"
	referencedata "lcatricity/internal/referencedata/domain"
)

// Demo reference data. Region BE intentionally has no generation rows.
var (
	demoRegions = []referencedata.Region{
		{ID: 1, Code: "FR", Name: "France"},
		{ID: 2, Code: "NL", Name: "Netherlands"},
		{ID: 3, Code: "DE_LU", Name: "Germany-Luxembourg"},
		{ID: 4, Code: "BE", Name: "Belgium"},
	}
	demoGenerationTypes = []referencedata.GenerationType{
		{ID: 1, Code: "B14", Name: "Nuclear"},
		{ID: 2, Code: "B16", Name: "Solar"},
		{ID: 3, Code: "B19", Name: "Wind Onshore"},
		{ID: 4, Code: "B04", Name: "Fossil Gas"},
	}
	demoCategories = []referencedata.ImpactCategory{
		{ID: 1, Name: "Climate change", Unit: "kg CO2-Eq"},
		{ID: 2, Name: "Land use", Unit: "m2a crop-Eq"},
	}
	// base output per interval in MJ
	demoBase = map[int64]float64{1: 3010, 2: 420, 3: 910, 4: 1500}
)

// NewDemoStore returns a store with reference data and days of quarter-hourly
// generation ending at the UTC midnight after until.
func NewDemoStore(ctx context.Context, until time.Time, days int) (*Store, error) {
	s := NewStore()
	for _, r := range demoRegions {
		s.AddRegion(r)
	}
	for _, t := range demoGenerationTypes {
		s.AddGenerationType(t)
		s.AddGenerationTypeMapping(referencedata.GenerationTypeMapping{
			GenerationTypeID: t.ID,
			SourceName:       t.Name,
			SourceSystem:     "ENTSOE",
		})
	}
	for _, c := range demoCategories {
		s.AddImpactCategory(c)
	}

	var factorID int64
	for _, c := range demoCategories {
		for _, t := range demoGenerationTypes {
			// two reference years so pinning to the latest is visible
			for _, year := range []int{2019, 2021} {
				factorID++
				s.AddFactor(impact.Factor{
					ID:               factorID,
					GenerationTypeID: t.ID,
					ImpactCategoryID: c.ID,
					ReferenceYear:    year,
					ImpactValue:      demoImpactValue(c.ID, t.ID, year),
					PerUnit:          "kWh",
				})
			}
		}
	}

	if days <= 0 {
		return s, nil
	}
	end := time.Date(until.Year(), until.Month(), until.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)
	for _, r := range demoRegions[:3] {
		for _, t := range demoGenerationTypes {
			points := make([]generation.Point, 0, days*96)
			for ts := start; ts.Before(end); ts = ts.Add(15 * time.Minute) {
				points = append(points, generation.Point{
					Timestamp:            ts,
					AggregatedGeneration: demoValue(r.ID, t.ID, ts),
				})
			}
			if _, _, err := s.ReplaceGeneration(ctx, r.ID, t.ID, points); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func demoImpactValue(categoryID, typeID int64, year int) float64 {
	value := map[int64]float64{1: 0.012, 2: 0.045, 3: 0.011, 4: 0.49}[typeID]
	if categoryID == 2 {
		value *= 0.1
	}
	if year < 2021 {
		value *= 1.2
	}
	return value
}

func demoValue(regionID, typeID int64, ts time.Time) float64 {
	base := demoBase[typeID] * (1 + 0.25*float64(regionID-1))
	hour := float64(ts.Hour()) + float64(ts.Minute())/60
	switch typeID {
	case 2:
		daylight := math.Sin((hour - 6) / 12 * math.Pi)
		if daylight < 0 {
			return 0
		}
		return math.Round(base * daylight)
	case 3:
		return math.Round(base * (0.6 + 0.4*math.Cos(hour/24*2*math.Pi)))
	default:
		return math.Round(base * (0.9 + 0.1*math.Sin(hour/24*2*math.Pi)))
	}
}
