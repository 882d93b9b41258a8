package impact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lcatricity/internal/apperr"
	generation "lcatricity/internal/generation/domain"
	referencedata "lcatricity/internal/referencedata/domain"
)

var climate = referencedata.ImpactCategory{ID: 1, Name: "climate change", Unit: "g CO2 eq."}

func TestApplyComputesConvertedGenerationAndImpact(t *testing.T) {
	ts := time.Date(2024, time.February, 1, 10, 0, 0, 0, time.UTC)
	records := []generation.Record{{RegionID: 3, RegionCode: "FR", GenerationTypeID: 6, Timestamp: ts, AggregatedGeneration: 3010}}
	factors := []Factor{{ID: 11, GenerationTypeID: 6, ImpactCategoryID: 1, ReferenceYear: 2021, ImpactValue: 280, PerUnit: "kWh"}}

	calc := Calculation{Conversions: DefaultConversionTable(), GenerationUnit: "MJ", Category: climate}
	rows, dropped, err := calc.Apply(records, factors)
	require.NoError(t, err)
	assert.Equal(t, 0, dropped)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "FR", row.RegionCode)
	assert.Equal(t, ts, row.DateStamp)
	assert.Equal(t, "MJ", row.GenerationUnit)
	assert.Equal(t, 3.6, row.ConversionFactor)
	assert.InDelta(t, 10836.0, row.AggregatedGenerationConverted, 1e-9)
	assert.InDelta(t, 3034080.0, row.EnvironmentalImpact, 1e-6)
	assert.Equal(t, "climate change", row.ImpactCategoryName)
	assert.Equal(t, "g CO2 eq.", row.ImpactUnit)
}

func TestApplyDropsRowsWithoutFactor(t *testing.T) {
	ts := time.Date(2024, time.February, 1, 10, 0, 0, 0, time.UTC)
	records := []generation.Record{
		{RegionCode: "FR", GenerationTypeID: 6, Timestamp: ts, AggregatedGeneration: 1},
		{RegionCode: "FR", GenerationTypeID: 99, Timestamp: ts, AggregatedGeneration: 1},
	}
	factors := []Factor{{ID: 11, GenerationTypeID: 6, ImpactCategoryID: 1, ImpactValue: 2, PerUnit: "kWh"}}

	calc := Calculation{Conversions: DefaultConversionTable(), GenerationUnit: "MJ", Category: climate}
	rows, dropped, err := calc.Apply(records, factors)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, dropped)
}

func TestApplyMissingConversionIsConfigurationError(t *testing.T) {
	records := []generation.Record{{GenerationTypeID: 6, AggregatedGeneration: 1}}
	factors := []Factor{{GenerationTypeID: 6, ImpactCategoryID: 1, PerUnit: "MWh"}}

	calc := Calculation{Conversions: DefaultConversionTable(), GenerationUnit: "MJ", Category: climate}
	_, _, err := calc.Apply(records, factors)
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestLatestPerGenerationType(t *testing.T) {
	factors := []Factor{
		{ID: 1, GenerationTypeID: 6, ImpactCategoryID: 1, ReferenceYear: 2018},
		{ID: 2, GenerationTypeID: 6, ImpactCategoryID: 1, ReferenceYear: 2021},
		{ID: 3, GenerationTypeID: 6, ImpactCategoryID: 2, ReferenceYear: 2023},
		{ID: 5, GenerationTypeID: 4, ImpactCategoryID: 1, ReferenceYear: 2020},
		{ID: 4, GenerationTypeID: 4, ImpactCategoryID: 1, ReferenceYear: 2020},
	}

	latest := LatestPerGenerationType(factors, 1)
	require.Len(t, latest, 2)
	assert.Equal(t, int64(4), latest[0].ID)
	assert.Equal(t, int64(2), latest[1].ID)
}

func TestConversionTableAdd(t *testing.T) {
	table := ConversionTable{}
	require.NoError(t, table.Add("MWh", "kWh", 1000))
	assert.Error(t, table.Add("MWh", "kWh", 1000))
	assert.Error(t, table.Add("GJ", "kWh", 0))
	assert.Error(t, table.Add("", "kWh", 1))

	factor, err := table.Factor("MWh", "kWh")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, factor)

	_, err = table.Factor("kWh", "MWh")
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}
