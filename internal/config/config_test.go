package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCalculationDefaults(t *testing.T) {
	t.Setenv("LCA_CALC_CONFIG", "")
	t.Setenv("LCA_ROW_LIMIT", "")
	t.Setenv("LCA_RESAMPLE_LADDER", "")

	cfg, err := LoadCalculation()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.RowLimit)
	assert.Equal(t, []string{"1h", "4h", "6h", "1d", "1mo"}, cfg.ResampleLadder)
	assert.Equal(t, []ConversionFactor{{From: "MJ", To: "kWh", Factor: 3.6}}, cfg.ConversionFactors)
}

func TestLoadCalculationFromYAMLWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calc.yaml")
	body := `
row_limit: 500
resample_ladder: [1h, 1d]
conversion_factors:
  - {from: MJ, to: kWh, factor: 3.6}
  - {from: MWh, to: kWh, factor: 1000}
availability:
  default_max_rows: 50
  max_rows_limit: 200
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("LCA_CALC_CONFIG", path)
	t.Setenv("LCA_ROW_LIMIT", "250")
	t.Setenv("LCA_RESAMPLE_LADDER", "")

	cfg, err := LoadCalculation()
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.RowLimit)
	assert.Equal(t, []string{"1h", "1d"}, cfg.ResampleLadder)
	assert.Len(t, cfg.ConversionFactors, 2)
	assert.Equal(t, 50, cfg.Availability.DefaultMaxRows)
}

func TestValidateRejectsBadFactor(t *testing.T) {
	cfg := Default()
	cfg.ConversionFactors = append(cfg.ConversionFactors, ConversionFactor{From: "MJ", To: "", Factor: 1})
	assert.Error(t, cfg.Validate())
}
