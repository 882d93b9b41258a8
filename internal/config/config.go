package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConversionFactor maps one physical unit to another.
type ConversionFactor struct {
	From   string  `yaml:"from"`
	To     string  `yaml:"to"`
	Factor float64 `yaml:"factor"`
}

// Availability bounds the per-region coverage report.
type Availability struct {
	DefaultMaxRows int `yaml:"default_max_rows"`
	MaxRowsLimit   int `yaml:"max_rows_limit"`
}

// Calculation holds the settings of the generation and impact pipelines.
type Calculation struct {
	RowLimit              int                `yaml:"row_limit"`
	MaxDatapoints         int                `yaml:"max_datapoints"`
	ResampleLadder        []string           `yaml:"resample_ladder"`
	DefaultGenerationUnit string             `yaml:"default_generation_unit"`
	ConversionFactors     []ConversionFactor `yaml:"conversion_factors"`
	Availability          Availability       `yaml:"availability"`
}

// Default returns the built-in calculation settings.
func Default() Calculation {
	return Calculation{
		RowLimit:              1000,
		MaxDatapoints:         1000,
		ResampleLadder:        []string{"1h", "4h", "6h", "1d", "1mo"},
		DefaultGenerationUnit: "MJ",
		ConversionFactors: []ConversionFactor{
			{From: "MJ", To: "kWh", Factor: 3.6},
		},
		Availability: Availability{
			DefaultMaxRows: 100,
			MaxRowsLimit:   200,
		},
	}
}

// LoadCalculation loads settings from the yaml file named by LCA_CALC_CONFIG,
// then applies env overrides.
func LoadCalculation() (Calculation, error) {
	cfg := Default()

	if path := os.Getenv("LCA_CALC_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.RowLimit = getenvIntDefault("LCA_ROW_LIMIT", cfg.RowLimit)
	cfg.MaxDatapoints = getenvIntDefault("LCA_MAX_DATAPOINTS", cfg.MaxDatapoints)
	if ladder := splitCSV(os.Getenv("LCA_RESAMPLE_LADDER")); len(ladder) > 0 {
		cfg.ResampleLadder = ladder
	}
	if unit := os.Getenv("LCA_DEFAULT_GENERATION_UNIT"); unit != "" {
		cfg.DefaultGenerationUnit = unit
	}

	return cfg, cfg.Validate()
}

// Validate rejects settings the pipelines cannot run with.
func (c Calculation) Validate() error {
	if c.RowLimit <= 0 {
		return errors.New("config: row_limit must be positive")
	}
	if c.MaxDatapoints <= 0 {
		return errors.New("config: max_datapoints must be positive")
	}
	if len(c.ResampleLadder) == 0 {
		return errors.New("config: resample_ladder is empty")
	}
	if c.DefaultGenerationUnit == "" {
		return errors.New("config: default_generation_unit is empty")
	}
	for _, f := range c.ConversionFactors {
		if f.From == "" || f.To == "" || f.Factor <= 0 {
			return errors.New("config: invalid conversion factor " + f.From + "->" + f.To)
		}
	}
	if c.Availability.DefaultMaxRows <= 0 || c.Availability.MaxRowsLimit < c.Availability.DefaultMaxRows {
		return errors.New("config: invalid availability row bounds")
	}
	return nil
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
