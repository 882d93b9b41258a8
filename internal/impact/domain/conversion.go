package impact

import (
	"fmt"

	"lcatricity/internal/apperr"
)

// UnitPair is a (from, to) unit conversion key.
type UnitPair struct {
	From string
	To   string
}

// ConversionTable maps unit pairs to multipliers. It is fixed at deploy time.
type ConversionTable map[UnitPair]float64

// DefaultConversionTable converts MJ to kWh.
func DefaultConversionTable() ConversionTable {
	return ConversionTable{{From: "MJ", To: "kWh"}: 3.6}
}

// Factor returns the multiplier for from -> to. A missing pair is a configuration error.
func (t ConversionTable) Factor(from, to string) (float64, error) {
	factor, ok := t[UnitPair{From: from, To: to}]
	if !ok {
		return 0, apperr.Configuration("no conversion factor from %q to %q", from, to)
	}
	return factor, nil
}

// Add registers a multiplier, rejecting duplicates and non-positive values.
func (t ConversionTable) Add(from, to string, factor float64) error {
	if from == "" || to == "" {
		return fmt.Errorf("conversion table: empty unit in %q->%q", from, to)
	}
	if factor <= 0 {
		return fmt.Errorf("conversion table: factor for %s->%s must be positive", from, to)
	}
	key := UnitPair{From: from, To: to}
	if _, exists := t[key]; exists {
		return fmt.Errorf("conversion table: duplicate pair %s->%s", from, to)
	}
	t[key] = factor
	return nil
}
