// Package emission computes CO2-equivalent mass from utility consumption.
//
// Factors are loaded from an embedded YAML table keyed by utility type,
// with optional per-provider overrides (e.g. different fuel blends).
// Values are kgCO2e per native unit (kWh, m3, litre).
package emission

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tenagalabs/jejak/internal/domain"
)

//go:embed factors.yaml
var defaultFactorsYAML []byte

// factorEntry is one row of the YAML table.
type factorEntry struct {
	Factor    float64            `yaml:"factor"`
	Unit      string             `yaml:"unit"`
	Providers map[string]float64 `yaml:"providers"`
}

type factorTable struct {
	Factors map[string]factorEntry `yaml:"factors"`
}

// Calculator resolves emission factors and computes CO2e.
type Calculator struct {
	table factorTable
}

// NewCalculator loads the embedded factor table.
func NewCalculator() (*Calculator, error) {
	return NewCalculatorFromYAML(defaultFactorsYAML)
}

// NewCalculatorFromYAML loads a factor table from raw YAML, allowing
// deployments to ship updated factors without a code change.
func NewCalculatorFromYAML(data []byte) (*Calculator, error) {
	var table factorTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse emission factors: %w", err)
	}

	for _, ut := range []domain.UtilityType{
		domain.UtilityElectricity,
		domain.UtilityWater,
		domain.UtilityNaturalGas,
		domain.UtilityFuel,
	} {
		entry, ok := table.Factors[string(ut)]
		if !ok {
			return nil, fmt.Errorf("emission factor table missing utility type %q", ut)
		}
		if entry.Factor <= 0 {
			return nil, fmt.Errorf("emission factor for %q must be positive, got %v", ut, entry.Factor)
		}
	}

	return &Calculator{table: table}, nil
}

// Factor returns the kgCO2e-per-unit factor for a utility type and
// provider. Unknown providers fall back to the utility default.
func (c *Calculator) Factor(utility domain.UtilityType, provider string) (float64, error) {
	entry, ok := c.table.Factors[string(utility)]
	if !ok {
		return 0, fmt.Errorf("no emission factor for utility type %q", utility)
	}

	if provider != "" {
		key := strings.ToLower(strings.TrimSpace(provider))
		if f, ok := entry.Providers[key]; ok {
			return f, nil
		}
	}
	return entry.Factor, nil
}

// Unit returns the native consumption unit for a utility type.
func (c *Calculator) Unit(utility domain.UtilityType) string {
	if entry, ok := c.table.Factors[string(utility)]; ok {
		return entry.Unit
	}
	return ""
}

// CO2eKg computes the CO2-equivalent mass in kilograms for the given
// consumption.
func (c *Calculator) CO2eKg(utility domain.UtilityType, provider string, consumption float64) (float64, error) {
	factor, err := c.Factor(utility, provider)
	if err != nil {
		return 0, err
	}
	return consumption * factor, nil
}
