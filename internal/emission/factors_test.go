package emission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenagalabs/jejak/internal/domain"
)

func TestNewCalculator_EmbeddedTable(t *testing.T) {
	calc, err := NewCalculator()
	require.NoError(t, err)

	for _, ut := range []domain.UtilityType{
		domain.UtilityElectricity,
		domain.UtilityWater,
		domain.UtilityNaturalGas,
		domain.UtilityFuel,
	} {
		f, err := calc.Factor(ut, "")
		require.NoError(t, err, "factor for %s", ut)
		assert.Greater(t, f, 0.0)
		assert.NotEmpty(t, calc.Unit(ut))
	}
}

func TestCalculator_ProviderOverride(t *testing.T) {
	calc, err := NewCalculator()
	require.NoError(t, err)

	base, err := calc.Factor(domain.UtilityElectricity, "")
	require.NoError(t, err)

	sarawak, err := calc.Factor(domain.UtilityElectricity, "Sarawak Energy")
	require.NoError(t, err)
	assert.Less(t, sarawak, base, "hydro-heavy grid factor should be lower")

	// Unknown providers fall back to the utility default.
	unknown, err := calc.Factor(domain.UtilityElectricity, "Some Co-op")
	require.NoError(t, err)
	assert.Equal(t, base, unknown)
}

func TestCalculator_CO2eKg(t *testing.T) {
	calc, err := NewCalculatorFromYAML([]byte(`
factors:
  electricity: {factor: 0.5, unit: kWh}
  water: {factor: 0.4, unit: m3}
  natural_gas: {factor: 2.0, unit: m3}
  fuel: {factor: 2.5, unit: litre}
`))
	require.NoError(t, err)

	got, err := calc.CO2eKg(domain.UtilityElectricity, "", 1000)
	require.NoError(t, err)
	assert.InDelta(t, 500.0, got, 0.001)
}

func TestNewCalculatorFromYAML_Invalid(t *testing.T) {
	_, err := NewCalculatorFromYAML([]byte(`factors: {electricity: {factor: 0.5, unit: kWh}}`))
	assert.Error(t, err, "missing utility types must be rejected")

	_, err = NewCalculatorFromYAML([]byte(`not yaml: [`))
	assert.Error(t, err)

	_, err = NewCalculatorFromYAML([]byte(`
factors:
  electricity: {factor: -1, unit: kWh}
  water: {factor: 0.4, unit: m3}
  natural_gas: {factor: 2.0, unit: m3}
  fuel: {factor: 2.5, unit: litre}
`))
	assert.Error(t, err, "non-positive factors must be rejected")
}
