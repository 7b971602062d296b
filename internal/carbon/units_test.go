package carbon

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityToKg(t *testing.T) {
	tests := []struct {
		name      string
		quantity  float64
		unit      string
		wantKg    float64
		wantKnown bool
		wantErr   error
	}{
		{name: "grams", quantity: 1000, unit: "g", wantKg: 1, wantKnown: true},
		{name: "kilograms", quantity: 1, unit: "kg", wantKg: 1, wantKnown: true},
		{name: "chinese grams", quantity: 250, unit: "克", wantKg: 0.25, wantKnown: true},
		{name: "chinese kilograms", quantity: 2, unit: "千克", wantKg: 2, wantKnown: true},
		{name: "millilitres", quantity: 500, unit: "ml", wantKg: 0.5, wantKnown: true},
		{name: "chinese millilitres", quantity: 500, unit: "毫升", wantKg: 0.5, wantKnown: true},
		{name: "litres", quantity: 1.5, unit: "l", wantKg: 1.5, wantKnown: true},
		{name: "chinese litres", quantity: 1.5, unit: "升", wantKg: 1.5, wantKnown: true},
		{name: "case insensitive", quantity: 2, unit: "KG", wantKg: 2, wantKnown: true},
		{name: "unknown unit assumed grams", quantity: 300, unit: "cup", wantKg: 0.3, wantKnown: false},
		{name: "empty unit assumed grams", quantity: 100, unit: "", wantKg: 0.1, wantKnown: false},
		{name: "negative", quantity: -1, unit: "g", wantErr: ErrNegativeValue},
		{name: "nan", quantity: math.NaN(), unit: "g", wantErr: ErrCalculationOverflow},
		{name: "infinite", quantity: math.Inf(1), unit: "kg", wantErr: ErrCalculationOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kg, err := QuantityToKg(tt.quantity, tt.unit)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantKg, kg, 1e-9)
			assert.Equal(t, tt.wantKnown, IsRecognizedQuantityUnit(tt.unit))
		})
	}
}

func TestQuantityToKg_GramsEqualKilograms(t *testing.T) {
	g, err := QuantityToKg(1000, "g")
	require.NoError(t, err)
	kg, err := QuantityToKg(1, "kg")
	require.NoError(t, err)
	assert.InDelta(t, kg, g, 1e-12)
}

func TestNormalizeMeterUnit(t *testing.T) {
	for in, want := range map[string]string{"kWh": UnitKWh, "KWH": UnitKWh, "m³": UnitM3, "m3": UnitM3} {
		got, err := NormalizeMeterUnit(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := NormalizeMeterUnit("MJ")
	assert.ErrorIs(t, err, ErrInvalidUnit)
}

func TestMeterUnitFor(t *testing.T) {
	assert.Equal(t, UnitKWh, MeterUnitFor(EnergyElectric))
	assert.Equal(t, UnitKWh, MeterUnitFor(EnergyMixed))
	assert.Equal(t, UnitM3, MeterUnitFor(EnergyGas))
}

func TestDefaultAllocationSumsToOne(t *testing.T) {
	assert.InDelta(t, 1.0, DefaultAllocation().Sum(), 1e-9)
}
