package carbon

import (
	"math"
	"strings"
)

// Mass and volume conversion factors to kilograms (or litres treated as kilograms).
const (
	GramsToKg = 0.001
	KgToKg    = 1.0
)

// Meter reading units.
const (
	UnitKWh = "kWh"
	UnitM3  = "m³"
)

// quantityFactor returns the factor converting an ingredient unit into kilograms
// and whether the unit is recognized.
func quantityFactor(unit string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "g", "克", "ml", "毫升":
		return GramsToKg, true
	case "kg", "千克", "l", "升":
		return KgToKg, true
	default:
		return 0, false
	}
}

// IsRecognizedQuantityUnit reports whether unit is an accepted ingredient unit.
func IsRecognizedQuantityUnit(unit string) bool {
	_, ok := quantityFactor(unit)
	return ok
}

// QuantityToKg converts an ingredient quantity to kilograms.
//
// Units IsRecognizedQuantityUnit rejects are assumed to be grams. Volumes are
// treated at a density of 1.
func QuantityToKg(quantity float64, unit string) (float64, error) {
	if math.IsInf(quantity, 0) || math.IsNaN(quantity) {
		return 0, ErrCalculationOverflow
	}
	if quantity < 0 {
		return 0, ErrNegativeValue
	}
	factor, ok := quantityFactor(unit)
	if !ok {
		factor = GramsToKg
	}
	return quantity * factor, nil
}

// NormalizeMeterUnit maps accepted spellings of a meter unit onto UnitKWh or UnitM3.
func NormalizeMeterUnit(unit string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "kwh":
		return UnitKWh, nil
	case "m³", "m3":
		return UnitM3, nil
	default:
		return "", ErrInvalidUnit
	}
}

// MeterUnitFor returns the meter unit an energy type is measured in.
func MeterUnitFor(e EnergyType) string {
	if e == EnergyGas {
		return UnitM3
	}
	return UnitKWh
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	const base = 10
	m := math.Pow(base, float64(decimals))
	return math.Round(v*m) / m
}
