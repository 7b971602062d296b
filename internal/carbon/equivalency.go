package carbon

import (
	"fmt"
	"math"
)

// Equivalency constants, kg CO2e per unit of activity (EPA 2024 edition).
const (
	EPAMilesDrivenFactor      = 0.192
	EPASmartphoneChargeFactor = 0.00822

	// MinDisplayThresholdKg is the smallest value worth displaying.
	MinDisplayThresholdKg = 0.001

	// MinEquivalencyThresholdKg is the smallest value that gets equivalencies.
	MinEquivalencyThresholdKg = 1.0
)

// Equivalency is a relatable comparison for a footprint.
type Equivalency struct {
	MilesDriven        float64 `json:"milesDriven"`
	SmartphonesCharged float64 `json:"smartphonesCharged"`
	DisplayText        string  `json:"displayText"`
}

// Equivalencies converts kg CO2e into driving and phone-charging equivalents.
//
// It returns (zero, false, nil) below MinEquivalencyThresholdKg and
// ErrNegativeValue or ErrCalculationOverflow for unusable input.
func Equivalencies(kg float64) (Equivalency, bool, error) {
	if math.IsInf(kg, 0) || math.IsNaN(kg) {
		return Equivalency{}, false, ErrCalculationOverflow
	}
	if kg < 0 {
		return Equivalency{}, false, ErrNegativeValue
	}
	if kg < MinEquivalencyThresholdKg {
		return Equivalency{}, false, nil
	}

	miles := kg / EPAMilesDrivenFactor
	phones := kg / EPASmartphoneChargeFactor
	return Equivalency{
		MilesDriven:        miles,
		SmartphonesCharged: phones,
		DisplayText: fmt.Sprintf("Equivalent to driving ~%s miles or charging ~%s smartphones",
			FormatNumber(int64(math.Round(miles))), FormatNumber(int64(math.Round(phones)))),
	}, true, nil
}
