package carbon

// Default regions.
const (
	DefaultFactorRegion   = "CN"
	DefaultBaselineRegion = "national_average"
	GlobalRegion          = "Global"
)

// Engine limits and ratios.
const (
	// DefaultUncertaintyRatio widens a baseline without uncertainty data to ±10%.
	DefaultUncertaintyRatio = 0.1

	// DefaultMaxFootprintKg is the sanity ceiling for a single dish.
	DefaultMaxFootprintKg = 100.0

	// DefaultSumTolerance is the allowed gap between a value and its breakdown sum.
	DefaultSumTolerance = 0.01

	// DefaultGasFlowDivisor converts burner power (kW) into gas flow (m³/h).
	DefaultGasFlowDivisor = 10.0

	// MaxCookingMinutes bounds the cookingTime request field.
	MaxCookingMinutes = 999.0

	// DefaultTransportWeightKg is used when a transport line has no weight.
	DefaultTransportWeightKg = 1.0

	minutesPerHour = 60.0
)

// Fallback keys and values used when configuration has no entry.
const (
	DefaultWasteKey          = "default"
	DefaultWasteRate         = 0.10
	DefaultCookingMinutes    = 10.0
	DefaultCookingPowerKW    = 2.0
	DefaultElectricFactorKWh = 0.5703
	DefaultGasFactorM3       = 2.16
)

// Baseline resolution sources.
const (
	BaselineSourceRegional = "regional"
	BaselineSourceNational = "national"
	BaselineSourceDefault  = "default"
)

// DefaultBaselines returns the compiled per-meal-type baseline values in kg CO2e.
func DefaultBaselines() map[MealType]float64 {
	return map[MealType]float64{
		MealTypeMeatSimple: 5.0,
		MealTypeMeatFull:   7.5,
	}
}

// DefaultAllocation returns the split applied to L1 estimates.
func DefaultAllocation() Allocation {
	return Allocation{Ingredients: 0.7, Energy: 0.2, Packaging: 0.05, Transport: 0.05}
}

// DefaultWasteRates returns the compiled waste rate table keyed by ingredient category.
func DefaultWasteRates() map[string]float64 {
	return map[string]float64{
		"vegetables":    0.20,
		"vegetable":     0.20,
		"leafy":         0.20,
		"meat":          0.05,
		"seafood":       0.15,
		"grains":        0.0,
		"grain":         0.0,
		"nuts":          0.0,
		"spices":        0.0,
		"others":        0.10,
		"other":         0.10,
		DefaultWasteKey: DefaultWasteRate,
	}
}

// DefaultEnergyFactors returns the compiled kg CO2e per kWh (electric) or m³ (gas).
func DefaultEnergyFactors() map[EnergyType]float64 {
	return map[EnergyType]float64{
		EnergyElectric: DefaultElectricFactorKWh,
		EnergyGas:      DefaultGasFactorM3,
	}
}

// DefaultCookingTimes returns typical cooking minutes keyed by method.
func DefaultCookingTimes() map[string]float64 {
	return map[string]float64{
		"raw":        0,
		"steamed":    15,
		"boiled":     20,
		"stir_fried": 5,
		"fried":      8,
		"baked":      45,
	}
}

// DefaultCookingPowers returns typical burner power in kW keyed by method.
func DefaultCookingPowers() map[string]float64 {
	return map[string]float64{
		"raw":        0,
		"steamed":    2.0,
		"boiled":     1.5,
		"stir_fried": 3.0,
		"fried":      5.0,
		"baked":      4.0,
	}
}

// MinutesToHours converts cooking minutes to hours.
func MinutesToHours(minutes float64) float64 {
	return minutes / minutesPerHour
}
