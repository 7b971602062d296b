package carbon

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors shared across the engine. Compare with errors.Is.
var (
	// ErrInvalidUnit indicates an unrecognized quantity or carbon unit.
	ErrInvalidUnit = constError("invalid unit")

	// ErrNegativeValue indicates a negative quantity where only non-negative values make sense.
	ErrNegativeValue = constError("negative value")

	// ErrCalculationOverflow indicates an Inf or NaN intermediate value.
	ErrCalculationOverflow = constError("calculation overflow")

	// ErrInvalidRequest wraps every input validation failure.
	ErrInvalidRequest = constError("invalid request")

	// ErrNotFound indicates a missing restaurant, menu item or recipe.
	ErrNotFound = constError("not found")

	// ErrEnergyFactorNotFound is fatal for measured (L3) energy calculations.
	ErrEnergyFactorNotFound = constError("energy emission factor not found")

	// ErrMissingRegion indicates neither the request nor the restaurant carries a region.
	ErrMissingRegion = constError("region not available for restaurant")
)
