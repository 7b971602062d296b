// Package engine computes menu-item carbon footprints.
//
// Three calculators share one result shape:
//   - EstimatedCalculator (L1) maps the regional baseline onto the breakdown buckets.
//   - StandardCalculator (L2) prices the bill of materials, cooking energy,
//     packaging and transport with catalog emission factors.
//   - MeasuredCalculator (L3) reuses the L2 steps and replaces the energy step
//     with a meter reading when one is supplied.
//
// Service wraps the calculators with validation, restaurant lookup and
// baseline classification and is the entry point for every transport.
package engine

import (
	"context"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/validation"
)

// FactorMatcher resolves emission factors. *factor.Matcher implements it.
type FactorMatcher interface {
	MatchFactor(ctx context.Context, name, category, region string) (*carbon.EmissionFactor, error)
	MatchEnergy(ctx context.Context, energyType carbon.EnergyType, gridRegion, countryRegion string) (*carbon.EmissionFactor, error)
	MatchMaterial(ctx context.Context, name, region string) (*carbon.EmissionFactor, error)
	MatchTransport(ctx context.Context, mode, region string) (*carbon.EmissionFactor, error)
	ResolveRegion(ctx context.Context, region string) (string, string)
	CountryRegion(ctx context.Context, factorRegion string) string
}

// Coefficients serves tunable coefficients. *coefficients.Cache implements it.
type Coefficients interface {
	WasteRate(ctx context.Context, category string) float64
	EnergyFactor(ctx context.Context, energyType carbon.EnergyType) float64
	CookingTime(ctx context.Context, method string) float64
	CookingPower(ctx context.Context, method string) float64
}

// Calculator computes the footprint of one request.
type Calculator interface {
	Calculate(ctx context.Context, req *carbon.FootprintRequest) (*carbon.FootprintResult, error)
}

// Policy holds the tunable rules of the calculators.
type Policy struct {
	Limits           validation.Limits
	GasFlowDivisor   float64
	Allocation       carbon.Allocation
	UncertaintyRatio float64
}

// DefaultPolicy returns the compiled calculation policy.
func DefaultPolicy() Policy {
	return Policy{
		Limits:           validation.DefaultLimits(),
		GasFlowDivisor:   carbon.DefaultGasFlowDivisor,
		Allocation:       carbon.DefaultAllocation(),
		UncertaintyRatio: carbon.DefaultUncertaintyRatio,
	}
}

func (p Policy) gasFlowDivisor() float64 {
	if p.GasFlowDivisor <= 0 {
		return carbon.DefaultGasFlowDivisor
	}
	return p.GasFlowDivisor
}

// Calculators selects the calculator for a tier.
type Calculators struct {
	estimated *EstimatedCalculator
	standard  *StandardCalculator
	measured  *MeasuredCalculator
}

// NewCalculators builds the three tier calculators over shared collaborators.
func NewCalculators(matcher FactorMatcher, coeffs Coefficients, baselines BaselineResolver, policy Policy) *Calculators {
	standard := NewStandardCalculator(matcher, coeffs, policy)
	return &Calculators{
		estimated: NewEstimatedCalculator(baselines, policy),
		standard:  standard,
		measured:  NewMeasuredCalculator(standard),
	}
}

// For returns the calculator for level. An empty level selects L2.
func (c *Calculators) For(level carbon.Level) Calculator {
	switch level {
	case carbon.LevelEstimated:
		return c.estimated
	case carbon.LevelMeasured:
		return c.measured
	default:
		return c.standard
	}
}

// Calculate runs the calculator selected by the request's level.
func (c *Calculators) Calculate(ctx context.Context, req *carbon.FootprintRequest) (*carbon.FootprintResult, error) {
	return c.For(req.CalculationLevel).Calculate(ctx, req)
}
