package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/logging"
)

// Traceability coverage thresholds for the data completeness grade.
const (
	highCoverage   = 0.8
	mediumCoverage = 0.5
)

// MeasuredCalculator is the L3 calculator. It shares the L2 ingredient and
// packaging steps, prices energy from a meter reading when one is supplied and
// accepts a caller-provided transport factor.
type MeasuredCalculator struct {
	*StandardCalculator
}

// NewMeasuredCalculator creates the L3 calculator on top of an L2 calculator.
func NewMeasuredCalculator(standard *StandardCalculator) *MeasuredCalculator {
	return &MeasuredCalculator{StandardCalculator: standard}
}

// Calculate computes the L3 footprint. A meter reading whose energy type has
// no emission factor fails the call with carbon.ErrEnergyFactorNotFound;
// unmatched ingredients are tolerated as in L2.
func (c *MeasuredCalculator) Calculate(ctx context.Context, req *carbon.FootprintRequest) (*carbon.FootprintResult, error) {
	result, err := c.calculate(ctx, req, carbon.LevelMeasured, c.meteredEnergy, c.tracedTransport)
	if err != nil {
		return nil, err
	}

	dc := DataCompletenessOf(req)
	result.Details.DataCompleteness = &dc

	logging.FromContext(ctx).Info().
		Ctx(ctx).
		Str("component", "engine").
		Str("operation", "audit").
		Str("restaurant_id", req.RestaurantID).
		Bool("has_meter_reading", dc.HasMeterReading).
		Bool("has_traceability", dc.TraceableIngredients > 0).
		Float64("traceability_coverage", dc.TraceabilityCoverage).
		Str("completeness", string(dc.Level)).
		Float64("value", result.Value).
		Msg("measured footprint calculated")
	return result, nil
}

// meteredEnergy prices a meter reading, or falls back to the L2 energy step
// when the request has none.
func (c *MeasuredCalculator) meteredEnergy(k *calculation) error {
	mr := k.req.MeterReading
	if mr == nil {
		return c.energy(k)
	}

	unit, err := carbon.NormalizeMeterUnit(mr.Unit)
	if err != nil {
		return fmt.Errorf("meter reading unit %q: %w", mr.Unit, err)
	}
	if want := carbon.MeterUnitFor(k.req.EnergyType); unit != want {
		return fmt.Errorf("meter reading in %s for %s energy, want %s: %w", unit, k.req.EnergyType, want, carbon.ErrInvalidUnit)
	}
	if mr.EnergyConsumption < 0 {
		return fmt.Errorf("meter reading consumption %.4f: %w", mr.EnergyConsumption, carbon.ErrNegativeValue)
	}

	f, err := c.matchEnergy(k)
	if err != nil {
		return fmt.Errorf("matching %s energy factor in %s: %w", k.req.EnergyType, k.region, err)
	}
	if !f.HasValue() {
		return fmt.Errorf("%w: %s in %s", carbon.ErrEnergyFactorNotFound, k.req.EnergyType, k.region)
	}

	trace := &carbon.EnergyTrace{
		Method:        EnergyMethodMeter,
		CookingMethod: strings.TrimSpace(k.req.CookingMethod),
		EnergyType:    k.req.EnergyType,
		Consumption:   mr.EnergyConsumption,
		ConsumptionIn: unit,
		Factor:        f,
		FactorValue:   f.Value(),
		Carbon:        mr.EnergyConsumption * f.Value(),
	}
	k.result.Breakdown.Energy = trace.Carbon
	k.result.Details.Energy = trace
	return nil
}

// tracedTransport uses the caller's traceability factor when present and the
// catalog otherwise.
func (c *MeasuredCalculator) tracedTransport(k *calculation, t *carbon.TransportInfo) *carbon.EmissionFactor {
	if t.TraceabilityFactor == nil {
		return c.catalogTransport(k, t)
	}
	v := *t.TraceabilityFactor
	return &carbon.EmissionFactor{
		Name:        strings.TrimSpace(t.Mode),
		Category:    carbon.CategoryTransport,
		Region:      k.region,
		FactorValue: &v,
		Source:      "traceability",
		MatchLevel:  carbon.MatchTraceability,
	}
}

// DataCompletenessOf grades the measured data behind a request: high needs a
// meter reading and at least 80% traceable ingredients, medium needs either a
// meter reading or 50% coverage.
func DataCompletenessOf(req *carbon.FootprintRequest) carbon.DataCompleteness {
	dc := carbon.DataCompleteness{
		HasMeterReading:  req.MeterReading != nil,
		TotalIngredients: len(req.Ingredients),
	}
	for _, line := range req.Ingredients {
		if len(line.Traceability) > 0 {
			dc.TraceableIngredients++
		}
	}
	if dc.TotalIngredients > 0 {
		dc.TraceabilityCoverage = float64(dc.TraceableIngredients) / float64(dc.TotalIngredients)
	}

	switch {
	case dc.HasMeterReading && dc.TraceabilityCoverage >= highCoverage:
		dc.Level = carbon.CompletenessHigh
	case dc.HasMeterReading || dc.TraceabilityCoverage >= mediumCoverage:
		dc.Level = carbon.CompletenessMedium
	default:
		dc.Level = carbon.CompletenessLow
	}
	return dc
}
