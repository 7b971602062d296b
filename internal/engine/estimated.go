package engine

import (
	"context"
	"fmt"

	"github.com/VeganGarden/MyGarden-sub002/internal/baseline"
	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/logging"
)

// BaselineResolver walks the baseline fallback chain. *baseline.Resolver
// implements it.
type BaselineResolver interface {
	Resolve(ctx context.Context, mealType carbon.MealType, region string, energyType carbon.EnergyType) baseline.Resolution
}

// EstimatedCalculator is the L1 calculator. The resolved baseline is the
// estimate; it is split into buckets by the allocation policy.
type EstimatedCalculator struct {
	baselines BaselineResolver
	policy    Policy
}

// NewEstimatedCalculator creates the L1 calculator.
func NewEstimatedCalculator(baselines BaselineResolver, policy Policy) *EstimatedCalculator {
	return &EstimatedCalculator{baselines: baselines, policy: policy}
}

// Calculate returns the baseline estimate for the request's meal type,
// region and energy type. Ingredient detail is ignored and the call never
// fails for a well-formed request.
func (c *EstimatedCalculator) Calculate(ctx context.Context, req *carbon.FootprintRequest) (*carbon.FootprintResult, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is nil", carbon.ErrInvalidRequest)
	}

	res := c.baselines.Resolve(ctx, req.MealType, req.Region, req.EnergyType)
	alloc := c.policy.Allocation
	v := res.Value
	info := baseline.ClassifyAgainst(v, res, c.policy.UncertaintyRatio).Info

	result := &carbon.FootprintResult{
		Value: v,
		Breakdown: carbon.Breakdown{
			Ingredients: v * alloc.Ingredients,
			Energy:      v * alloc.Energy,
			Packaging:   v * alloc.Packaging,
			Transport:   v * alloc.Transport,
		},
		FactorMatchInfo: []carbon.FactorMatch{},
		Details: carbon.CalculationDetails{
			Allocation: &alloc,
			Baseline:   &info,
		},
		CalculationLevel: carbon.LevelEstimated,
		IsEstimated:      true,
	}
	if res.Source == carbon.BaselineSourceDefault {
		result.Details.Warnings = append(result.Details.Warnings,
			fmt.Sprintf("no baseline found for %s in %s, using the default estimate %.2f kg CO2e", req.MealType, res.Region, v))
	}

	logging.FromContext(ctx).Debug().
		Ctx(ctx).
		Str("component", "engine").
		Str("operation", "calculate").
		Str("level", carbon.LevelEstimated.String()).
		Str("baseline_source", res.Source).
		Float64("value", v).
		Msg("footprint estimated")
	return result, nil
}
