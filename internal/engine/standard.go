package engine

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/logging"
	"github.com/VeganGarden/MyGarden-sub002/internal/validation"
)

// Energy trace methods.
const (
	EnergyMethodExplicit = "explicit_power"
	EnergyMethodStandard = "standard_model"
	EnergyMethodMeter    = "meter_reading"
)

// StandardCalculator is the L2 calculator: bill of materials, cooking energy,
// packaging and transport priced with catalog emission factors.
type StandardCalculator struct {
	matcher FactorMatcher
	coeffs  Coefficients
	policy  Policy
}

// NewStandardCalculator creates the L2 calculator.
func NewStandardCalculator(matcher FactorMatcher, coeffs Coefficients, policy Policy) *StandardCalculator {
	return &StandardCalculator{matcher: matcher, coeffs: coeffs, policy: policy}
}

// Calculate computes the L2 footprint. Unmatched factors and malformed lines
// are skipped with a warning; the only errors are context cancellation and
// invalid numeric input.
func (c *StandardCalculator) Calculate(ctx context.Context, req *carbon.FootprintRequest) (*carbon.FootprintResult, error) {
	return c.calculate(ctx, req, carbon.LevelStandard, c.energy, c.catalogTransport)
}

// calculation is the mutable state of one calculator run.
type calculation struct {
	ctx     context.Context
	req     *carbon.FootprintRequest
	level   carbon.Level
	region  string
	country string
	result  *carbon.FootprintResult
}

func (k *calculation) warn(operation, msg string) {
	k.result.Details.Warnings = append(k.result.Details.Warnings, msg)
	logging.FromContext(k.ctx).Warn().
		Ctx(k.ctx).
		Str("component", "engine").
		Str("operation", operation).
		Str("level", k.level.String()).
		Str("restaurant_id", k.req.RestaurantID).
		Msg(msg)
}

type (
	energyStep    func(k *calculation) error
	transportStep func(k *calculation, t *carbon.TransportInfo) *carbon.EmissionFactor
)

func (c *StandardCalculator) calculate(
	ctx context.Context,
	req *carbon.FootprintRequest,
	level carbon.Level,
	energy energyStep,
	transport transportStep,
) (*carbon.FootprintResult, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is nil", carbon.ErrInvalidRequest)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k := c.begin(ctx, req, level)
	c.ingredients(k)
	if err := energy(k); err != nil {
		return nil, err
	}
	c.packaging(k)
	c.transport(k, transport)
	c.finish(k)
	return k.result, nil
}

func (c *StandardCalculator) begin(ctx context.Context, req *carbon.FootprintRequest, level carbon.Level) *calculation {
	k := &calculation{
		ctx:   ctx,
		req:   req,
		level: level,
		result: &carbon.FootprintResult{
			FactorMatchInfo:  make([]carbon.FactorMatch, 0, len(req.Ingredients)),
			CalculationLevel: level,
		},
	}

	requested := req.FactorRegion
	if requested == "" {
		requested = req.Region
	}
	region, warning := c.matcher.ResolveRegion(ctx, requested)
	if warning != "" {
		k.result.Details.Warnings = append(k.result.Details.Warnings, warning)
	}
	k.region = region
	k.country = c.matcher.CountryRegion(ctx, region)
	k.result.Details.FactorRegion = region
	return k
}

func (c *StandardCalculator) finish(k *calculation) {
	k.result.Value = k.result.Breakdown.Sum()
	for _, w := range validation.CheckResult(k.result, c.policy.Limits) {
		k.warn("check_result", w)
	}

	logging.FromContext(k.ctx).Debug().
		Ctx(k.ctx).
		Str("component", "engine").
		Str("operation", "calculate").
		Str("level", k.level.String()).
		Str("factor_region", k.region).
		Float64("value", k.result.Value).
		Int("warnings", len(k.result.Details.Warnings)).
		Msg("footprint calculated")
}

// ingredients prices every bill-of-materials line as
// factor × weightKg × (1 + wasteRate). Unusable lines are skipped with a warning.
func (c *StandardCalculator) ingredients(k *calculation) {
	for i, line := range k.req.Ingredients {
		name := strings.TrimSpace(line.Name)
		if name == "" || line.Quantity <= 0 || math.IsNaN(line.Quantity) {
			k.warn("ingredients", fmt.Sprintf("ingredient line %d skipped: a name and a positive quantity are required", i+1))
			continue
		}

		weightKg, err := carbon.QuantityToKg(line.Quantity, line.Unit)
		if err != nil {
			k.warn("ingredients", fmt.Sprintf("ingredient %q skipped: %v", name, err))
			continue
		}
		if !carbon.IsRecognizedQuantityUnit(line.Unit) {
			k.warn("ingredients", fmt.Sprintf("unit %q of ingredient %q is not recognized, treated as grams", line.Unit, name))
		}

		waste := c.wasteRate(k, line)
		match := carbon.FactorMatch{
			IngredientName:     name,
			IngredientCategory: line.Category,
			Quantity:           line.Quantity,
			Unit:               line.Unit,
			WeightKg:           weightKg,
			WasteRate:          waste,
		}
		if k.level == carbon.LevelMeasured {
			match.Traceability = line.Traceability
		}

		f, err := c.matcher.MatchFactor(k.ctx, name, line.Category, k.region)
		if err != nil {
			k.warn("ingredients", fmt.Sprintf("factor lookup for ingredient %q failed: %v", name, err))
			f = nil
		}
		if f.HasValue() {
			match.MatchedFactor = f
			match.CarbonFootprint = f.Value() * weightKg * (1 + waste)
			k.result.Breakdown.Ingredients += match.CarbonFootprint
		} else {
			match.Warning = fmt.Sprintf("no emission factor found for ingredient %q in %s", name, k.region)
			k.warn("ingredients", match.Warning)
		}
		k.result.FactorMatchInfo = append(k.result.FactorMatchInfo, match)
	}
}

func (c *StandardCalculator) wasteRate(k *calculation, line carbon.IngredientLine) float64 {
	if line.WasteRate != nil {
		return *line.WasteRate
	}
	return c.coeffs.WasteRate(k.ctx, line.Category)
}

// energy computes cooking energy from explicit power and time, or else from
// the standard per-method model. Without either there is no energy bucket.
// A zero cooking time or power counts as not given.
func (c *StandardCalculator) energy(k *calculation) error {
	req := k.req
	minutes, timed := positive(req.CookingTime)
	power, powered := positive(req.Power)
	explicit := timed && powered
	method := strings.TrimSpace(req.CookingMethod)
	if !explicit && method == "" {
		return nil
	}

	trace := &carbon.EnergyTrace{
		CookingMethod: method,
		EnergyType:    req.EnergyType,
		ConsumptionIn: carbon.MeterUnitFor(req.EnergyType),
	}
	if explicit {
		trace.Method = EnergyMethodExplicit
		trace.PowerKW = power
		trace.Minutes = minutes
		trace.Consumption = trace.PowerKW * carbon.MinutesToHours(trace.Minutes)
	} else {
		trace.Method = EnergyMethodStandard
		trace.Minutes = c.coeffs.CookingTime(k.ctx, method)
		if timed {
			trace.Minutes = minutes
		}
		trace.PowerKW = c.coeffs.CookingPower(k.ctx, method)
		rate := trace.PowerKW
		if req.EnergyType == carbon.EnergyGas {
			// Approximate gas flow in m³/h from burner power.
			rate = trace.PowerKW / c.policy.gasFlowDivisor()
		}
		trace.Consumption = rate * carbon.MinutesToHours(trace.Minutes)
	}

	f := c.standardEnergyFactor(k)
	trace.Factor = f
	trace.FactorValue = f.Value()
	trace.Carbon = trace.Consumption * trace.FactorValue

	k.result.Breakdown.Energy = trace.Carbon
	k.result.Details.Energy = trace
	return nil
}

// positive returns *v when v is set and above zero.
func positive(v *float64) (float64, bool) {
	if v == nil || *v <= 0 || math.IsNaN(*v) {
		return 0, false
	}
	return *v, true
}

func (c *StandardCalculator) matchEnergy(k *calculation) (*carbon.EmissionFactor, error) {
	return c.matcher.MatchEnergy(k.ctx, k.req.EnergyType, k.region, k.country)
}

// standardEnergyFactor returns the catalog energy factor, or the configured
// default factor for the energy type when the catalog has none.
func (c *StandardCalculator) standardEnergyFactor(k *calculation) *carbon.EmissionFactor {
	f, err := c.matchEnergy(k)
	if err == nil && f.HasValue() {
		return f
	}

	v := c.coeffs.EnergyFactor(k.ctx, k.req.EnergyType)
	k.warn("energy", fmt.Sprintf("no %s emission factor found for %s, using configured default %.4f", k.req.EnergyType, k.region, v))

	sub := carbon.SubCategoryElectricity
	if k.req.EnergyType == carbon.EnergyGas {
		sub = carbon.SubCategoryNaturalGas
	}
	return &carbon.EmissionFactor{
		Name:        string(k.req.EnergyType),
		Category:    carbon.CategoryEnergy,
		SubCategory: sub,
		Region:      k.region,
		FactorValue: &v,
		Unit:        "kg CO2e/" + carbon.MeterUnitFor(k.req.EnergyType),
		Source:      "configuration",
		MatchLevel:  carbon.MatchConfigDefault,
	}
}

// packaging prices every packaging line as materialFactor × weightKg.
func (c *StandardCalculator) packaging(k *calculation) {
	for i, line := range k.req.Packaging {
		material := strings.TrimSpace(line.Material)
		if material == "" || line.WeightKg <= 0 {
			k.warn("packaging", fmt.Sprintf("packaging line %d skipped: a material and a positive weight are required", i+1))
			continue
		}

		trace := carbon.LineTrace{Name: material, Quantity: line.WeightKg}
		f, err := c.matcher.MatchMaterial(k.ctx, material, k.region)
		if err != nil {
			k.warn("packaging", fmt.Sprintf("factor lookup for material %q failed: %v", material, err))
			f = nil
		}
		if f.HasValue() {
			trace.Factor = f
			trace.Carbon = f.Value() * line.WeightKg
			k.result.Breakdown.Packaging += trace.Carbon
		} else {
			trace.Warning = fmt.Sprintf("no emission factor found for packaging material %q", material)
			k.warn("packaging", trace.Warning)
		}
		k.result.Details.Packaging = append(k.result.Details.Packaging, trace)
	}
}

// transport prices the optional transport leg as distance × factor × weight,
// with the factor supplied by resolve.
func (c *StandardCalculator) transport(k *calculation, resolve transportStep) {
	t := k.req.Transport
	if t == nil {
		return
	}
	mode := strings.TrimSpace(t.Mode)
	if mode == "" || t.DistanceKm <= 0 {
		k.warn("transport", "transport skipped: a mode and a positive distance are required")
		return
	}

	weight := t.WeightKg
	if weight <= 0 {
		weight = carbon.DefaultTransportWeightKg
	}
	trace := &carbon.LineTrace{Name: mode, Quantity: weight, DistanceKm: t.DistanceKm}
	if f := resolve(k, t); f.HasValue() {
		trace.Factor = f
		trace.Carbon = t.DistanceKm * f.Value() * weight
		k.result.Breakdown.Transport = trace.Carbon
	} else {
		trace.Warning = fmt.Sprintf("no emission factor found for transport mode %q", mode)
		k.warn("transport", trace.Warning)
	}
	k.result.Details.Transport = trace
}

func (c *StandardCalculator) catalogTransport(k *calculation, t *carbon.TransportInfo) *carbon.EmissionFactor {
	f, err := c.matcher.MatchTransport(k.ctx, strings.TrimSpace(t.Mode), k.region)
	if err != nil {
		k.warn("transport", fmt.Sprintf("factor lookup for transport mode %q failed: %v", t.Mode, err))
		return nil
	}
	return f
}
