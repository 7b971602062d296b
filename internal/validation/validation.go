// Package validation checks footprint requests before computation and
// footprint results after it.
package validation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/kaptinlin/jsonschema"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
)

//go:embed schema/footprint_request.schema.json
var requestSchemaJSON []byte

// Error lists every problem found in a request. It matches carbon.ErrInvalidRequest.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", carbon.ErrInvalidRequest, strings.Join(e.Problems, "; "))
}

// Unwrap lets errors.Is match carbon.ErrInvalidRequest.
func (e *Error) Unwrap() error { return carbon.ErrInvalidRequest }

func (e *Error) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *Error) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// ValidateRequest rejects requests with missing required fields, unknown
// enums or out-of-range values. Ingredient lines with unknown units or
// missing quantities are not rejected; the calculator skips or converts them
// and reports a warning.
func ValidateRequest(req *carbon.FootprintRequest) error {
	v := &Error{}
	if req == nil {
		v.add("request is required")
		return v
	}

	if strings.TrimSpace(req.RestaurantID) == "" {
		v.add("restaurantId is required")
	}
	switch {
	case req.MealType == "":
		v.add("mealType is required")
	case !req.MealType.Valid():
		v.add("mealType %q must be one of meat_simple, meat_full", req.MealType)
	}
	switch {
	case req.EnergyType == "":
		v.add("energyType is required")
	case !req.EnergyType.Valid():
		v.add("energyType %q must be one of electric, gas, mixed", req.EnergyType)
	}
	if req.CalculationLevel != "" && !req.CalculationLevel.Valid() {
		v.add("calculationLevel %q must be one of L1, L2, L3", req.CalculationLevel)
	}
	if t := req.CookingTime; t != nil && (*t < 0 || *t > carbon.MaxCookingMinutes || math.IsNaN(*t)) {
		v.add("cookingTime %.2f must be between 0 and %.0f minutes", *t, carbon.MaxCookingMinutes)
	}
	if p := req.Power; p != nil && (*p < 0 || math.IsNaN(*p)) {
		v.add("power must not be negative")
	}

	for i, line := range req.Ingredients {
		if r := line.WasteRate; r != nil && (*r < 0 || *r > 1) {
			v.add("ingredients[%d].wasteRate must be between 0 and 1", i)
		}
	}
	for i, p := range req.Packaging {
		if p.WeightKg < 0 {
			v.add("packaging[%d].weight must not be negative", i)
		}
	}
	if tr := req.Transport; tr != nil {
		if tr.DistanceKm < 0 {
			v.add("transport.distance must not be negative")
		}
		if tr.WeightKg < 0 {
			v.add("transport.weight must not be negative")
		}
		if f := tr.TraceabilityFactor; f != nil && *f < 0 {
			v.add("transport.traceabilityFactor must not be negative")
		}
	}
	if mr := req.MeterReading; mr != nil {
		validateMeterReading(v, mr, req.EnergyType)
	}

	return v.orNil()
}

func validateMeterReading(v *Error, mr *carbon.MeterReading, energyType carbon.EnergyType) {
	if mr.EnergyConsumption < 0 || math.IsNaN(mr.EnergyConsumption) {
		v.add("meterReading.energyConsumption must not be negative")
	}
	unit, err := carbon.NormalizeMeterUnit(mr.Unit)
	if err != nil {
		v.add("meterReading.unit %q must be kWh or m³", mr.Unit)
		return
	}
	if energyType.Valid() && unit != carbon.MeterUnitFor(energyType) {
		v.add("meterReading.unit %s does not match energyType %s (want %s)", unit, energyType, carbon.MeterUnitFor(energyType))
	}
}

//nolint:gochecknoglobals // Schema is compiled once per process.
var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile(requestSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}
	return schema, nil
})

// ValidateRequestJSON checks a wire payload against the request JSON Schema.
func ValidateRequestJSON(raw []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}
	result := schema.ValidateJSON(raw)
	if result.IsValid() {
		return nil
	}
	v := &Error{}
	for path, e := range result.Errors {
		v.add("%s: %v", path, e)
	}
	sort.Strings(v.Problems)
	if len(v.Problems) == 0 {
		v.add("payload does not match the request schema")
	}
	return v
}

// DecodeRequest validates raw against the schema, decodes it and applies the
// semantic checks of ValidateRequest.
func DecodeRequest(raw []byte) (*carbon.FootprintRequest, error) {
	if err := ValidateRequestJSON(raw); err != nil {
		return nil, err
	}
	var req carbon.FootprintRequest
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&req); err != nil {
		return nil, &Error{Problems: []string{fmt.Sprintf("decoding request: %v", err)}}
	}
	if err := ValidateRequest(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// Limits bounds a sane result.
type Limits struct {
	MaxFootprintKg float64
	SumTolerance   float64
}

// DefaultLimits returns the compiled result limits.
func DefaultLimits() Limits {
	return Limits{MaxFootprintKg: carbon.DefaultMaxFootprintKg, SumTolerance: carbon.DefaultSumTolerance}
}

// CheckResult returns a warning for every sanity rule the result breaks:
// a negative total, a total above the ceiling, or a breakdown that does not
// add up to the total.
func CheckResult(r *carbon.FootprintResult, limits Limits) []string {
	if r == nil {
		return nil
	}
	var warnings []string
	if r.Value < 0 {
		warnings = append(warnings, fmt.Sprintf("carbon footprint %.4f kg CO2e is negative; check emission factor data", r.Value))
	}
	if limits.MaxFootprintKg > 0 && r.Value > limits.MaxFootprintKg {
		warnings = append(warnings, fmt.Sprintf("carbon footprint %.2f kg CO2e exceeds the %.0f kg CO2e sanity ceiling for one dish", r.Value, limits.MaxFootprintKg))
	}
	if diff := math.Abs(r.Breakdown.Sum() - r.Value); diff > limits.SumTolerance {
		warnings = append(warnings, fmt.Sprintf("breakdown sum %.4f differs from total %.4f by %.4f", r.Breakdown.Sum(), r.Value, diff))
	}
	return warnings
}
