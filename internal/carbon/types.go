// Package carbon holds the domain model of the menu-item carbon footprint engine.
//
// Values are kilograms of CO2-equivalent (kg CO2e) unless a field says otherwise.
// The package has no dependencies on storage or transport; every other package
// speaks in these types.
package carbon

import (
	"encoding/json"
	"fmt"
	"time"
)

// MealType is the baseline meal category of a dish.
type MealType string

// Meal types.
const (
	MealTypeMeatSimple MealType = "meat_simple"
	MealTypeMeatFull   MealType = "meat_full"
)

// Valid reports whether m is a known meal type.
func (m MealType) Valid() bool {
	return m == MealTypeMeatSimple || m == MealTypeMeatFull
}

// EnergyType is the kitchen energy mix.
type EnergyType string

// Energy types.
const (
	EnergyElectric EnergyType = "electric"
	EnergyGas      EnergyType = "gas"
	EnergyMixed    EnergyType = "mixed"
)

// Valid reports whether e is a known energy type.
func (e EnergyType) Valid() bool {
	switch e {
	case EnergyElectric, EnergyGas, EnergyMixed:
		return true
	default:
		return false
	}
}

// Level is the calculation tier.
type Level string

// Calculation tiers, in increasing rigor.
const (
	LevelEstimated Level = "L1"
	LevelStandard  Level = "L2"
	LevelMeasured  Level = "L3"
)

// Valid reports whether l is a known tier.
func (l Level) Valid() bool {
	switch l {
	case LevelEstimated, LevelStandard, LevelMeasured:
		return true
	default:
		return false
	}
}

// String returns the tier code, e.g. "L2".
func (l Level) String() string { return string(l) }

// CarbonLevel is the classification of a footprint against its baseline interval.
type CarbonLevel string

// Classification outcomes.
const (
	CarbonLow    CarbonLevel = "low"
	CarbonMedium CarbonLevel = "medium"
	CarbonHigh   CarbonLevel = "high"
)

// FactorCategory is the top-level grouping of the emission factor catalog.
type FactorCategory string

// Factor catalog categories.
const (
	CategoryIngredient FactorCategory = "ingredient"
	CategoryEnergy     FactorCategory = "energy"
	CategoryMaterial   FactorCategory = "material"
	CategoryTransport  FactorCategory = "transport"
)

// Energy sub-categories in the factor catalog.
const (
	SubCategoryElectricity = "electricity"
	SubCategoryNaturalGas  = "natural_gas"
)

// MatchLevel names the matcher strategy that produced a factor.
type MatchLevel string

// Match levels.
const (
	MatchExactRegion      MatchLevel = "exact_region"
	MatchAlias            MatchLevel = "alias_match"
	MatchName             MatchLevel = "name_match"
	MatchFuzzy            MatchLevel = "fuzzy_match"
	MatchNationalFallback MatchLevel = "national_fallback"
	MatchTraceability     MatchLevel = "traceability"
	MatchConfigDefault    MatchLevel = "config_default"
	MatchNotFound         MatchLevel = "not_found"
	MatchError            MatchLevel = "error"
)

// FootprintRequest is one calculation call. It is never mutated by the engine.
type FootprintRequest struct {
	RestaurantID     string           `json:"restaurantId"`
	MealType         MealType         `json:"mealType"`
	EnergyType       EnergyType       `json:"energyType"`
	CalculationLevel Level            `json:"calculationLevel,omitempty"`
	Ingredients      []IngredientLine `json:"ingredients,omitempty"`
	CookingMethod    string           `json:"cookingMethod,omitempty"`
	CookingTime      *float64         `json:"cookingTime,omitempty"`
	Power            *float64         `json:"power,omitempty"`
	Packaging        []PackagingLine  `json:"packaging,omitempty"`
	Transport        *TransportInfo   `json:"transport,omitempty"`
	MeterReading     *MeterReading    `json:"meterReading,omitempty"`
	Region           string           `json:"region,omitempty"`
	FactorRegion     string           `json:"factorRegion,omitempty"`
}

// IngredientLine is one bill-of-materials entry of a dish.
type IngredientLine struct {
	Name         string         `json:"name"`
	Quantity     float64        `json:"quantity"`
	Unit         string         `json:"unit"`
	Category     string         `json:"category,omitempty"`
	WasteRate    *float64       `json:"wasteRate,omitempty"`
	Traceability map[string]any `json:"traceability,omitempty"`
}

// PackagingLine is one packaging material used for the dish.
type PackagingLine struct {
	Material string  `json:"material"`
	WeightKg float64 `json:"weight"`
}

// UnmarshalJSON accepts the material under "material", "type" or "name".
func (p *PackagingLine) UnmarshalJSON(data []byte) error {
	var raw struct {
		Material string  `json:"material"`
		Type     string  `json:"type"`
		Name     string  `json:"name"`
		Weight   float64 `json:"weight"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding packaging line: %w", err)
	}
	p.WeightKg = raw.Weight
	switch {
	case raw.Material != "":
		p.Material = raw.Material
	case raw.Type != "":
		p.Material = raw.Type
	default:
		p.Material = raw.Name
	}
	return nil
}

// TransportInfo describes inbound logistics for the dish.
type TransportInfo struct {
	Mode               string   `json:"mode"`
	DistanceKm         float64  `json:"distance"`
	WeightKg           float64  `json:"weight,omitempty"`
	TraceabilityFactor *float64 `json:"traceabilityFactor,omitempty"`
}

// MeterReading is an already-collected energy measurement for the dish.
type MeterReading struct {
	EnergyConsumption float64 `json:"energyConsumption"`
	Unit              string  `json:"unit"`
}

// EmissionFactor is a catalog entry converting a physical quantity into kg CO2e.
type EmissionFactor struct {
	FactorID    string         `json:"factorId"`
	Name        string         `json:"name"`
	Alias       []string       `json:"alias,omitempty"`
	Category    FactorCategory `json:"category"`
	SubCategory string         `json:"subCategory,omitempty"`
	Region      string         `json:"region"`
	FactorValue *float64       `json:"factorValue"`
	Unit        string         `json:"unit,omitempty"`
	Source      string         `json:"source,omitempty"`
	Year        int            `json:"year,omitempty"`
	Status      string         `json:"status,omitempty"`
	MatchLevel  MatchLevel     `json:"matchLevel,omitempty"`
}

// Value returns the factor value, or 0 when the catalog entry has none.
func (f *EmissionFactor) Value() float64 {
	if f == nil || f.FactorValue == nil {
		return 0
	}
	return *f.FactorValue
}

// HasValue reports whether the factor carries a usable value.
func (f *EmissionFactor) HasValue() bool {
	return f != nil && f.FactorValue != nil
}

// Interval is a closed [Lower, Upper] range in kg CO2e.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// BaselineCategory keys a baseline.
type BaselineCategory struct {
	MealType   MealType   `json:"mealType"`
	Region     string     `json:"region"`
	EnergyType EnergyType `json:"energyType"`
}

// BaselineFootprint is the reference footprint of a baseline.
type BaselineFootprint struct {
	Value              float64   `json:"value"`
	Uncertainty        *float64  `json:"uncertainty,omitempty"`
	ConfidenceInterval *Interval `json:"confidenceInterval,omitempty"`
}

// Baseline is a regional industry reference footprint for a meal category.
type Baseline struct {
	BaselineID      string            `json:"baselineId"`
	Version         string            `json:"version"`
	Category        BaselineCategory  `json:"category"`
	CarbonFootprint BaselineFootprint `json:"carbonFootprint"`
	Source          string            `json:"source,omitempty"`
	Status          string            `json:"status,omitempty"`
	EffectiveDate   *time.Time        `json:"effectiveDate,omitempty"`
	ExpiryDate      *time.Time        `json:"expiryDate,omitempty"`
}

// ActiveAt reports whether the baseline's validity window contains t.
// A baseline without a window is always active.
func (b *Baseline) ActiveAt(t time.Time) bool {
	if b.EffectiveDate != nil && t.Before(*b.EffectiveDate) {
		return false
	}
	if b.ExpiryDate != nil && t.After(*b.ExpiryDate) {
		return false
	}
	return true
}

// Breakdown splits a footprint into its four buckets.
type Breakdown struct {
	Ingredients float64 `json:"ingredients"`
	Energy      float64 `json:"energy"`
	Packaging   float64 `json:"packaging"`
	Transport   float64 `json:"transport"`
}

// Sum returns the total of all buckets.
func (b Breakdown) Sum() float64 {
	return b.Ingredients + b.Energy + b.Packaging + b.Transport
}

// FactorMatch records how one ingredient line was priced.
type FactorMatch struct {
	IngredientName     string          `json:"ingredientName"`
	IngredientCategory string          `json:"ingredientCategory,omitempty"`
	Quantity           float64         `json:"quantity"`
	Unit               string          `json:"unit"`
	WeightKg           float64         `json:"weightKg"`
	WasteRate          float64         `json:"wasteRate"`
	MatchedFactor      *EmissionFactor `json:"matchedFactor"`
	CarbonFootprint    float64         `json:"carbonFootprint"`
	Traceability       map[string]any  `json:"traceability,omitempty"`
	Warning            string          `json:"warning,omitempty"`
}

// EnergyTrace explains the energy bucket.
type EnergyTrace struct {
	Method        string          `json:"method"`
	CookingMethod string          `json:"cookingMethod,omitempty"`
	EnergyType    EnergyType      `json:"energyType"`
	PowerKW       float64         `json:"powerKw,omitempty"`
	Minutes       float64         `json:"minutes,omitempty"`
	Consumption   float64         `json:"consumption"`
	ConsumptionIn string          `json:"consumptionUnit"`
	Factor        *EmissionFactor `json:"factor,omitempty"`
	FactorValue   float64         `json:"factorValue"`
	Carbon        float64         `json:"carbonFootprint"`
}

// LineTrace explains one packaging or transport contribution.
type LineTrace struct {
	Name       string          `json:"name"`
	Quantity   float64         `json:"quantity"`
	Factor     *EmissionFactor `json:"factor,omitempty"`
	Carbon     float64         `json:"carbonFootprint"`
	Warning    string          `json:"warning,omitempty"`
	DistanceKm float64         `json:"distanceKm,omitempty"`
}

// Completeness grades the measured-data coverage of an L3 calculation.
type Completeness string

// Data completeness grades.
const (
	CompletenessHigh   Completeness = "high"
	CompletenessMedium Completeness = "medium"
	CompletenessLow    Completeness = "low"
)

// DataCompleteness reports what measured data backed an L3 result.
type DataCompleteness struct {
	HasMeterReading      bool         `json:"hasMeterReading"`
	TraceableIngredients int          `json:"traceableIngredients"`
	TotalIngredients     int          `json:"totalIngredients"`
	TraceabilityCoverage float64      `json:"traceabilityCoverage"`
	Level                Completeness `json:"level"`
}

// Allocation is the fixed split used to break an estimate into buckets.
type Allocation struct {
	Ingredients float64 `json:"ingredients" yaml:"ingredients"`
	Energy      float64 `json:"energy"      yaml:"energy"`
	Packaging   float64 `json:"packaging"   yaml:"packaging"`
	Transport   float64 `json:"transport"   yaml:"transport"`
}

// Sum returns the total of all ratios.
func (a Allocation) Sum() float64 {
	return a.Ingredients + a.Energy + a.Packaging + a.Transport
}

// BaselineInfo identifies the baseline used for a comparison.
type BaselineInfo struct {
	BaselineID  string    `json:"baselineId,omitempty"`
	Version     string    `json:"version,omitempty"`
	Source      string    `json:"source,omitempty"`
	Resolution  string    `json:"resolution"`
	Value       float64   `json:"value"`
	Interval    Interval  `json:"confidenceInterval"`
	Uncertainty *float64  `json:"uncertainty,omitempty"`
	QueryDate   time.Time `json:"queryDate"`
}

// CalculationDetails is the explainability trace of a result.
type CalculationDetails struct {
	Energy           *EnergyTrace      `json:"energy,omitempty"`
	Packaging        []LineTrace       `json:"packaging,omitempty"`
	Transport        *LineTrace        `json:"transport,omitempty"`
	Allocation       *Allocation       `json:"allocation,omitempty"`
	Baseline         *BaselineInfo     `json:"baseline,omitempty"`
	DataCompleteness *DataCompleteness `json:"dataCompleteness,omitempty"`
	FactorRegion     string            `json:"factorRegion,omitempty"`
	Warnings         []string          `json:"warnings,omitempty"`
}

// FootprintResult is the common output shape of every tier.
type FootprintResult struct {
	Value            float64            `json:"value"`
	Breakdown        Breakdown          `json:"breakdown"`
	FactorMatchInfo  []FactorMatch      `json:"factorMatchInfo"`
	Details          CalculationDetails `json:"calculationDetails"`
	CalculationLevel Level              `json:"calculationLevel"`
	IsEstimated      bool               `json:"isEstimated"`
}

// Warnings returns the warnings recorded during calculation.
func (r *FootprintResult) Warnings() []string {
	if r == nil {
		return nil
	}
	return r.Details.Warnings
}
