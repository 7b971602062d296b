package carbon

import "time"

// Restaurant is the slice of a tenant record the engine needs.
type Restaurant struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Region       string `json:"region,omitempty"`
	FactorRegion string `json:"factorRegion,omitempty"`
}

// MenuItem is a stored dish together with the parameters it was last calculated with.
type MenuItem struct {
	ID               string           `json:"id"`
	RestaurantID     string           `json:"restaurantId"`
	Name             string           `json:"name,omitempty"`
	RestaurantRegion string           `json:"restaurantRegion,omitempty"`
	CalculationLevel Level            `json:"calculationLevel,omitempty"`
	MealType         MealType         `json:"mealType,omitempty"`
	EnergyType       EnergyType       `json:"energyType,omitempty"`
	CookingMethod    string           `json:"cookingMethod,omitempty"`
	CookingTime      *float64         `json:"cookingTime,omitempty"`
	Ingredients      []IngredientLine `json:"ingredients,omitempty"`
	Packaging        []PackagingLine  `json:"packaging,omitempty"`
	BaseRecipeID     string           `json:"baseRecipeId,omitempty"`
	Fingerprint      string           `json:"fingerprint,omitempty"`

	// LoadError is set when the stored document could not be read. Only ID
	// and RestaurantID are reliable then.
	LoadError error `json:"-"`
}

// RecipeLine is one ingredient of a base recipe. Older recipes carry a weight
// in kilograms instead of a quantity and unit.
type RecipeLine struct {
	Name     string   `json:"name"`
	Quantity float64  `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	WeightKg *float64 `json:"weight,omitempty"`
	Category string   `json:"category,omitempty"`
}

// Recipe is a base recipe a menu item may link to.
type Recipe struct {
	ID          string       `json:"id"`
	Name        string       `json:"name,omitempty"`
	Ingredients []RecipeLine `json:"ingredients"`
}

// StoredFootprint is the persisted carbonFootprint object of a menu item.
type StoredFootprint struct {
	Value     float64   `json:"value"`
	Baseline  float64   `json:"baseline"`
	Reduction float64   `json:"reduction"`
	Interval  Interval  `json:"baselineConfidenceInterval"`
	Breakdown Breakdown `json:"breakdown"`
}

// CalculationRecord is everything written back to a menu item after a
// successful recalculation.
type CalculationRecord struct {
	CarbonFootprint   StoredFootprint `json:"carbonFootprint"`
	BaselineInfo      *BaselineInfo   `json:"baselineInfo,omitempty"`
	FactorMatchInfo   []FactorMatch   `json:"factorMatchInfo"`
	CalculationLevel  Level           `json:"calculationLevel"`
	CarbonLevel       CarbonLevel     `json:"carbonLevel"`
	NeedsOptimization bool            `json:"needsOptimization"`
	WarningMessage    string          `json:"warningMessage,omitempty"`
	RestaurantRegion  string          `json:"restaurantRegion"`
	Fingerprint       string          `json:"fingerprint"`
	CalculatedAt      time.Time       `json:"calculatedAt"`
}

// ItemOutcome is the per-item entry of a batch recalculation.
type ItemOutcome struct {
	MenuItemID string `json:"menuItemId"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Changed    bool   `json:"changed"`
}

// BatchSummary reports a batch recalculation run.
type BatchSummary struct {
	RunID   string        `json:"runId"`
	Total   int           `json:"total"`
	Success int           `json:"success"`
	Failed  int           `json:"failed"`
	Results []ItemOutcome `json:"results"`
}
