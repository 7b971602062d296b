// Package recalc re-runs the footprint pipeline over a restaurant's stored
// menu items and writes the results back.
package recalc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/engine"
	"github.com/VeganGarden/MyGarden-sub002/internal/engine/batch"
	"github.com/VeganGarden/MyGarden-sub002/internal/logging"
)

// MenuItemStore lists and updates menu items.
type MenuItemStore interface {
	// ListMenuItems returns the restaurant's menu items, or only those in ids
	// when ids is non-empty.
	ListMenuItems(ctx context.Context, restaurantID string, ids []string) ([]carbon.MenuItem, error)
	// SaveCalculation replaces the calculation fields of a menu item.
	SaveCalculation(ctx context.Context, menuItemID string, rec carbon.CalculationRecord) error
}

// RecipeStore loads base recipes. A missing recipe is carbon.ErrNotFound.
type RecipeStore interface {
	GetRecipe(ctx context.Context, id string) (*carbon.Recipe, error)
}

// RestaurantStore looks up restaurants.
type RestaurantStore interface {
	GetRestaurant(ctx context.Context, id string) (*carbon.Restaurant, error)
}

// Pipeline runs one calculation. *engine.Service implements it.
type Pipeline interface {
	Compute(ctx context.Context, req *carbon.FootprintRequest) (*engine.Data, error)
}

// Defaults fill in item parameters that were never stored.
type Defaults struct {
	Level      carbon.Level
	MealType   carbon.MealType
	EnergyType carbon.EnergyType
	Region     string
}

// DefaultDefaults returns the compiled fallbacks for unset item parameters.
func DefaultDefaults() Defaults {
	return Defaults{
		Level:      carbon.LevelStandard,
		MealType:   carbon.MealTypeMeatSimple,
		EnergyType: carbon.EnergyElectric,
		Region:     carbon.DefaultBaselineRegion,
	}
}

// Recalculator is the Batch Recalculator.
type Recalculator struct {
	pipeline    Pipeline
	items       MenuItemStore
	recipes     RecipeStore
	restaurants RestaurantStore
	defaults    Defaults
	batchSize   int
	newRunID    func() string
}

// Option configures a Recalculator.
type Option func(*Recalculator)

// WithDefaults overrides the fallbacks for unset item parameters.
func WithDefaults(d Defaults) Option {
	return func(r *Recalculator) { r.defaults = d }
}

// WithBatchSize sets how many items are handled between progress reports.
func WithBatchSize(n int) Option {
	return func(r *Recalculator) {
		if n >= batch.MinBatchSize && n <= batch.MaxBatchSize {
			r.batchSize = n
		}
	}
}

// WithRunIDs overrides run ID generation.
func WithRunIDs(next func() string) Option {
	return func(r *Recalculator) { r.newRunID = next }
}

// New creates a Recalculator. recipes and restaurants may be nil.
func New(pipeline Pipeline, items MenuItemStore, recipes RecipeStore, restaurants RestaurantStore, opts ...Option) *Recalculator {
	r := &Recalculator{
		pipeline:    pipeline,
		items:       items,
		recipes:     recipes,
		restaurants: restaurants,
		defaults:    DefaultDefaults(),
		batchSize:   batch.DefaultBatchSize,
		newRunID:    logging.NewTraceID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recalculate recalculates the restaurant's menu items, or only menuItemIDs
// when non-empty. Items are processed one at a time; a failing item is
// reported in the summary and the batch continues. The error is non-nil only
// when the request is invalid, the items cannot be listed, or ctx is canceled.
func (r *Recalculator) Recalculate(ctx context.Context, restaurantID string, menuItemIDs []string) (*carbon.BatchSummary, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, fmt.Errorf("%w: restaurantId is required", carbon.ErrInvalidRequest)
	}

	runID := r.newRunID()
	ctx = logging.ContextWithTraceID(ctx, runID)
	log := logging.FromContext(ctx)

	items, err := r.items.ListMenuItems(ctx, restaurantID, menuItemIDs)
	if err != nil {
		return nil, fmt.Errorf("listing menu items of restaurant %s: %w", restaurantID, err)
	}

	summary := &carbon.BatchSummary{
		RunID:   runID,
		Total:   len(items),
		Results: make([]carbon.ItemOutcome, 0, len(items)),
	}

	processor, err := batch.NewProcessor[carbon.MenuItem](r.batchSize)
	if err != nil {
		return nil, err
	}
	processor.WithProgressCallback(func(p *batch.Progress) {
		s := p.Snapshot()
		log.Debug().
			Ctx(ctx).
			Str("component", "recalc").
			Int("processed", s.Processed).
			Int("failed", s.Failed).
			Int("total", s.Total).
			Float64("percent", s.Percent()).
			Dur("eta", s.Remaining).
			Bool("done", s.Done()).
			Msg("recalculation progress")
	})

	region := r.restaurantRegion(restaurantID)
	report, err := processor.Process(ctx, items, func(ctx context.Context, item carbon.MenuItem, _ int) error {
		outcome, itemErr := r.recalculateOne(ctx, restaurantID, item, region)
		summary.Results = append(summary.Results, outcome)
		return itemErr
	})
	summary.Success = report.Succeeded()
	summary.Failed = report.Failed
	if err != nil {
		return summary, fmt.Errorf("recalculation run %s interrupted: %w", runID, err)
	}

	log.Info().
		Ctx(ctx).
		Str("component", "recalc").
		Str("operation", "recalculate").
		Str("restaurant_id", restaurantID).
		Int("total", summary.Total).
		Int("success", summary.Success).
		Int("failed", summary.Failed).
		Msg("recalculation complete")
	return summary, nil
}

// restaurantRegion returns a lazy, memoized lookup of the restaurant's region.
// Lookup failures yield "".
func (r *Recalculator) restaurantRegion(restaurantID string) func(context.Context) string {
	var (
		once   sync.Once
		region string
	)
	return func(ctx context.Context) string {
		once.Do(func() {
			if r.restaurants == nil {
				return
			}
			restaurant, err := r.restaurants.GetRestaurant(ctx, restaurantID)
			if err != nil {
				logging.FromContext(ctx).Warn().
					Ctx(ctx).
					Str("component", "recalc").
					Str("restaurant_id", restaurantID).
					Err(err).
					Msg("restaurant region unavailable, using default region")
				return
			}
			region = restaurant.Region
		})
		return region
	}
}

func (r *Recalculator) recalculateOne(
	ctx context.Context,
	restaurantID string,
	item carbon.MenuItem,
	restaurantRegion func(context.Context) string,
) (carbon.ItemOutcome, error) {
	outcome := carbon.ItemOutcome{MenuItemID: item.ID}
	fail := func(err error) (carbon.ItemOutcome, error) {
		outcome.Message = err.Error()
		logging.FromContext(ctx).Warn().
			Ctx(ctx).
			Str("component", "recalc").
			Str("menu_item_id", item.ID).
			Err(err).
			Msg("menu item recalculation failed")
		return outcome, err
	}

	if item.LoadError != nil {
		return fail(item.LoadError)
	}
	req, err := r.requestFor(ctx, restaurantID, item, restaurantRegion)
	if err != nil {
		return fail(err)
	}
	data, err := r.pipeline.Compute(ctx, req)
	if err != nil {
		return fail(err)
	}

	rec := data.Record()
	rec.CalculationLevel = req.CalculationLevel
	if item.RestaurantRegion != "" {
		rec.RestaurantRegion = item.RestaurantRegion
	}
	if err := r.items.SaveCalculation(ctx, item.ID, rec); err != nil {
		return fail(fmt.Errorf("saving calculation: %w", err))
	}

	outcome.Success = true
	outcome.Changed = item.Fingerprint != data.Fingerprint
	return outcome, nil
}

// requestFor rebuilds the calculation request from the item's stored
// parameters. Missing parameters take the defaults and are never upgraded.
func (r *Recalculator) requestFor(
	ctx context.Context,
	restaurantID string,
	item carbon.MenuItem,
	restaurantRegion func(context.Context) string,
) (*carbon.FootprintRequest, error) {
	req := &carbon.FootprintRequest{
		RestaurantID:     restaurantID,
		MealType:         orDefault(item.MealType, r.defaults.MealType),
		EnergyType:       orDefault(item.EnergyType, r.defaults.EnergyType),
		CalculationLevel: orDefault(item.CalculationLevel, r.defaults.Level),
		Ingredients:      item.Ingredients,
		CookingMethod:    item.CookingMethod,
		CookingTime:      item.CookingTime,
		Packaging:        item.Packaging,
		Region:           item.RestaurantRegion,
	}
	if req.Region == "" {
		req.Region = restaurantRegion(ctx)
	}
	if req.Region == "" {
		req.Region = r.defaults.Region
	}

	if len(req.Ingredients) == 0 && item.BaseRecipeID != "" {
		if r.recipes == nil {
			return nil, fmt.Errorf("menu item %s links recipe %s but no recipe store is configured", item.ID, item.BaseRecipeID)
		}
		recipe, err := r.recipes.GetRecipe(ctx, item.BaseRecipeID)
		if err != nil {
			return nil, fmt.Errorf("loading recipe %s: %w", item.BaseRecipeID, err)
		}
		req.Ingredients = NormalizeRecipe(recipe.Ingredients)
	}
	return req, nil
}

// NormalizeRecipe converts recipe lines into ingredient lines. Lines carrying
// only a weight become a quantity in kilograms.
func NormalizeRecipe(lines []carbon.RecipeLine) []carbon.IngredientLine {
	out := make([]carbon.IngredientLine, 0, len(lines))
	for _, l := range lines {
		line := carbon.IngredientLine{Name: l.Name, Quantity: l.Quantity, Unit: l.Unit, Category: l.Category}
		if l.Quantity <= 0 && l.WeightKg != nil {
			line.Quantity = *l.WeightKg
			line.Unit = "kg"
		}
		out = append(out, line)
	}
	return out
}

func orDefault[T ~string](v, fallback T) T {
	if v == "" {
		return fallback
	}
	return v
}
