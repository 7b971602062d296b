package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/VeganGarden/MyGarden-sub002/internal/baseline"
	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/factor"
	"github.com/VeganGarden/MyGarden-sub002/internal/logging"
	"github.com/VeganGarden/MyGarden-sub002/internal/validation"
)

// Response codes.
const (
	CodeOK       = 0
	CodeInvalid  = 400
	CodeNotFound = 404
	CodeFailure  = 500
)

// Response is the envelope every entry point returns. Errors are reported in
// Code and Message, never as Go errors.
type Response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK reports whether the response carries data.
func (r Response[T]) OK() bool { return r.Code == CodeOK }

// RestaurantStore looks up restaurants. A missing restaurant is
// carbon.ErrNotFound.
type RestaurantStore interface {
	GetRestaurant(ctx context.Context, id string) (*carbon.Restaurant, error)
}

// FactorLookup answers factor diagnostics. *factor.Matcher implements it.
type FactorLookup interface {
	GetCarbonFactors(ctx context.Context, items []factor.LookupItem, region string) []factor.LookupRecord
}

// BatchRecalculator recalculates stored menu items.
type BatchRecalculator interface {
	Recalculate(ctx context.Context, restaurantID string, menuItemIDs []string) (*carbon.BatchSummary, error)
}

// Footprint is the carbonFootprint object of a calculation response.
type Footprint struct {
	Value       float64          `json:"value"`
	Baseline    float64          `json:"baseline"`
	Reduction   float64          `json:"reduction"`
	Interval    carbon.Interval  `json:"baselineConfidenceInterval"`
	Uncertainty *float64         `json:"uncertainty,omitempty"`
	Breakdown   carbon.Breakdown `json:"breakdown"`
}

// OptimizationFlag tells the caller whether the dish should be reworked.
type OptimizationFlag struct {
	NeedsOptimization bool   `json:"needsOptimization"`
	WarningMessage    string `json:"warningMessage,omitempty"`
}

// Data is the payload of a successful calculation.
type Data struct {
	CarbonFootprint  Footprint                 `json:"carbonFootprint"`
	BaselineInfo     carbon.BaselineInfo       `json:"baselineInfo"`
	FactorMatchInfo  []carbon.FactorMatch      `json:"factorMatchInfo"`
	OptimizationFlag OptimizationFlag          `json:"optimizationFlag"`
	CarbonLevel      carbon.CarbonLevel        `json:"carbonLevel"`
	CalculationLevel carbon.Level              `json:"calculationLevel"`
	IsEstimated      bool                      `json:"isEstimated"`
	Details          carbon.CalculationDetails `json:"calculationDetails"`
	Warnings         []string                  `json:"warnings,omitempty"`
	Region           string                    `json:"region"`
	Fingerprint      string                    `json:"fingerprint"`
	CalculatedAt     time.Time                 `json:"calculatedAt"`
}

// Record converts the payload into the record persisted on a menu item.
func (d *Data) Record() carbon.CalculationRecord {
	info := d.BaselineInfo
	return carbon.CalculationRecord{
		CarbonFootprint: carbon.StoredFootprint{
			Value:     d.CarbonFootprint.Value,
			Baseline:  d.CarbonFootprint.Baseline,
			Reduction: d.CarbonFootprint.Reduction,
			Interval:  d.CarbonFootprint.Interval,
			Breakdown: d.CarbonFootprint.Breakdown,
		},
		BaselineInfo:      &info,
		FactorMatchInfo:   d.FactorMatchInfo,
		CalculationLevel:  d.CalculationLevel,
		CarbonLevel:       d.CarbonLevel,
		NeedsOptimization: d.OptimizationFlag.NeedsOptimization,
		WarningMessage:    d.OptimizationFlag.WarningMessage,
		RestaurantRegion:  d.Region,
		Fingerprint:       d.Fingerprint,
		CalculatedAt:      d.CalculatedAt,
	}
}

// Service is the engine entry point shared by the CLI and the tool server.
type Service struct {
	calculators  *Calculators
	classifier   *baseline.Classifier
	factors      FactorLookup
	restaurants  RestaurantStore
	recalc       BatchRecalculator
	defaultLevel carbon.Level
	metrics      *Metrics
	now          func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithDefaultLevel sets the tier used when a request names none.
func WithDefaultLevel(level carbon.Level) ServiceOption {
	return func(s *Service) {
		if level.Valid() {
			s.defaultLevel = level
		}
	}
}

// WithServiceClock overrides the calculation timestamp source.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithServiceRegisterer registers the calculation counter on reg.
func WithServiceRegisterer(reg prometheus.Registerer) ServiceOption {
	return func(s *Service) { s.metrics = NewMetrics(reg) }
}

// NewService wires the calculators, classifier and collaborators. restaurants
// may be nil, in which case every request must carry its own region.
func NewService(
	calculators *Calculators,
	classifier *baseline.Classifier,
	factors FactorLookup,
	restaurants RestaurantStore,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		calculators:  calculators,
		classifier:   classifier,
		factors:      factors,
		restaurants:  restaurants,
		defaultLevel: carbon.LevelStandard,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s
}

// AttachRecalculator sets the batch recalculator. The recalculator itself
// calls back into the Service, so it is attached after construction.
func (s *Service) AttachRecalculator(r BatchRecalculator) {
	s.recalc = r
}

// Compute runs the full calculation pipeline and returns the payload or an
// error wrapping one of the carbon sentinels.
func (s *Service) Compute(ctx context.Context, req *carbon.FootprintRequest) (*Data, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is nil", carbon.ErrInvalidRequest)
	}
	if err := validation.ValidateRequest(req); err != nil {
		return nil, err
	}

	r := *req
	if r.CalculationLevel == "" {
		r.CalculationLevel = s.defaultLevel
	}
	if err := s.resolveRegion(ctx, &r); err != nil {
		return nil, err
	}

	result, err := s.calculators.Calculate(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("calculating %s footprint: %w", r.CalculationLevel, err)
	}

	cls := s.classifier.Classify(ctx, result.Value, r.MealType, r.Region, r.EnergyType)
	if result.IsEstimated {
		cls.Baseline = result.Value
		cls.Reduction = 0
		cls.Level = carbon.CarbonMedium
		cls.NeedsOptimization = false
		cls.WarningMessage = ""
	}

	fp, err := Fingerprint(result, cls.Level, cls.Baseline, cls.Interval)
	if err != nil {
		return nil, err
	}

	return &Data{
		CarbonFootprint: Footprint{
			Value:       result.Value,
			Baseline:    cls.Baseline,
			Reduction:   cls.Reduction,
			Interval:    cls.Interval,
			Uncertainty: cls.Info.Uncertainty,
			Breakdown:   result.Breakdown,
		},
		BaselineInfo:     cls.Info,
		FactorMatchInfo:  result.FactorMatchInfo,
		OptimizationFlag: OptimizationFlag{NeedsOptimization: cls.NeedsOptimization, WarningMessage: cls.WarningMessage},
		CarbonLevel:      cls.Level,
		CalculationLevel: result.CalculationLevel,
		IsEstimated:      result.IsEstimated,
		Details:          result.Details,
		Warnings:         result.Warnings(),
		Region:           r.Region,
		Fingerprint:      fp,
		CalculatedAt:     s.now().UTC(),
	}, nil
}

// resolveRegion fills the request region from the restaurant when absent.
func (s *Service) resolveRegion(ctx context.Context, r *carbon.FootprintRequest) error {
	var restaurant *carbon.Restaurant
	if s.restaurants != nil {
		var err error
		restaurant, err = s.restaurants.GetRestaurant(ctx, r.RestaurantID)
		if err != nil {
			return fmt.Errorf("restaurant %q: %w", r.RestaurantID, err)
		}
	}
	if restaurant != nil {
		if r.Region == "" {
			r.Region = restaurant.Region
		}
		if r.FactorRegion == "" {
			r.FactorRegion = restaurant.FactorRegion
		}
	}
	if strings.TrimSpace(r.Region) == "" {
		return fmt.Errorf("%w: restaurant %q has no region and the request names none", carbon.ErrMissingRegion, r.RestaurantID)
	}
	return nil
}

// CalculateMenuItemCarbon calculates one menu item and classifies it against
// its baseline.
func (s *Service) CalculateMenuItemCarbon(ctx context.Context, req *carbon.FootprintRequest) (resp Response[*Data]) {
	const operation = "calculate_menu_item_carbon"
	level := s.defaultLevel
	if req != nil && req.CalculationLevel != "" {
		level = req.CalculationLevel
	}

	defer func() {
		if p := recover(); p != nil {
			logging.FromContext(ctx).Error().
				Ctx(ctx).
				Str("component", "engine").
				Str("operation", operation).
				Interface("panic", p).
				Msg("calculation panicked")
			s.metrics.observe(level.String(), outcomeFailed)
			resp = Response[*Data]{Code: CodeFailure, Message: "calculation failed", Error: fmt.Sprint(p)}
		}
	}()

	data, err := s.Compute(ctx, req)
	if err != nil {
		code := CodeOf(err)
		s.metrics.observe(level.String(), outcomeOf(code))
		return failure[*Data](ctx, operation, code, err)
	}
	s.metrics.observe(data.CalculationLevel.String(), outcomeOK)
	return Response[*Data]{Code: CodeOK, Message: "calculated", Data: data}
}

// RecalculateMenuItems recalculates the restaurant's menu items, or only the
// listed ones when ids is non-empty.
func (s *Service) RecalculateMenuItems(ctx context.Context, restaurantID string, ids []string) Response[*carbon.BatchSummary] {
	const operation = "recalculate_menu_items"
	if strings.TrimSpace(restaurantID) == "" {
		err := fmt.Errorf("%w: restaurantId is required", carbon.ErrInvalidRequest)
		return failure[*carbon.BatchSummary](ctx, operation, CodeInvalid, err)
	}
	if s.recalc == nil {
		return failure[*carbon.BatchSummary](ctx, operation, CodeFailure, errors.New("batch recalculation is not configured"))
	}

	summary, err := s.recalc.Recalculate(ctx, restaurantID, ids)
	if err != nil {
		return failure[*carbon.BatchSummary](ctx, operation, CodeOf(err), err)
	}
	msg := "recalculation complete"
	if summary.Total == 0 {
		msg = "no menu items to recalculate"
	}
	return Response[*carbon.BatchSummary]{Code: CodeOK, Message: msg, Data: summary}
}

// GetCarbonFactors reports how each item name resolves in the region.
func (s *Service) GetCarbonFactors(ctx context.Context, items []factor.LookupItem, region string) Response[[]factor.LookupRecord] {
	const operation = "get_carbon_factors"
	if strings.TrimSpace(region) == "" {
		err := fmt.Errorf("%w: region is required", carbon.ErrInvalidRequest)
		return failure[[]factor.LookupRecord](ctx, operation, CodeInvalid, err)
	}
	if len(items) == 0 {
		err := fmt.Errorf("%w: at least one item is required", carbon.ErrInvalidRequest)
		return failure[[]factor.LookupRecord](ctx, operation, CodeInvalid, err)
	}
	return Response[[]factor.LookupRecord]{
		Code:    CodeOK,
		Message: "factors resolved",
		Data:    s.factors.GetCarbonFactors(ctx, items, region),
	}
}

// CodeOf maps an engine error onto a response code.
func CodeOf(err error) int {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, carbon.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, carbon.ErrInvalidRequest),
		errors.Is(err, carbon.ErrMissingRegion),
		errors.Is(err, carbon.ErrInvalidUnit),
		errors.Is(err, carbon.ErrNegativeValue):
		return CodeInvalid
	default:
		return CodeFailure
	}
}

func outcomeOf(code int) string {
	switch code {
	case CodeInvalid:
		return outcomeInvalid
	case CodeNotFound:
		return outcomeNotFound
	default:
		return outcomeFailed
	}
}

func failure[T any](ctx context.Context, operation string, code int, err error) Response[T] {
	ev := logging.FromContext(ctx).Warn()
	if code == CodeFailure {
		ev = logging.FromContext(ctx).Error()
	}
	ev.Ctx(ctx).
		Str("component", "engine").
		Str("operation", operation).
		Int("code", code).
		Err(err).
		Msg("request failed")

	msg := "calculation failed"
	switch code {
	case CodeInvalid:
		msg = "invalid request"
	case CodeNotFound:
		msg = "not found"
	}
	return Response[T]{Code: code, Message: msg, Error: err.Error()}
}
