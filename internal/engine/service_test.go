package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VeganGarden/MyGarden-sub002/internal/baseline"
	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/coefficients"
	"github.com/VeganGarden/MyGarden-sub002/internal/factor"
)

type restaurantMap map[string]*carbon.Restaurant

func (m restaurantMap) GetRestaurant(_ context.Context, id string) (*carbon.Restaurant, error) {
	r, ok := m[id]
	if !ok {
		return nil, fmt.Errorf("restaurant %s: %w", id, carbon.ErrNotFound)
	}
	return r, nil
}

type stubRecalculator struct {
	summary *carbon.BatchSummary
	err     error
}

func (s stubRecalculator) Recalculate(context.Context, string, []string) (*carbon.BatchSummary, error) {
	return s.summary, s.err
}

// panickingMatcher blows up on every ingredient lookup.
type panickingMatcher struct {
	*factor.Matcher
}

func (panickingMatcher) MatchFactor(context.Context, string, string, string) (*carbon.EmissionFactor, error) {
	panic("catalog corrupted")
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, factors []carbon.EmissionFactor, baselines baseline.Source, reg prometheus.Registerer) *Service {
	t.Helper()
	matcher := factor.NewMatcher(&sliceCatalog{factors: factors}, nil)
	resolver := baseline.NewResolver(baselines)
	calcs := NewCalculators(matcher, coefficients.New(nil, 0), resolver, DefaultPolicy())
	restaurants := restaurantMap{
		"r1":        {ID: "r1", Region: "east_china"},
		"r-nowhere": {ID: "r-nowhere"},
	}
	return NewService(calcs, baseline.NewClassifier(resolver, 0), matcher, restaurants,
		WithServiceClock(func() time.Time { return testNow }),
		WithServiceRegisterer(reg))
}

func TestService_CalculateMenuItemCarbon(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := newTestService(t, testFactors(), nationalBaseline(5.0), reg)

	req := tofuRequest("")
	req.Region = ""
	resp := svc.CalculateMenuItemCarbon(context.Background(), req)

	require.Equal(t, CodeOK, resp.Code, resp.Error)
	require.True(t, resp.OK())
	d := resp.Data
	assert.Equal(t, carbon.LevelStandard, d.CalculationLevel)
	assert.Equal(t, "east_china", d.Region)
	assert.InDelta(t, 0.44, d.CarbonFootprint.Value, 1e-9)
	assert.InDelta(t, 5.0, d.CarbonFootprint.Baseline, 1e-12)
	assert.InDelta(t, 4.56, d.CarbonFootprint.Reduction, 1e-9)
	assert.Equal(t, carbon.CarbonLow, d.CarbonLevel)
	assert.False(t, d.OptimizationFlag.NeedsOptimization)
	assert.Equal(t, carbon.BaselineSourceNational, d.BaselineInfo.Resolution)
	assert.Equal(t, testNow, d.CalculatedAt)
	assert.Len(t, d.Fingerprint, 64)

	assert.InDelta(t, 1, testutil.ToFloat64(svc.metrics.calculations.WithLabelValues("L2", outcomeOK)), 0)
}

func TestService_HighFootprintNeedsOptimization(t *testing.T) {
	svc := newTestService(t, testFactors(), nationalBaseline(5.0), nil)

	req := tofuRequest(carbon.LevelStandard)
	// 6.5 kg CO2e: 2.954545... kg of tofu at 2.0 with 10% waste
	req.Ingredients[0].Quantity = 6.5 / 2.2
	req.Ingredients[0].Unit = "kg"
	resp := svc.CalculateMenuItemCarbon(context.Background(), req)

	require.Equal(t, CodeOK, resp.Code, resp.Error)
	assert.Equal(t, carbon.CarbonHigh, resp.Data.CarbonLevel)
	assert.InDelta(t, -1.5, resp.Data.CarbonFootprint.Reduction, 1e-9)
	assert.True(t, resp.Data.OptimizationFlag.NeedsOptimization)
	assert.NotEmpty(t, resp.Data.OptimizationFlag.WarningMessage)
}

func TestService_EstimatedIsMediumWithoutReduction(t *testing.T) {
	svc := newTestService(t, nil, nationalBaseline(6.0), nil)

	resp := svc.CalculateMenuItemCarbon(context.Background(), tofuRequest(carbon.LevelEstimated))

	require.Equal(t, CodeOK, resp.Code, resp.Error)
	assert.True(t, resp.Data.IsEstimated)
	assert.Equal(t, carbon.CarbonMedium, resp.Data.CarbonLevel)
	assert.Zero(t, resp.Data.CarbonFootprint.Reduction)
	assert.InDelta(t, 6.0, resp.Data.CarbonFootprint.Baseline, 1e-12)
	assert.InDelta(t, 4.2, resp.Data.CarbonFootprint.Breakdown.Ingredients, 1e-9)
}

func TestService_ErrorCodes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*carbon.FootprintRequest)
		code   int
	}{
		{name: "missing restaurant id", mutate: func(r *carbon.FootprintRequest) { r.RestaurantID = "" }, code: CodeInvalid},
		{name: "unknown meal type", mutate: func(r *carbon.FootprintRequest) { r.MealType = "vegan_feast" }, code: CodeInvalid},
		{name: "cooking time out of range", mutate: func(r *carbon.FootprintRequest) { r.CookingTime = ptr(1000) }, code: CodeInvalid},
		{name: "unknown restaurant", mutate: func(r *carbon.FootprintRequest) { r.RestaurantID = "r-404" }, code: CodeNotFound},
		{
			name: "no region anywhere",
			mutate: func(r *carbon.FootprintRequest) {
				r.RestaurantID = "r-nowhere"
				r.Region = ""
			},
			code: CodeInvalid,
		},
		{
			name: "measured energy factor miss",
			mutate: func(r *carbon.FootprintRequest) {
				r.CalculationLevel = carbon.LevelMeasured
				r.MeterReading = &carbon.MeterReading{EnergyConsumption: 3, Unit: "kWh"}
			},
			code: CodeFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, nil, nil, nil)
			req := tofuRequest(carbon.LevelStandard)
			tt.mutate(req)

			resp := svc.CalculateMenuItemCarbon(context.Background(), req)
			assert.Equal(t, tt.code, resp.Code)
			assert.Nil(t, resp.Data)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestService_RecoversPanics(t *testing.T) {
	matcher := factor.NewMatcher(&sliceCatalog{}, nil)
	resolver := baseline.NewResolver(nil)
	calcs := NewCalculators(panickingMatcher{matcher}, coefficients.New(nil, 0), resolver, DefaultPolicy())
	svc := NewService(calcs, baseline.NewClassifier(resolver, 0), matcher, nil)

	resp := svc.CalculateMenuItemCarbon(context.Background(), tofuRequest(carbon.LevelStandard))
	assert.Equal(t, CodeFailure, resp.Code)
	assert.Contains(t, resp.Error, "catalog corrupted")
}

func TestService_DoesNotMutateRequest(t *testing.T) {
	svc := newTestService(t, testFactors(), nil, nil)
	req := tofuRequest("")
	req.Region = ""

	resp := svc.CalculateMenuItemCarbon(context.Background(), req)
	require.Equal(t, CodeOK, resp.Code, resp.Error)
	assert.Empty(t, req.Region)
	assert.Empty(t, req.CalculationLevel)
}

func TestService_RecalculateMenuItems(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)
	ctx := context.Background()

	resp := svc.RecalculateMenuItems(ctx, "", nil)
	assert.Equal(t, CodeInvalid, resp.Code)

	resp = svc.RecalculateMenuItems(ctx, "r1", nil)
	assert.Equal(t, CodeFailure, resp.Code)

	svc.AttachRecalculator(stubRecalculator{summary: &carbon.BatchSummary{Total: 2, Success: 1, Failed: 1}})
	resp = svc.RecalculateMenuItems(ctx, "r1", nil)
	require.Equal(t, CodeOK, resp.Code)
	assert.Equal(t, 2, resp.Data.Total)

	svc.AttachRecalculator(stubRecalculator{err: fmt.Errorf("listing: %w", carbon.ErrNotFound)})
	resp = svc.RecalculateMenuItems(ctx, "r1", nil)
	assert.Equal(t, CodeNotFound, resp.Code)
}

func TestService_GetCarbonFactors(t *testing.T) {
	svc := newTestService(t, testFactors(), nil, nil)
	ctx := context.Background()

	resp := svc.GetCarbonFactors(ctx, []factor.LookupItem{{Name: "Tofu"}}, "")
	assert.Equal(t, CodeInvalid, resp.Code)

	resp = svc.GetCarbonFactors(ctx, []factor.LookupItem{{Name: "Tofu"}, {Name: "Unobtainium"}, {}}, "CN-East")
	require.Equal(t, CodeOK, resp.Code)
	require.Len(t, resp.Data, 3)
	assert.True(t, resp.Data[0].Success)
	assert.Equal(t, carbon.MatchNotFound, resp.Data[1].MatchLevel)
	assert.Equal(t, "unknown", resp.Data[2].Input)
	assert.False(t, resp.Data[2].Success)
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{err: nil, code: CodeOK},
		{err: fmt.Errorf("x: %w", carbon.ErrInvalidRequest), code: CodeInvalid},
		{err: carbon.ErrMissingRegion, code: CodeInvalid},
		{err: fmt.Errorf("x: %w", carbon.ErrNotFound), code: CodeNotFound},
		{err: carbon.ErrEnergyFactorNotFound, code: CodeFailure},
		{err: errors.New("boom"), code: CodeFailure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, CodeOf(tt.err), "%v", tt.err)
	}
}

func TestData_Record(t *testing.T) {
	svc := newTestService(t, testFactors(), nationalBaseline(5.0), nil)
	resp := svc.CalculateMenuItemCarbon(context.Background(), tofuRequest(carbon.LevelStandard))
	require.Equal(t, CodeOK, resp.Code, resp.Error)

	rec := resp.Data.Record()
	assert.Equal(t, resp.Data.Fingerprint, rec.Fingerprint)
	assert.Equal(t, resp.Data.CarbonFootprint.Value, rec.CarbonFootprint.Value)
	assert.Equal(t, carbon.LevelStandard, rec.CalculationLevel)
	assert.Equal(t, "east_china", rec.RestaurantRegion)
	require.NotNil(t, rec.BaselineInfo)
	assert.Equal(t, "b-national", rec.BaselineInfo.BaselineID)
}
