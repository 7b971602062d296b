package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
)

func fptr(v float64) *float64 { return &v }

func validRequest() *carbon.FootprintRequest {
	return &carbon.FootprintRequest{
		RestaurantID: "r-1",
		MealType:     carbon.MealTypeMeatSimple,
		EnergyType:   carbon.EnergyElectric,
		Ingredients:  []carbon.IngredientLine{{Name: "Tofu", Quantity: 200, Unit: "g"}},
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*carbon.FootprintRequest)
		wantErr string
	}{
		{name: "valid", mutate: func(*carbon.FootprintRequest) {}},
		{name: "missing restaurant", mutate: func(r *carbon.FootprintRequest) { r.RestaurantID = " " }, wantErr: "restaurantId is required"},
		{name: "missing meal type", mutate: func(r *carbon.FootprintRequest) { r.MealType = "" }, wantErr: "mealType is required"},
		{name: "bad meal type", mutate: func(r *carbon.FootprintRequest) { r.MealType = "vegan" }, wantErr: "mealType \"vegan\""},
		{name: "bad energy type", mutate: func(r *carbon.FootprintRequest) { r.EnergyType = "coal" }, wantErr: "energyType \"coal\""},
		{name: "bad level", mutate: func(r *carbon.FootprintRequest) { r.CalculationLevel = "L4" }, wantErr: "calculationLevel"},
		{name: "cooking time too long", mutate: func(r *carbon.FootprintRequest) { r.CookingTime = fptr(1000) }, wantErr: "cookingTime"},
		{name: "cooking time boundary", mutate: func(r *carbon.FootprintRequest) { r.CookingTime = fptr(999) }},
		{name: "negative cooking time", mutate: func(r *carbon.FootprintRequest) { r.CookingTime = fptr(-1) }, wantErr: "cookingTime"},
		{name: "waste rate above one", mutate: func(r *carbon.FootprintRequest) { r.Ingredients[0].WasteRate = fptr(1.5) }, wantErr: "wasteRate"},
		{name: "unknown unit tolerated", mutate: func(r *carbon.FootprintRequest) { r.Ingredients[0].Unit = "cup" }},
		{name: "negative distance", mutate: func(r *carbon.FootprintRequest) {
			r.Transport = &carbon.TransportInfo{Mode: "truck", DistanceKm: -5}
		}, wantErr: "transport.distance"},
		{name: "meter unit mismatch", mutate: func(r *carbon.FootprintRequest) {
			r.MeterReading = &carbon.MeterReading{EnergyConsumption: 2, Unit: "m³"}
		}, wantErr: "does not match energyType"},
		{name: "meter unit unknown", mutate: func(r *carbon.FootprintRequest) {
			r.MeterReading = &carbon.MeterReading{EnergyConsumption: 2, Unit: "MJ"}
		}, wantErr: "meterReading.unit"},
		{name: "negative consumption", mutate: func(r *carbon.FootprintRequest) {
			r.MeterReading = &carbon.MeterReading{EnergyConsumption: -2, Unit: "kWh"}
		}, wantErr: "energyConsumption"},
		{name: "gas meter in cubic metres", mutate: func(r *carbon.FootprintRequest) {
			r.EnergyType = carbon.EnergyGas
			r.MeterReading = &carbon.MeterReading{EnergyConsumption: 0.3, Unit: "m3"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			err := ValidateRequest(req)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, carbon.ErrInvalidRequest))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateRequest_CollectsAllProblems(t *testing.T) {
	err := ValidateRequest(&carbon.FootprintRequest{})
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 3)
}

func TestValidateRequestJSON(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{name: "valid", payload: `{"restaurantId":"r-1","mealType":"meat_full","energyType":"gas","ingredients":[{"name":"Tofu","quantity":200,"unit":"g"}]}`},
		{name: "missing energy type", payload: `{"restaurantId":"r-1","mealType":"meat_full"}`, wantErr: true},
		{name: "unit not a string", payload: `{"restaurantId":"r-1","mealType":"meat_full","energyType":"gas","ingredients":[{"name":"Tofu","quantity":200,"unit":5}]}`, wantErr: true},
		{name: "cooking time out of range", payload: `{"restaurantId":"r-1","mealType":"meat_full","energyType":"gas","cookingTime":1200}`, wantErr: true},
		{name: "meter unit", payload: `{"restaurantId":"r-1","mealType":"meat_full","energyType":"gas","meterReading":{"energyConsumption":1,"unit":"MJ"}}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequestJSON([]byte(tt.payload))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, carbon.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest([]byte(`{
		"restaurantId": "r-1",
		"mealType": "meat_simple",
		"energyType": "electric",
		"calculationLevel": "L3",
		"cookingTime": 12,
		"packaging": [{"type": "meal_box", "weight": 0.05}],
		"meterReading": {"energyConsumption": 0.8, "unit": "kWh"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, carbon.LevelMeasured, req.CalculationLevel)
	require.NotNil(t, req.CookingTime)
	assert.InDelta(t, 12.0, *req.CookingTime, 1e-9)
	assert.Equal(t, "meal_box", req.Packaging[0].Material)

	_, err = DecodeRequest([]byte(`{"restaurantId":"r-1","mealType":"meat_simple","energyType":"gas","meterReading":{"energyConsumption":1,"unit":"kWh"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match energyType")
}

func TestCheckResult(t *testing.T) {
	limits := DefaultLimits()

	ok := &carbon.FootprintResult{Value: 1.0, Breakdown: carbon.Breakdown{Ingredients: 0.6, Energy: 0.4}}
	assert.Empty(t, CheckResult(ok, limits))

	negative := &carbon.FootprintResult{Value: -0.5, Breakdown: carbon.Breakdown{Ingredients: -0.5}}
	assert.Len(t, CheckResult(negative, limits), 1)

	tooBig := &carbon.FootprintResult{Value: 150, Breakdown: carbon.Breakdown{Ingredients: 150}}
	assert.Len(t, CheckResult(tooBig, limits), 1)

	mismatch := &carbon.FootprintResult{Value: 2.0, Breakdown: carbon.Breakdown{Ingredients: 1.0}}
	warnings := CheckResult(mismatch, limits)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "breakdown sum")
}
