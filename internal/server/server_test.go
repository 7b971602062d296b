package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/engine"
	"github.com/VeganGarden/MyGarden-sub002/internal/factor"
)

type fakeTools struct {
	calculated   *carbon.FootprintRequest
	recalculated []string
	region       string
}

func (f *fakeTools) CalculateMenuItemCarbon(_ context.Context, req *carbon.FootprintRequest) engine.Response[*engine.Data] {
	f.calculated = req
	return engine.Response[*engine.Data]{
		Code:    engine.CodeOK,
		Message: "ok",
		Data:    &engine.Data{CarbonFootprint: engine.Footprint{Value: 0.44}, CarbonLevel: carbon.CarbonLow},
	}
}

func (f *fakeTools) RecalculateMenuItems(_ context.Context, restaurantID string, ids []string) engine.Response[*carbon.BatchSummary] {
	f.recalculated = append([]string{restaurantID}, ids...)
	if restaurantID == "r404" {
		return engine.Response[*carbon.BatchSummary]{Code: engine.CodeNotFound, Message: "not found", Error: "restaurant r404"}
	}
	return engine.Response[*carbon.BatchSummary]{Code: engine.CodeOK, Data: &carbon.BatchSummary{Total: len(ids)}}
}

func (f *fakeTools) GetCarbonFactors(_ context.Context, items []factor.LookupItem, region string) engine.Response[[]factor.LookupRecord] {
	f.region = region
	out := make([]factor.LookupRecord, 0, len(items))
	for _, it := range items {
		out = append(out, factor.LookupRecord{Input: it.Name, Success: true})
	}
	return engine.Response[[]factor.LookupRecord]{Code: engine.CodeOK, Data: out}
}

type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

func callTool(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, toolResult, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	var result toolResult
	var envelope map[string]any
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		require.Len(t, result.Content, 1)
		assert.Equal(t, "text", result.Content[0].Type)
		require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &envelope))
	}
	return rec, result, envelope
}

func TestServer_CalculateTool(t *testing.T) {
	tools := &fakeTools{}
	h := New(tools, "", prometheus.NewRegistry()).Handler()

	rec, result, envelope := callTool(t, h, `{
        "name": "calculate_menu_item_carbon",
        "arguments": {
            "restaurantId": "r1",
            "mealType": "meat_simple",
            "energyType": "electric",
            "ingredients": [{"name": "Tofu", "quantity": 200, "unit": "g"}],
            "packaging": [{"type": "paper", "weight": 0.02}]
        }
    }`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, result.IsError)
	assert.EqualValues(t, 0, envelope["code"])

	require.NotNil(t, tools.calculated)
	assert.Equal(t, "r1", tools.calculated.RestaurantID)
	assert.Equal(t, "paper", tools.calculated.Packaging[0].Material)
}

func TestServer_CalculateToolRejectsInvalidArguments(t *testing.T) {
	tools := &fakeTools{}
	h := New(tools, "", prometheus.NewRegistry()).Handler()

	rec, result, envelope := callTool(t, h, `{
        "name": "calculate_menu_item_carbon",
        "arguments": {"restaurantId": "r1", "mealType": "brunch", "energyType": "electric"}
    }`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, result.IsError)
	assert.EqualValues(t, engine.CodeInvalid, envelope["code"])
	assert.NotEmpty(t, envelope["error"])
	assert.Nil(t, tools.calculated)
}

func TestServer_RecalculateAndFactorsTools(t *testing.T) {
	tools := &fakeTools{}
	h := New(tools, "", prometheus.NewRegistry()).Handler()

	_, result, envelope := callTool(t, h, `{"name": "recalculate_menu_items", "arguments": {"restaurantId": "r1", "menuItemIds": ["m1", "m2"]}}`)
	assert.False(t, result.IsError)
	assert.Equal(t, []string{"r1", "m1", "m2"}, tools.recalculated)
	assert.EqualValues(t, 2, envelope["data"].(map[string]any)["total"])

	_, result, envelope = callTool(t, h, `{"name": "recalculate_menu_items", "arguments": {"restaurantId": "r404"}}`)
	assert.True(t, result.IsError)
	assert.EqualValues(t, engine.CodeNotFound, envelope["code"])

	_, result, envelope = callTool(t, h, `{"name": "recalculate_menu_items", "arguments": {"restaurantId": 42}}`)
	assert.True(t, result.IsError)
	assert.EqualValues(t, engine.CodeInvalid, envelope["code"])

	_, result, envelope = callTool(t, h, `{"name": "get_carbon_factors", "arguments": {"items": [{"name": "Tofu"}], "region": "CN-East"}}`)
	assert.False(t, result.IsError)
	assert.Equal(t, "CN-East", tools.region)
	assert.Len(t, envelope["data"], 1)
}

func TestServer_HTTPErrors(t *testing.T) {
	h := New(&fakeTools{}, "", prometheus.NewRegistry()).Handler()

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{name: "wrong method", method: http.MethodGet, status: http.StatusMethodNotAllowed},
		{name: "bad json", method: http.MethodPost, body: `{`, status: http.StatusBadRequest},
		{name: "unknown tool", method: http.MethodPost, body: `{"name": "delete_everything"}`, status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/", bytes.NewBufferString(tt.body)))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "menucarbon_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	srv := httptest.NewServer(New(&fakeTools{}, "", reg).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "menucarbon_test_total 1")

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestServer_StartStopsOnCancel(t *testing.T) {
	s := New(&fakeTools{}, "127.0.0.1:0", prometheus.NewRegistry())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()
	require.NoError(t, <-done)
	assert.ElementsMatch(t, []string{ToolCalculate, ToolRecalculate, ToolFactors}, s.Names())
}
