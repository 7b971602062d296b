package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VeganGarden/MyGarden-sub002/internal/config"
	"github.com/VeganGarden/MyGarden-sub002/internal/engine"
	"github.com/VeganGarden/MyGarden-sub002/internal/factor"
)

const testSeed = `
factors:
  - {factorId: f-tofu-east, name: Tofu, category: ingredient, region: CN-East, factorValue: 2.0}
  - {factorId: f-rice-cn, name: Rice, category: ingredient, region: CN, factorValue: 1.5}
regions:
  - {code: CN, country: CN, level: 1}
  - {code: CN-East, country: CN, parentCode: CN, level: 2}
baselines:
  - baselineId: b-national
    version: 1.0.0
    category: {mealType: meat_simple, region: national_average, energyType: electric}
    carbonFootprint:
      value: 5
      confidenceInterval: {lower: 4, upper: 6}
restaurants:
  - {id: r1, name: Green Bowl, region: east_china}
menuItems:
  - id: m1
    restaurantId: r1
    name: Tofu bowl
    mealType: meat_simple
    energyType: electric
    ingredients:
      - {name: Tofu, quantity: 200, unit: g}
    carbonFootprint: 9.9
`

const testRequest = `{
  "restaurantId": "r1",
  "mealType": "meat_simple",
  "energyType": "electric",
  "ingredients": [{"name": "Tofu", "quantity": 200, "unit": "g"}]
}`

// newTestRoot returns a command factory bound to a store in a temp dir.
func newTestRoot(t *testing.T) func(args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "menucarbon.db")
	load := func(string) (*config.Config, error) {
		cfg := config.New()
		cfg.Store.Path = dbPath
		cfg.Logging.Level = "error"
		return cfg, nil
	}

	return func(args ...string) (string, error) {
		root := NewRootCmdWithLoader("test", load)
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(args)
		err := root.ExecuteContext(context.Background())
		return out.String(), err
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCLI_ImportAndCalculate(t *testing.T) {
	run := newTestRoot(t)

	out, err := run("store", "import", writeFile(t, "seed.yaml", testSeed))
	require.NoError(t, err, out)
	assert.Contains(t, out, "Imported 7 rows")

	out, err = run("calculate", "-f", writeFile(t, "req.json", testRequest), "--output", "json")
	require.NoError(t, err, out)

	var resp engine.Response[*engine.Data]
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, engine.CodeOK, resp.Code, resp.Error)
	assert.InDelta(t, 0.44, resp.Data.CarbonFootprint.Value, 1e-9)
	assert.InDelta(t, 5.0, resp.Data.CarbonFootprint.Baseline, 1e-12)
	assert.Equal(t, "east_china", resp.Data.Region)
	assert.EqualValues(t, "low", resp.Data.CarbonLevel)

	out, err = run("calculate", "-f", writeFile(t, "req.json", testRequest), "--output", "table")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Carbon level: LOW")
	assert.Contains(t, out, "0.44 kg CO2e")
}

func TestCLI_CalculateRejected(t *testing.T) {
	run := newTestRoot(t)

	out, err := run("calculate", "-f", writeFile(t, "req.json", `{"restaurantId": "r1", "mealType": "brunch"}`), "--output", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCodeRejected, ExitCodeOf(err))
	assert.Contains(t, out, `"code": 400`)

	_, err = run("calculate", "-f", writeFile(t, "req.json", testRequest), "--output", "yaml")
	require.Error(t, err)
	assert.Equal(t, 1, ExitCodeOf(err))
}

func TestCLI_RecalculateAndFactors(t *testing.T) {
	run := newTestRoot(t)
	_, err := run("store", "import", writeFile(t, "seed.yaml", testSeed))
	require.NoError(t, err)

	out, err := run("recalculate", "--restaurant", "r1", "--output", "json")
	require.NoError(t, err, out)
	var batch struct {
		Code int `json:"code"`
		Data struct {
			Total   int `json:"total"`
			Success int `json:"success"`
			Results []struct {
				MenuItemID string `json:"menuItemId"`
				Changed    bool   `json:"changed"`
			} `json:"results"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &batch))
	assert.Equal(t, 1, batch.Data.Total)
	assert.Equal(t, 1, batch.Data.Success)
	assert.True(t, batch.Data.Results[0].Changed)

	// The stored fingerprint now matches, so a second run changes nothing.
	out, err = run("recalculate", "--restaurant", "r1", "--output", "json")
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), &batch))
	assert.False(t, batch.Data.Results[0].Changed)

	out, err = run("factors", "--region", "CN-East", "Tofu", "Unobtainium:ingredient", "--output", "json")
	require.NoError(t, err, out)
	var factors engine.Response[[]factor.LookupRecord]
	require.NoError(t, json.Unmarshal([]byte(out), &factors))
	require.Len(t, factors.Data, 2)
	assert.True(t, factors.Data[0].Success)
	assert.Equal(t, "f-tofu-east", factors.Data[0].FactorID)
	assert.False(t, factors.Data[1].Success)
}

func TestCLI_ConfigShow(t *testing.T) {
	run := newTestRoot(t)

	out, err := run("config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "default_level: L2")
	assert.Contains(t, out, "menucarbon.db")

	out, err = run("config", "validate", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")
	assert.Contains(t, out, "Cache TTLs: config 5m, factors 5m")
}

func TestParseLookupItems(t *testing.T) {
	assert.Equal(t, []factor.LookupItem{
		{Name: "Tofu"},
		{Name: "豆腐", Category: "ingredient"},
	}, ParseLookupItems([]string{"Tofu", " 豆腐 : ingredient"}))
}

func TestExitCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "exit error", err: &ExitError{ExitCode: 3, Reason: "high"}, want: 3},
		{name: "wrapped", err: errors.Join(errors.New("outer"), &ExitError{ExitCode: 2}), want: 2},
		{name: "generic", err: errors.New("boom"), want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeOf(tt.err))
		})
	}
}
