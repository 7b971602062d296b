package carbon

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name      string
		f         float64
		precision int
		want      string
	}{
		{name: "thousands", f: 1234.567, precision: 2, want: "1,234.57"},
		{name: "small", f: 0.5, precision: 2, want: "0.50"},
		{name: "zero precision", f: 18248.4, precision: 0, want: "18,248"},
		{name: "negative", f: -1500.25, precision: 1, want: "-1,500.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFloat(tt.f, tt.precision))
		})
	}
}

func TestFormatKg(t *testing.T) {
	assert.Equal(t, "6.50 kg CO2e", FormatKg(6.5))
	assert.Equal(t, "0 kg CO2e", FormatKg(0.0004))
}

func TestEquivalencies(t *testing.T) {
	t.Run("below threshold", func(t *testing.T) {
		_, ok, err := Equivalencies(0.5)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("computes miles and phones", func(t *testing.T) {
		eq, ok, err := Equivalencies(19.2)
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, 100.0, eq.MilesDriven, 1e-9)
		assert.Contains(t, eq.DisplayText, "~100 miles")
	})

	t.Run("negative", func(t *testing.T) {
		_, _, err := Equivalencies(-1)
		assert.ErrorIs(t, err, ErrNegativeValue)
	})
}

func TestBaselineActiveAt(t *testing.T) {
	b := Baseline{}
	assert.True(t, b.ActiveAt(mustTime(t, "2025-01-01T00:00:00Z")))

	from := mustTime(t, "2025-01-01T00:00:00Z")
	to := mustTime(t, "2025-12-31T00:00:00Z")
	b.EffectiveDate, b.ExpiryDate = &from, &to
	assert.True(t, b.ActiveAt(mustTime(t, "2025-06-01T00:00:00Z")))
	assert.False(t, b.ActiveAt(mustTime(t, "2024-06-01T00:00:00Z")))
	assert.False(t, b.ActiveAt(mustTime(t, "2026-06-01T00:00:00Z")))
}

func TestPackagingLineAliases(t *testing.T) {
	var lines []PackagingLine
	require.NoError(t, json.Unmarshal([]byte(`[{"material":"paper","weight":0.1},{"type":"plastic","weight":0.2},{"name":"foil","weight":0.3}]`), &lines))
	require.Len(t, lines, 3)
	assert.Equal(t, "paper", lines[0].Material)
	assert.Equal(t, "plastic", lines[1].Material)
	assert.Equal(t, "foil", lines[2].Material)
	assert.InDelta(t, 0.3, lines[2].WeightKg, 1e-9)
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return v
}
