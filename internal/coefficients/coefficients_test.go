package coefficients

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
)

type fakeSource struct {
	mu      sync.Mutex
	entries []Entry
	err     error
	calls   int
}

func (f *fakeSource) ActiveConfigEntries(context.Context) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]Entry(nil), f.entries...), nil
}

func (f *fakeSource) set(entries []Entry, err error) {
	f.mu.Lock()
	f.entries, f.err = entries, err
	f.mu.Unlock()
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestCache_DefaultsWithoutSource(t *testing.T) {
	c := New(nil, time.Minute)
	ctx := context.Background()

	assert.InDelta(t, 0.20, c.WasteRate(ctx, "vegetables"), 1e-9)
	assert.InDelta(t, 0.05, c.WasteRate(ctx, "meat"), 1e-9)
	assert.InDelta(t, 0.10, c.WasteRate(ctx, "unheard-of"), 1e-9)
	assert.InDelta(t, 0.5703, c.EnergyFactor(ctx, carbon.EnergyElectric), 1e-9)
	assert.InDelta(t, 2.16, c.EnergyFactor(ctx, carbon.EnergyGas), 1e-9)
	assert.InDelta(t, 0.5703, c.EnergyFactor(ctx, carbon.EnergyMixed), 1e-9)
	assert.InDelta(t, 5.0, c.CookingTime(ctx, "stir_fried"), 1e-9)
	assert.InDelta(t, 10.0, c.CookingTime(ctx, "sous_vide"), 1e-9)
	assert.InDelta(t, 3.0, c.CookingPower(ctx, "stir_fried"), 1e-9)
	assert.InDelta(t, 2.0, c.CookingPower(ctx, "sous_vide"), 1e-9)
}

func TestCache_LoadsAndLayersOverDefaults(t *testing.T) {
	src := &fakeSource{entries: []Entry{
		{ConfigType: TypeWasteRate, Key: "vegetables", Value: 0.25},
		{ConfigType: TypeEnergyFactor, Key: "electric", Value: 0.6},
		{ConfigType: TypeCookingTime, Key: "braised", Value: 60},
		{ConfigType: TypeCookingPower, Key: "braised", Value: 1.2},
		{ConfigType: "packaging", Key: "meal_box", Value: 0.1},
	}}
	c := New(src, time.Minute)
	ctx := context.Background()

	assert.InDelta(t, 0.25, c.WasteRate(ctx, "vegetables"), 1e-9)
	assert.InDelta(t, 0.05, c.WasteRate(ctx, "meat"), 1e-9)
	assert.InDelta(t, 0.6, c.EnergyFactor(ctx, carbon.EnergyElectric), 1e-9)
	assert.InDelta(t, 60.0, c.CookingTime(ctx, "braised"), 1e-9)
	assert.InDelta(t, 1.2, c.CookingPower(ctx, "braised"), 1e-9)
	assert.True(t, c.Snapshot(ctx).FromStore)
	assert.Equal(t, 1, src.calls)
}

func TestCache_TTLRefresh(t *testing.T) {
	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	src := &fakeSource{entries: []Entry{{ConfigType: TypeWasteRate, Key: "meat", Value: 0.07}}}
	c := New(src, 5*time.Minute, WithClock(clk.now))
	ctx := context.Background()

	assert.InDelta(t, 0.07, c.WasteRate(ctx, "meat"), 1e-9)

	src.set([]Entry{{ConfigType: TypeWasteRate, Key: "meat", Value: 0.09}}, nil)
	clk.t = clk.t.Add(4 * time.Minute)
	assert.InDelta(t, 0.07, c.WasteRate(ctx, "meat"), 1e-9, "within TTL the snapshot is reused")

	clk.t = clk.t.Add(2 * time.Minute)
	assert.InDelta(t, 0.09, c.WasteRate(ctx, "meat"), 1e-9, "after TTL the snapshot is reloaded")
	assert.Equal(t, 2, src.calls)
}

func TestCache_ReloadFailureKeepsPrevious(t *testing.T) {
	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	src := &fakeSource{entries: []Entry{{ConfigType: TypeCookingTime, Key: "steamed", Value: 18}}}
	c := New(src, time.Minute, WithClock(clk.now))
	ctx := context.Background()

	require.InDelta(t, 18.0, c.CookingTime(ctx, "steamed"), 1e-9)

	src.set(nil, errors.New("store down"))
	clk.t = clk.t.Add(2 * time.Minute)
	assert.InDelta(t, 18.0, c.CookingTime(ctx, "steamed"), 1e-9)

	// The failed attempt is stamped so the store is not queried again within the TTL.
	calls := src.calls
	_ = c.CookingTime(ctx, "steamed")
	assert.Equal(t, calls, src.calls)
}

func TestCache_FirstLoadFailureServesDefaults(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	c := New(src, time.Minute)
	assert.InDelta(t, 0.20, c.WasteRate(context.Background(), "vegetables"), 1e-9)
}

func TestCache_Invalidate(t *testing.T) {
	src := &fakeSource{}
	c := New(src, time.Hour)
	ctx := context.Background()

	_ = c.Snapshot(ctx)
	c.Invalidate()
	_ = c.Snapshot(ctx)
	assert.Equal(t, 2, src.calls)
}

func TestCache_ConcurrentReadersReloadOnce(t *testing.T) {
	src := &fakeSource{}
	c := New(src, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.WasteRate(ctx, "meat")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, src.calls)
}
