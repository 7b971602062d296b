// Package coefficients serves waste rates, energy factors and cooking
// parameters from a TTL-refreshed snapshot of the configuration store.
//
// Every lookup is answered from memory. When the snapshot is older than the
// TTL the next lookup reloads it synchronously; a failed reload keeps the
// previous snapshot (or the compiled defaults) and logs a warning. Lookups
// never fail.
package coefficients

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/engine/cache"
	"github.com/VeganGarden/MyGarden-sub002/internal/logging"
)

// Config types understood by the cache. Other types are ignored.
const (
	TypeWasteRate    = "waste_rate"
	TypeEnergyFactor = "energy_factor"
	TypeCookingTime  = "cooking_time"
	TypeCookingPower = "cooking_power"
)

// Entry is one active row of the configuration store.
type Entry struct {
	ConfigType string
	Key        string
	Value      float64
}

// Source reads active configuration entries.
type Source interface {
	ActiveConfigEntries(ctx context.Context) ([]Entry, error)
}

// Snapshot is an immutable view of the configuration.
type Snapshot struct {
	WasteRates    map[string]float64
	EnergyFactors map[carbon.EnergyType]float64
	CookingTimes  map[string]float64
	CookingPowers map[string]float64
	LoadedAt      time.Time
	FromStore     bool
}

// DefaultSnapshot returns the compiled defaults.
func DefaultSnapshot() *Snapshot {
	return &Snapshot{
		WasteRates:    carbon.DefaultWasteRates(),
		EnergyFactors: carbon.DefaultEnergyFactors(),
		CookingTimes:  carbon.DefaultCookingTimes(),
		CookingPowers: carbon.DefaultCookingPowers(),
	}
}

// Cache is the Configuration Cache.
type Cache struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	snapshot atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache over source. A nil source serves compiled defaults forever.
func New(source Source, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	c := &Cache{source: source, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.snapshot.Store(DefaultSnapshot())
	return c
}

// Snapshot returns the current snapshot, reloading it first when stale.
func (c *Cache) Snapshot(ctx context.Context) *Snapshot {
	snap := c.snapshot.Load()
	if c.source == nil || c.fresh(snap) {
		return snap
	}

	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	// Another caller may have reloaded while we waited.
	snap = c.snapshot.Load()
	if c.fresh(snap) {
		return snap
	}
	return c.reload(ctx, snap)
}

// Invalidate forces the next lookup to reload.
func (c *Cache) Invalidate() {
	prev := c.snapshot.Load()
	next := *prev
	next.LoadedAt = time.Time{}
	c.snapshot.Store(&next)
}

func (c *Cache) fresh(s *Snapshot) bool {
	return !s.LoadedAt.IsZero() && c.now().Sub(s.LoadedAt) <= c.ttl
}

func (c *Cache) reload(ctx context.Context, prev *Snapshot) *Snapshot {
	log := logging.FromContext(ctx)
	now := c.now()

	entries, err := c.source.ActiveConfigEntries(ctx)
	if err != nil {
		log.Warn().
			Str("component", "coefficients").
			Str("operation", "reload").
			Err(err).
			Msg("configuration reload failed, keeping previous values")
		stale := *prev
		stale.LoadedAt = now
		c.snapshot.Store(&stale)
		return &stale
	}

	next := DefaultSnapshot()
	next.LoadedAt = now
	next.FromStore = true
	for _, e := range entries {
		switch e.ConfigType {
		case TypeWasteRate:
			next.WasteRates[e.Key] = e.Value
		case TypeEnergyFactor:
			next.EnergyFactors[carbon.EnergyType(e.Key)] = e.Value
		case TypeCookingTime:
			next.CookingTimes[e.Key] = e.Value
		case TypeCookingPower:
			next.CookingPowers[e.Key] = e.Value
		}
	}
	c.snapshot.Store(next)

	log.Debug().
		Str("component", "coefficients").
		Int("entries", len(entries)).
		Msg("configuration snapshot reloaded")
	return next
}

// WasteRate returns the waste rate of an ingredient category, falling back to
// the "default" key and then to 0.10.
func (c *Cache) WasteRate(ctx context.Context, category string) float64 {
	s := c.Snapshot(ctx)
	if v, ok := s.WasteRates[category]; ok {
		return v
	}
	if v, ok := s.WasteRates[carbon.DefaultWasteKey]; ok {
		return v
	}
	return carbon.DefaultWasteRate
}

// EnergyFactor returns kg CO2e per kWh (electric) or m³ (gas). Unknown types
// use the electric factor.
func (c *Cache) EnergyFactor(ctx context.Context, energyType carbon.EnergyType) float64 {
	s := c.Snapshot(ctx)
	if v, ok := s.EnergyFactors[energyType]; ok {
		return v
	}
	if v, ok := s.EnergyFactors[carbon.EnergyElectric]; ok {
		return v
	}
	return carbon.DefaultElectricFactorKWh
}

// CookingTime returns typical minutes for a method, 10 when unknown.
func (c *Cache) CookingTime(ctx context.Context, method string) float64 {
	if v, ok := c.Snapshot(ctx).CookingTimes[method]; ok {
		return v
	}
	return carbon.DefaultCookingMinutes
}

// CookingPower returns typical kW for a method, 2.0 when unknown.
func (c *Cache) CookingPower(ctx context.Context, method string) float64 {
	if v, ok := c.Snapshot(ctx).CookingPowers[method]; ok {
		return v
	}
	return carbon.DefaultCookingPowerKW
}
