// Package baseline resolves regional reference footprints and classifies
// computed footprints against them.
package baseline

import (
	"context"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/logging"
)

// Source is the baseline lookup collaborator. It returns active baselines for
// the exact (mealType, region, energyType) key, in any order.
type Source interface {
	FindBaselines(ctx context.Context, mealType carbon.MealType, region string, energyType carbon.EnergyType) ([]carbon.Baseline, error)
}

// Resolution is the outcome of the regional, national, default chain.
type Resolution struct {
	Baseline   *carbon.Baseline
	Value      float64
	Source     string
	Region     string
	ResolvedAt time.Time
}

// Resolver walks the baseline fallback chain.
type Resolver struct {
	source         Source
	defaults       map[carbon.MealType]float64
	nationalRegion string
	now            func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithDefaults replaces the compiled per-meal-type defaults.
func WithDefaults(d map[carbon.MealType]float64) ResolverOption {
	return func(r *Resolver) {
		if len(d) > 0 {
			r.defaults = d
		}
	}
}

// WithNationalRegion sets the nation-wide region code.
func WithNationalRegion(code string) ResolverOption {
	return func(r *Resolver) {
		if code != "" {
			r.nationalRegion = code
		}
	}
}

// WithClock overrides the time used for validity windows.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a Resolver. A nil source always resolves to defaults.
func NewResolver(source Source, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		source:         source,
		defaults:       carbon.DefaultBaselines(),
		nationalRegion: carbon.DefaultBaselineRegion,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type strategy struct {
	source string
	region string
}

// Resolve returns the baseline for the key: the regional baseline, else the
// nation-wide one, else the compiled default for the meal type. It never fails;
// lookup errors are logged and the chain moves on.
func (r *Resolver) Resolve(ctx context.Context, mealType carbon.MealType, region string, energyType carbon.EnergyType) Resolution {
	now := r.now()
	region = RegionFor(region)

	chain := make([]strategy, 0, 2)
	if region != r.nationalRegion {
		chain = append(chain, strategy{source: carbon.BaselineSourceRegional, region: region})
	}
	chain = append(chain, strategy{source: carbon.BaselineSourceNational, region: r.nationalRegion})

	if r.source != nil {
		for _, s := range chain {
			candidates, err := r.source.FindBaselines(ctx, mealType, s.region, energyType)
			if err != nil {
				logging.FromContext(ctx).Warn().
					Str("component", "baseline").
					Str("operation", "resolve").
					Str("region", s.region).
					Err(err).
					Msg("baseline lookup failed, trying next level")
				continue
			}
			if b := pick(candidates, now); b != nil {
				return Resolution{Baseline: b, Value: b.CarbonFootprint.Value, Source: s.source, Region: s.region, ResolvedAt: now}
			}
		}
	}

	logging.FromContext(ctx).Warn().
		Str("component", "baseline").
		Str("operation", "resolve").
		Str("meal_type", string(mealType)).
		Str("region", region).
		Msg("no baseline found, using compiled default")
	return Resolution{Value: r.defaults[mealType], Source: carbon.BaselineSourceDefault, Region: r.nationalRegion, ResolvedAt: now}
}

// pick returns the candidate active at now with the highest semantic version.
// Versions that do not parse sort below every parsed version.
func pick(candidates []carbon.Baseline, now time.Time) *carbon.Baseline {
	var (
		best    *carbon.Baseline
		bestVer *semver.Version
	)
	for i := range candidates {
		c := &candidates[i]
		if !c.ActiveAt(now) {
			continue
		}
		v, _ := semver.NewVersion(c.Version)
		switch {
		case best == nil:
			best, bestVer = c, v
		case v != nil && (bestVer == nil || v.GreaterThan(bestVer)):
			best, bestVer = c, v
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// factorToBaseline maps factor regions onto baseline regions.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var factorToBaseline = map[string]string{
	"CN":       carbon.DefaultBaselineRegion,
	"CN-East":  "east_china",
	"CN-North": "north_china",
	"CN-South": "south_china",
	"CN-West":  "northwest",
	"Global":   carbon.DefaultBaselineRegion,
}

// RegionFor maps a factor region code to its baseline region; baseline codes
// pass through and an empty region is nation-wide.
func RegionFor(region string) string {
	if region == "" {
		return carbon.DefaultBaselineRegion
	}
	if mapped, ok := factorToBaseline[region]; ok {
		return mapped
	}
	return region
}
