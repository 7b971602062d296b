package factor

import (
	"context"
	"fmt"
	"strings"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/logging"
)

// baselineToFactor maps baseline region codes onto factor catalog regions.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var baselineToFactor = map[string]string{
	"national_average": "CN",
	"north_china":      "CN-North",
	"northeast":        "CN-North",
	"east_china":       "CN-East",
	"central_china":    "CN-East",
	"northwest":        "CN-West",
	"south_china":      "CN-South",
}

// builtinRegions are accepted when no registry is configured.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var builtinRegions = map[string]bool{
	"CN":       true,
	"CN-North": true,
	"CN-East":  true,
	"CN-West":  true,
	"CN-South": true,
	"Global":   true,
}

// FactorRegionFor maps a baseline region to its factor region. Factor region
// codes pass through; an empty region maps to CN.
func FactorRegionFor(region string) string {
	if region == "" {
		return carbon.DefaultFactorRegion
	}
	if mapped, ok := baselineToFactor[region]; ok {
		return mapped
	}
	return region
}

// CountryOf returns the prefix of a factor region before the first '-'.
func CountryOf(region string) string {
	country, _, _ := strings.Cut(region, "-")
	return country
}

// IsValidFactorRegion reports whether code is an active factor region.
// Registry failures count as invalid.
func (m *Matcher) IsValidFactorRegion(ctx context.Context, code string) bool {
	r, err := m.lookupRegion(ctx, code)
	return err == nil && r != nil
}

func (m *Matcher) lookupRegion(ctx context.Context, code string) (*Region, error) {
	if code == "" {
		return nil, nil
	}
	if m.regions == nil {
		if builtinRegions[code] {
			return &Region{Code: code, Country: CountryOf(code)}, nil
		}
		return nil, nil
	}
	if r, ok := m.valid.Get(code); ok {
		return r, nil
	}
	r, err := m.regions.LookupFactorRegion(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("looking up factor region %s: %w", code, err)
	}
	m.valid.Set(code, r)
	return r, nil
}

// ResolveRegion maps region to a factor region and validates it against the
// registry. An invalid region degrades to the default region and a warning is
// returned; the call itself never fails.
func (m *Matcher) ResolveRegion(ctx context.Context, region string) (string, string) {
	if region == "" {
		return m.defaultRegion, ""
	}
	code := FactorRegionFor(region)
	r, err := m.lookupRegion(ctx, code)
	if err == nil && r != nil {
		return code, ""
	}

	warning := fmt.Sprintf("factor region %q is not configured, using %s", region, m.defaultRegion)
	ev := logging.FromContext(ctx).Warn().
		Str("component", "factor").
		Str("operation", "resolve_region").
		Str("region", region)
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg(warning)
	return m.defaultRegion, warning
}

// CountryRegion returns the country-level factor region of a factor region,
// preferring the registry's country over the code prefix.
func (m *Matcher) CountryRegion(ctx context.Context, factorRegion string) string {
	if r, err := m.lookupRegion(ctx, factorRegion); err == nil && r != nil && r.Country != "" {
		return r.Country
	}
	if factorRegion == "" {
		return m.defaultRegion
	}
	return CountryOf(factorRegion)
}
