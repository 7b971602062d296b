package factor

import (
	"context"
	"strings"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
)

// Matcher kinds, used in cache keys and metric labels.
const (
	kindIngredient = "ingredient"
	kindEnergy     = "energy"
	kindMaterial   = "material"
	kindTransport  = "transport"
)

// Catalog names of the energy factors, used when no regional entry exists.
const (
	electricityName = "电力"
	naturalGasName  = "天然气"
)

func cacheKey(name, category, region string) string {
	return name + "|" + category + "|" + region
}

// cached answers key from the decision cache or runs steps once, collapsing
// concurrent identical lookups.
func (m *Matcher) cached(ctx context.Context, kind, key string, steps func() []step) *carbon.EmissionFactor {
	if f, ok := m.factors.Get(key); ok {
		m.metrics.hit(kind)
		return clone(f)
	}
	m.metrics.miss(kind)

	v, _, _ := m.group.Do(key, func() (any, error) {
		res := runChain(ctx, kind, steps())
		if res.factor != nil || !res.degraded {
			m.factors.Set(key, res.factor)
		}
		return res.factor, nil
	})
	f, _ := v.(*carbon.EmissionFactor)
	return clone(f)
}

func clone(f *carbon.EmissionFactor) *carbon.EmissionFactor {
	if f == nil {
		return nil
	}
	c := *f
	c.Alias = append([]string(nil), f.Alias...)
	if f.FactorValue != nil {
		v := *f.FactorValue
		c.FactorValue = &v
	}
	return &c
}

// MatchFactor resolves an ingredient factor: exact name in the region, then
// alias in the region. There is no category-average fallback;
// a miss returns (nil, nil). The region is validated first and degrades to the
// default region when invalid. category scopes the cache entry only.
func (m *Matcher) MatchFactor(ctx context.Context, name, category, region string) (*carbon.EmissionFactor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	code, _ := m.ResolveRegion(ctx, region)

	return m.cached(ctx, kindIngredient, cacheKey(name, category, code), func() []step {
		return []step{
			{level: carbon.MatchExactRegion, find: m.first(Query{Name: name, Region: code})},
			{level: carbon.MatchAlias, find: m.first(Query{Alias: name, Region: code})},
		}
	}), nil
}

// MatchEnergy resolves the factor of an energy type. Electricity (also used
// for mixed kitchens) is keyed by the grid region; natural gas by the country
// region. The chain is exact region, catalog name, then country and default.
func (m *Matcher) MatchEnergy(ctx context.Context, energyType carbon.EnergyType, gridRegion, countryRegion string) (*carbon.EmissionFactor, error) {
	sub, name, region := carbon.SubCategoryElectricity, electricityName, gridRegion
	if energyType == carbon.EnergyGas {
		sub, name, region = carbon.SubCategoryNaturalGas, naturalGasName, countryRegion
	}
	if region == "" {
		region = m.defaultRegion
	}

	return m.cached(ctx, kindEnergy, cacheKey(sub, kindEnergy+":"+sub, region), func() []step {
		steps := []step{
			{level: carbon.MatchExactRegion, find: m.first(Query{Category: carbon.CategoryEnergy, SubCategory: sub, Region: region})},
			{level: carbon.MatchName, find: m.first(Query{Category: carbon.CategoryEnergy, Name: name})},
		}
		for _, r := range uniqueRegions(CountryOf(region), m.defaultRegion) {
			if r == region {
				continue
			}
			steps = append(steps, step{
				level: carbon.MatchNationalFallback,
				find:  m.first(Query{Category: carbon.CategoryEnergy, SubCategory: sub, Region: r}),
			})
		}
		return steps
	}), nil
}

// MatchMaterial resolves a packaging material: exact name in the region,
// alias, fuzzy substring, then the country region.
func (m *Matcher) MatchMaterial(ctx context.Context, name, region string) (*carbon.EmissionFactor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	code, _ := m.ResolveRegion(ctx, region)
	country := m.CountryRegion(ctx, code)

	return m.cached(ctx, kindMaterial, cacheKey(name, kindMaterial, code), func() []step {
		return []step{
			{level: carbon.MatchExactRegion, find: m.first(Query{Category: carbon.CategoryMaterial, Name: name, Region: code})},
			{level: carbon.MatchAlias, find: m.first(Query{Category: carbon.CategoryMaterial, Alias: name})},
			{level: carbon.MatchFuzzy, find: m.fuzzy(Query{Category: carbon.CategoryMaterial}, name)},
			{level: carbon.MatchNationalFallback, find: m.first(Query{Category: carbon.CategoryMaterial, Name: name, Region: country})},
		}
	}), nil
}

// MatchTransport resolves a transport mode: exact region, then country region.
func (m *Matcher) MatchTransport(ctx context.Context, mode, region string) (*carbon.EmissionFactor, error) {
	mode = strings.TrimSpace(mode)
	if mode == "" {
		return nil, nil
	}
	code, _ := m.ResolveRegion(ctx, region)
	country := m.CountryRegion(ctx, code)

	return m.cached(ctx, kindTransport, cacheKey(mode, kindTransport, code), func() []step {
		steps := []step{
			{level: carbon.MatchExactRegion, find: m.first(Query{Category: carbon.CategoryTransport, Name: mode, Region: code})},
		}
		if country != code {
			steps = append(steps, step{
				level: carbon.MatchNationalFallback,
				find:  m.first(Query{Category: carbon.CategoryTransport, Name: mode, Region: country}),
			})
		}
		return steps
	}), nil
}
