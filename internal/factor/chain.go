package factor

import (
	"context"
	"strings"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/logging"
)

// step is one level of a matching chain.
type step struct {
	level carbon.MatchLevel
	find  func(ctx context.Context) (*carbon.EmissionFactor, error)
}

// chainResult is the outcome of running a chain.
type chainResult struct {
	factor *carbon.EmissionFactor
	// degraded is set when a step failed, so a miss must not be cached.
	degraded bool
}

// runChain tries steps in order and returns the first factor carrying a value,
// annotated with the step's match level. Step errors are logged and treated as
// a miss for that step.
func runChain(ctx context.Context, kind string, steps []step) chainResult {
	var res chainResult
	for _, s := range steps {
		f, err := s.find(ctx)
		if err != nil {
			res.degraded = true
			logging.FromContext(ctx).Warn().
				Str("component", "factor").
				Str("operation", kind).
				Str("match_level", string(s.level)).
				Err(err).
				Msg("factor catalog query failed, trying next level")
			continue
		}
		if f.HasValue() {
			matched := *f
			matched.MatchLevel = s.level
			res.factor = &matched
			return res
		}
	}
	return res
}

// first returns the first factor of q carrying a value.
func (m *Matcher) first(q Query) func(ctx context.Context) (*carbon.EmissionFactor, error) {
	return func(ctx context.Context) (*carbon.EmissionFactor, error) {
		factors, err := m.catalog.FindFactors(ctx, q)
		if err != nil {
			return nil, err
		}
		for i := range factors {
			if factors[i].HasValue() {
				return &factors[i], nil
			}
		}
		return nil, nil
	}
}

// fuzzy returns the first factor of q whose name contains input, or one of whose
// aliases contains or is contained in input, case-insensitively.
func (m *Matcher) fuzzy(q Query, input string) func(ctx context.Context) (*carbon.EmissionFactor, error) {
	needle := strings.ToLower(strings.TrimSpace(input))
	return func(ctx context.Context) (*carbon.EmissionFactor, error) {
		if needle == "" {
			return nil, nil
		}
		factors, err := m.catalog.FindFactors(ctx, q)
		if err != nil {
			return nil, err
		}
		for i := range factors {
			if factors[i].HasValue() && fuzzyMatches(&factors[i], needle) {
				return &factors[i], nil
			}
		}
		return nil, nil
	}
}

func fuzzyMatches(f *carbon.EmissionFactor, needle string) bool {
	if strings.Contains(strings.ToLower(f.Name), needle) {
		return true
	}
	for _, a := range f.Alias {
		alias := strings.ToLower(a)
		if alias == "" {
			continue
		}
		if strings.Contains(alias, needle) || strings.Contains(needle, alias) {
			return true
		}
	}
	return false
}

// uniqueRegions drops empty and repeated regions, keeping order.
func uniqueRegions(regions ...string) []string {
	seen := make(map[string]bool, len(regions))
	out := make([]string, 0, len(regions))
	for _, r := range regions {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
