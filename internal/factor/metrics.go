package factor

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts factor cache hits and misses by matcher kind.
type Metrics struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
}

// NewMetrics builds the counters and registers them on reg when reg is non-nil.
// Counters already registered by another Matcher on the same registry are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "menucarbon_factor_cache_hits_total",
			Help: "Factor lookups answered from the match cache.",
		}, []string{"kind"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "menucarbon_factor_cache_misses_total",
			Help: "Factor lookups that queried the catalog.",
		}, []string{"kind"}),
	}
	if reg == nil {
		return m
	}
	m.hits = register(reg, m.hits)
	m.misses = register(reg, m.misses)
	return m
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return c
}

func (m *Metrics) hit(kind string)  { m.hits.WithLabelValues(kind).Inc() }
func (m *Metrics) miss(kind string) { m.misses.WithLabelValues(kind).Inc() }
