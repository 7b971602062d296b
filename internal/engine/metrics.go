package engine

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Calculation outcomes.
const (
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeNotFound = "not_found"
	outcomeFailed   = "failed"
)

// Metrics counts calculations by tier and outcome.
type Metrics struct {
	calculations *prometheus.CounterVec
}

// NewMetrics builds the counter and registers it on reg when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "menucarbon_calculations_total",
		Help: "Menu-item footprint calculations by tier and outcome.",
	}, []string{"level", "outcome"})
	if reg != nil {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
					c = existing
				}
			}
		}
	}
	return &Metrics{calculations: c}
}

func (m *Metrics) observe(level, outcome string) {
	m.calculations.WithLabelValues(level, outcome).Inc()
}
