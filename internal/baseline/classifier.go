package baseline

import (
	"context"
	"fmt"
	"math"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
)

// Classification compares a footprint to its baseline.
type Classification struct {
	Level             carbon.CarbonLevel  `json:"carbonLevel"`
	Baseline          float64             `json:"baseline"`
	Interval          carbon.Interval     `json:"confidenceInterval"`
	Reduction         float64             `json:"reduction"`
	NeedsOptimization bool                `json:"needsOptimization"`
	WarningMessage    string              `json:"warningMessage,omitempty"`
	Info              carbon.BaselineInfo `json:"baselineInfo"`
}

// Classifier is the Baseline Classifier.
type Classifier struct {
	resolver *Resolver
	ratio    float64
}

// NewClassifier creates a Classifier. ratio widens baselines that carry no
// interval or uncertainty; a non-positive ratio uses 10%.
func NewClassifier(resolver *Resolver, ratio float64) *Classifier {
	if ratio <= 0 {
		ratio = carbon.DefaultUncertaintyRatio
	}
	return &Classifier{resolver: resolver, ratio: ratio}
}

// Classify resolves the baseline for the key and classifies value against it.
func (c *Classifier) Classify(ctx context.Context, value float64, mealType carbon.MealType, region string, energyType carbon.EnergyType) Classification {
	res := c.resolver.Resolve(ctx, mealType, region, energyType)
	return ClassifyAgainst(value, res, c.ratio)
}

// IntervalOf derives [lower, upper] from the baseline's confidence interval,
// else from its uncertainty, else as ±ratio of its value.
func IntervalOf(res Resolution, ratio float64) carbon.Interval {
	if b := res.Baseline; b != nil {
		if ci := b.CarbonFootprint.ConfidenceInterval; ci != nil {
			return *ci
		}
		if u := b.CarbonFootprint.Uncertainty; u != nil {
			return carbon.Interval{Lower: math.Max(0, res.Value-*u), Upper: res.Value + *u}
		}
	}
	delta := res.Value * ratio
	return carbon.Interval{Lower: math.Max(0, res.Value-delta), Upper: res.Value + delta}
}

// ClassifyAgainst classifies value against an already resolved baseline.
func ClassifyAgainst(value float64, res Resolution, ratio float64) Classification {
	interval := IntervalOf(res, ratio)

	c := Classification{
		Baseline:  res.Value,
		Interval:  interval,
		Reduction: res.Value - value,
		Info:      infoOf(res, interval),
	}
	switch {
	case value < interval.Lower:
		c.Level = carbon.CarbonLow
	case value > interval.Upper:
		c.Level = carbon.CarbonHigh
		c.NeedsOptimization = true
		c.WarningMessage = fmt.Sprintf(
			"carbon footprint %.2f kg CO2e is above the baseline range [%.2f, %.2f]; consider lower-carbon ingredients or cooking methods",
			value, interval.Lower, interval.Upper)
	default:
		c.Level = carbon.CarbonMedium
	}
	return c
}

func infoOf(res Resolution, interval carbon.Interval) carbon.BaselineInfo {
	info := carbon.BaselineInfo{
		Resolution: res.Source,
		Value:      res.Value,
		Interval:   interval,
		QueryDate:  res.ResolvedAt,
	}
	if b := res.Baseline; b != nil {
		info.BaselineID = b.BaselineID
		info.Version = b.Version
		info.Source = b.Source
		info.Uncertainty = b.CarbonFootprint.Uncertainty
	}
	return info
}
