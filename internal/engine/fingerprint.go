package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
)

// fingerprintDecimals bounds float noise before hashing.
const fingerprintDecimals = 6

type fingerprintFactor struct {
	Ingredient string  `json:"ingredient"`
	FactorID   string  `json:"factorId,omitempty"`
	Carbon     float64 `json:"carbon"`
}

// fingerprintView is the time-independent projection of a calculation.
type fingerprintView struct {
	Value            float64             `json:"value"`
	Breakdown        carbon.Breakdown    `json:"breakdown"`
	CalculationLevel carbon.Level        `json:"calculationLevel"`
	IsEstimated      bool                `json:"isEstimated"`
	CarbonLevel      carbon.CarbonLevel  `json:"carbonLevel"`
	Baseline         float64             `json:"baseline"`
	Interval         carbon.Interval     `json:"interval"`
	FactorRegion     string              `json:"factorRegion,omitempty"`
	Factors          []fingerprintFactor `json:"factors"`
}

// Fingerprint returns the hex SHA-256 of the JCS-canonical form of the
// calculation outcome. Timestamps are excluded, so recalculating unchanged
// input yields the same fingerprint.
func Fingerprint(result *carbon.FootprintResult, level carbon.CarbonLevel, baselineValue float64, interval carbon.Interval) (string, error) {
	if result == nil {
		return "", fmt.Errorf("%w: nil result", carbon.ErrInvalidRequest)
	}
	r := func(v float64) float64 { return carbon.Round(v, fingerprintDecimals) }

	view := fingerprintView{
		Value: r(result.Value),
		Breakdown: carbon.Breakdown{
			Ingredients: r(result.Breakdown.Ingredients),
			Energy:      r(result.Breakdown.Energy),
			Packaging:   r(result.Breakdown.Packaging),
			Transport:   r(result.Breakdown.Transport),
		},
		CalculationLevel: result.CalculationLevel,
		IsEstimated:      result.IsEstimated,
		CarbonLevel:      level,
		Baseline:         r(baselineValue),
		Interval:         carbon.Interval{Lower: r(interval.Lower), Upper: r(interval.Upper)},
		FactorRegion:     result.Details.FactorRegion,
		Factors:          make([]fingerprintFactor, 0, len(result.FactorMatchInfo)),
	}
	for _, m := range result.FactorMatchInfo {
		ff := fingerprintFactor{Ingredient: m.IngredientName, Carbon: r(m.CarbonFootprint)}
		if m.MatchedFactor != nil {
			ff.FactorID = m.MatchedFactor.FactorID
		}
		view.Factors = append(view.Factors, ff)
	}

	raw, err := json.Marshal(view)
	if err != nil {
		return "", fmt.Errorf("marshaling fingerprint view: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalizing fingerprint view: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
