package factor

import (
	"context"
	"strings"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
)

// LookupItem is one name to diagnose.
type LookupItem struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// LookupRecord is the diagnostic outcome for one LookupItem.
type LookupRecord struct {
	Input      string            `json:"input"`
	FactorID   string            `json:"factorId,omitempty"`
	Value      *float64          `json:"value"`
	Unit       string            `json:"unit,omitempty"`
	Source     string            `json:"source,omitempty"`
	MatchLevel carbon.MatchLevel `json:"matchLevel,omitempty"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
}

// GetCarbonFactors runs the ingredient matcher for every item and reports one
// record per item. An item without a name yields a failure record.
func (m *Matcher) GetCarbonFactors(ctx context.Context, items []LookupItem, region string) []LookupRecord {
	records := make([]LookupRecord, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			records = append(records, LookupRecord{Input: "unknown", Error: "ingredient name is required"})
			continue
		}

		f, err := m.MatchFactor(ctx, name, item.Category, region)
		switch {
		case err != nil:
			records = append(records, LookupRecord{Input: name, MatchLevel: carbon.MatchError, Error: err.Error()})
		case f == nil:
			records = append(records, LookupRecord{Input: name, MatchLevel: carbon.MatchNotFound})
		default:
			records = append(records, LookupRecord{
				Input:      name,
				FactorID:   f.FactorID,
				Value:      f.FactorValue,
				Unit:       f.Unit,
				Source:     f.Source,
				MatchLevel: f.MatchLevel,
				Success:    true,
			})
		}
	}
	return records
}
