package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/coefficients"
	"github.com/VeganGarden/MyGarden-sub002/internal/factor"
	"github.com/VeganGarden/MyGarden-sub002/internal/logging"
)

// Seed is the content of a seed file. Keys follow the JSON field names of
// the stored documents.
type Seed struct {
	Factors     []carbon.EmissionFactor `json:"factors"`
	Regions     []SeedRegion            `json:"regions"`
	Config      []SeedConfigEntry       `json:"config"`
	Baselines   []carbon.Baseline       `json:"baselines"`
	Restaurants []carbon.Restaurant     `json:"restaurants"`
	MenuItems   []json.RawMessage       `json:"menuItems"`
	Recipes     []carbon.Recipe         `json:"recipes"`
}

// SeedRegion is a factor region with its registry status.
type SeedRegion struct {
	factor.Region
	Status string `json:"status,omitempty"`
}

// SeedConfigEntry is one configuration row.
type SeedConfigEntry struct {
	ConfigType string  `json:"configType"`
	Key        string  `json:"key"`
	Value      float64 `json:"value"`
	Status     string  `json:"status,omitempty"`
}

// ImportResult counts imported rows per kind.
type ImportResult struct {
	Factors     int
	Regions     int
	Config      int
	Baselines   int
	Restaurants int
	MenuItems   int
	Recipes     int
}

// Total returns the number of imported rows.
func (r ImportResult) Total() int {
	return r.Factors + r.Regions + r.Config + r.Baselines + r.Restaurants + r.MenuItems + r.Recipes
}

// ParseSeed decodes a YAML seed. YAML is first decoded generically and then
// re-read through the JSON field names so seeds and stored documents share
// one vocabulary.
func ParseSeed(r io.Reader) (*Seed, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return &Seed{}, nil
		}
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to convert seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}
	return &seed, nil
}

// ImportFile imports the YAML seed at path.
func (s *Store) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	seed, err := ParseSeed(f)
	if err != nil {
		return ImportResult{}, err
	}
	return s.Import(ctx, seed)
}

// Import writes every row of seed, replacing rows with the same key. It stops
// at the first failing row.
func (s *Store) Import(ctx context.Context, seed *Seed) (ImportResult, error) {
	var res ImportResult
	for _, f := range seed.Factors {
		if err := s.PutFactor(ctx, f); err != nil {
			return res, err
		}
		res.Factors++
	}
	for _, r := range seed.Regions {
		if err := s.PutRegion(ctx, r.Region, r.Status); err != nil {
			return res, err
		}
		res.Regions++
	}
	for _, e := range seed.Config {
		entry := coefficients.Entry{ConfigType: e.ConfigType, Key: e.Key, Value: e.Value}
		if err := s.PutConfigEntry(ctx, entry, e.Status); err != nil {
			return res, err
		}
		res.Config++
	}
	for _, b := range seed.Baselines {
		if err := s.PutBaseline(ctx, b); err != nil {
			return res, err
		}
		res.Baselines++
	}
	for _, r := range seed.Restaurants {
		if err := s.PutRestaurant(ctx, r); err != nil {
			return res, err
		}
		res.Restaurants++
	}
	for _, r := range seed.Recipes {
		if err := s.PutRecipe(ctx, r); err != nil {
			return res, err
		}
		res.Recipes++
	}
	for _, doc := range seed.MenuItems {
		if err := s.PutMenuItemDocument(ctx, doc); err != nil {
			return res, err
		}
		res.MenuItems++
	}

	logging.FromContext(ctx).Info().
		Ctx(ctx).
		Str("component", "store").
		Str("operation", "import").
		Int("factors", res.Factors).
		Int("regions", res.Regions).
		Int("config", res.Config).
		Int("baselines", res.Baselines).
		Int("restaurants", res.Restaurants).
		Int("recipes", res.Recipes).
		Int("menu_items", res.MenuItems).
		Msg("seed imported")
	return res, nil
}
