package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
	"github.com/VeganGarden/MyGarden-sub002/internal/coefficients"
	"github.com/VeganGarden/MyGarden-sub002/internal/factor"
)

// FindFactors returns the active factors matching every non-empty field of q,
// newest first.
func (s *Store) FindFactors(ctx context.Context, q factor.Query) ([]carbon.EmissionFactor, error) {
	where := []string{"status = ?"}
	args := []any{StatusActive}
	if q.Name != "" {
		where = append(where, "name = ?")
		args = append(args, q.Name)
	}
	if q.Alias != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(emission_factors.doc, '$.alias') WHERE json_each.value = ?)")
		args = append(args, q.Alias)
	}
	if q.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(q.Category))
	}
	if q.SubCategory != "" {
		where = append(where, "sub_category = ?")
		args = append(args, q.SubCategory)
	}
	if q.Region != "" {
		where = append(where, "region = ?")
		args = append(args, q.Region)
	}

	query := "SELECT doc FROM emission_factors WHERE " + strings.Join(where, " AND ") +
		" ORDER BY year DESC, factor_id"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query factors: %w", err)
	}
	defer rows.Close()

	var factors []carbon.EmissionFactor
	for rows.Next() {
		var f carbon.EmissionFactor
		if err := scanDoc(rows, &f); err != nil {
			return nil, fmt.Errorf("failed to read factor: %w", err)
		}
		factors = append(factors, f)
	}
	return factors, rows.Err()
}

// PutFactor inserts or replaces a factor. An empty status is stored as active.
func (s *Store) PutFactor(ctx context.Context, f carbon.EmissionFactor) error {
	if f.FactorID == "" {
		return fmt.Errorf("%w: factorId is required", carbon.ErrInvalidRequest)
	}
	f.Status = orActive(f.Status)
	doc, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode factor %s: %w", f.FactorID, err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO emission_factors (factor_id, name, category, sub_category, region, year, status, doc)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.FactorID, f.Name, string(f.Category), f.SubCategory, f.Region, f.Year, f.Status, string(doc))
	if err != nil {
		return fmt.Errorf("failed to save factor %s: %w", f.FactorID, err)
	}
	return nil
}

// LookupFactorRegion returns the active region with the given code, or nil
// when there is none.
func (s *Store) LookupFactorRegion(ctx context.Context, code string) (*factor.Region, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT doc FROM factor_regions WHERE code = ? AND status = ?`, code, StatusActive)
	var r factor.Region
	if err := scanDoc(row, &r); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up region %s: %w", code, err)
	}
	return &r, nil
}

// PutRegion inserts or replaces a factor region with the given status.
func (s *Store) PutRegion(ctx context.Context, r factor.Region, status string) error {
	if r.Code == "" {
		return fmt.Errorf("%w: region code is required", carbon.ErrInvalidRequest)
	}
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode region %s: %w", r.Code, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO factor_regions (code, status, doc) VALUES (?, ?, ?)`,
		r.Code, orActive(status), string(doc))
	if err != nil {
		return fmt.Errorf("failed to save region %s: %w", r.Code, err)
	}
	return nil
}

// ActiveConfigEntries returns every active configuration entry.
func (s *Store) ActiveConfigEntries(ctx context.Context) ([]coefficients.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT config_type, key, value FROM config_entries WHERE status = ? ORDER BY config_type, key`,
		StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query config entries: %w", err)
	}
	defer rows.Close()

	var entries []coefficients.Entry
	for rows.Next() {
		var e coefficients.Entry
		if err := rows.Scan(&e.ConfigType, &e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("failed to scan config entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PutConfigEntry inserts or replaces a configuration entry.
func (s *Store) PutConfigEntry(ctx context.Context, e coefficients.Entry, status string) error {
	if e.ConfigType == "" || e.Key == "" {
		return fmt.Errorf("%w: config type and key are required", carbon.ErrInvalidRequest)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO config_entries (config_type, key, value, status) VALUES (?, ?, ?, ?)`,
		e.ConfigType, e.Key, e.Value, orActive(status))
	if err != nil {
		return fmt.Errorf("failed to save config entry %s/%s: %w", e.ConfigType, e.Key, err)
	}
	return nil
}

// FindBaselines returns the active baselines of one category.
func (s *Store) FindBaselines(
	ctx context.Context,
	mealType carbon.MealType,
	region string,
	energyType carbon.EnergyType,
) ([]carbon.Baseline, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT doc FROM baselines
        WHERE meal_type = ? AND region = ? AND energy_type = ? AND status = ?
        ORDER BY baseline_id`,
		string(mealType), region, string(energyType), StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query baselines: %w", err)
	}
	defer rows.Close()

	var out []carbon.Baseline
	for rows.Next() {
		var b carbon.Baseline
		if err := scanDoc(rows, &b); err != nil {
			return nil, fmt.Errorf("failed to read baseline: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// PutBaseline inserts or replaces a baseline. An empty status is stored as active.
func (s *Store) PutBaseline(ctx context.Context, b carbon.Baseline) error {
	if b.BaselineID == "" {
		return fmt.Errorf("%w: baselineId is required", carbon.ErrInvalidRequest)
	}
	b.Status = orActive(b.Status)
	doc, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode baseline %s: %w", b.BaselineID, err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO baselines (baseline_id, meal_type, region, energy_type, status, doc)
        VALUES (?, ?, ?, ?, ?, ?)`,
		b.BaselineID, string(b.Category.MealType), b.Category.Region, string(b.Category.EnergyType),
		b.Status, string(doc))
	if err != nil {
		return fmt.Errorf("failed to save baseline %s: %w", b.BaselineID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDoc(row scanner, v any) error {
	var doc string
	if err := row.Scan(&doc); err != nil {
		return err
	}
	return json.Unmarshal([]byte(doc), v)
}
