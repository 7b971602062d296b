// Package store is the SQLite adapter behind the engine's collaborators.
//
// Rows are JSON documents keyed by their natural ID, with the columns the
// engine filters on pulled out beside them. A Store satisfies factor.Catalog,
// factor.RegionRegistry, coefficients.Source, baseline.Source,
// engine.RestaurantStore, recalc.MenuItemStore and recalc.RecipeStore.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// StatusActive marks rows the engine may read.
const StatusActive = "active"

// MemoryPath opens a private in-memory database.
const MemoryPath = "file::memory:"

// Store is a SQLite document store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating when needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to an in-memory database is a separate database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
    CREATE TABLE IF NOT EXISTS emission_factors (
        factor_id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        category TEXT NOT NULL,
        sub_category TEXT NOT NULL DEFAULT '',
        region TEXT NOT NULL,
        year INTEGER NOT NULL DEFAULT 0,
        status TEXT NOT NULL,
        doc TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS factor_regions (
        code TEXT PRIMARY KEY,
        status TEXT NOT NULL,
        doc TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS config_entries (
        config_type TEXT NOT NULL,
        key TEXT NOT NULL,
        value REAL NOT NULL,
        status TEXT NOT NULL,
        PRIMARY KEY (config_type, key)
    );

    CREATE TABLE IF NOT EXISTS baselines (
        baseline_id TEXT PRIMARY KEY,
        meal_type TEXT NOT NULL,
        region TEXT NOT NULL,
        energy_type TEXT NOT NULL,
        status TEXT NOT NULL,
        doc TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS restaurants (
        id TEXT PRIMARY KEY,
        doc TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS menu_items (
        id TEXT PRIMARY KEY,
        restaurant_id TEXT NOT NULL,
        doc TEXT NOT NULL,
        updated_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS recipes (
        id TEXT PRIMARY KEY,
        doc TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_factors_lookup ON emission_factors(name, category, region);
    CREATE INDEX IF NOT EXISTS idx_baselines_category ON baselines(meal_type, region, energy_type);
    CREATE INDEX IF NOT EXISTS idx_menu_items_restaurant ON menu_items(restaurant_id);
    `

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func orActive(status string) string {
	if status == "" {
		return StatusActive
	}
	return status
}
