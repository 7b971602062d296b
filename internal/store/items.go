package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/VeganGarden/MyGarden-sub002/internal/carbon"
)

// recordFields are the top-level menu-item fields owned by SaveCalculation.
var recordFields = []string{
	"carbonFootprint",
	"baselineInfo",
	"factorMatchInfo",
	"calculationLevel",
	"carbonLevel",
	"needsOptimization",
	"warningMessage",
	"restaurantRegion",
	"fingerprint",
	"calculatedAt",
}

// GetRestaurant returns the restaurant with the given ID.
func (s *Store) GetRestaurant(ctx context.Context, id string) (*carbon.Restaurant, error) {
	row := s.db.QueryRowContext(ctx, `SELECT doc FROM restaurants WHERE id = ?`, id)
	var r carbon.Restaurant
	if err := scanDoc(row, &r); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("restaurant %s: %w", id, carbon.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load restaurant %s: %w", id, err)
	}
	if r.ID == "" {
		r.ID = id
	}
	return &r, nil
}

// PutRestaurant inserts or replaces a restaurant.
func (s *Store) PutRestaurant(ctx context.Context, r carbon.Restaurant) error {
	if r.ID == "" {
		return fmt.Errorf("%w: restaurant id is required", carbon.ErrInvalidRequest)
	}
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode restaurant %s: %w", r.ID, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO restaurants (id, doc) VALUES (?, ?)`, r.ID, string(doc)); err != nil {
		return fmt.Errorf("failed to save restaurant %s: %w", r.ID, err)
	}
	return nil
}

// GetRecipe returns the base recipe with the given ID.
func (s *Store) GetRecipe(ctx context.Context, id string) (*carbon.Recipe, error) {
	row := s.db.QueryRowContext(ctx, `SELECT doc FROM recipes WHERE id = ?`, id)
	var r carbon.Recipe
	if err := scanDoc(row, &r); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("recipe %s: %w", id, carbon.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load recipe %s: %w", id, err)
	}
	if r.ID == "" {
		r.ID = id
	}
	return &r, nil
}

// PutRecipe inserts or replaces a base recipe.
func (s *Store) PutRecipe(ctx context.Context, r carbon.Recipe) error {
	if r.ID == "" {
		return fmt.Errorf("%w: recipe id is required", carbon.ErrInvalidRequest)
	}
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode recipe %s: %w", r.ID, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO recipes (id, doc) VALUES (?, ?)`, r.ID, string(doc)); err != nil {
		return fmt.Errorf("failed to save recipe %s: %w", r.ID, err)
	}
	return nil
}

// PutMenuItem inserts or replaces a menu item.
func (s *Store) PutMenuItem(ctx context.Context, item carbon.MenuItem) error {
	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode menu item %s: %w", item.ID, err)
	}
	return s.PutMenuItemDocument(ctx, doc)
}

// PutMenuItemDocument stores a raw menu-item document as is. The document
// must carry "id" and "restaurantId".
func (s *Store) PutMenuItemDocument(ctx context.Context, doc []byte) error {
	if !gjson.ValidBytes(doc) {
		return fmt.Errorf("%w: menu item document is not valid JSON", carbon.ErrInvalidRequest)
	}
	parsed := gjson.ParseBytes(doc)
	id := parsed.Get("id").String()
	restaurantID := parsed.Get("restaurantId").String()
	if id == "" || restaurantID == "" {
		return fmt.Errorf("%w: menu item id and restaurantId are required", carbon.ErrInvalidRequest)
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO menu_items (id, restaurant_id, doc, updated_at)
        VALUES (?, ?, ?, ?)`,
		id, restaurantID, string(doc), s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save menu item %s: %w", id, err)
	}
	return nil
}

// MenuItemDocument returns the raw stored document of a menu item.
func (s *Store) MenuItemDocument(ctx context.Context, id string) (string, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM menu_items WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("menu item %s: %w", id, carbon.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load menu item %s: %w", id, err)
	}
	return doc, nil
}

// ListMenuItems returns the restaurant's menu items, or only those in ids when
// ids is non-empty, ordered by ID. An item whose document cannot be read is
// still returned, with LoadError set.
func (s *Store) ListMenuItems(ctx context.Context, restaurantID string, ids []string) ([]carbon.MenuItem, error) {
	query := `SELECT id, doc FROM menu_items WHERE restaurant_id = ?`
	args := []any{restaurantID}
	if len(ids) > 0 {
		query += " AND id IN (?" + strings.Repeat(", ?", len(ids)-1) + ")"
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var items []carbon.MenuItem
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		item, err := decodeMenuItem(id, restaurantID, doc)
		if err != nil {
			item.LoadError = fmt.Errorf("failed to read menu item %s: %w", id, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// decodeMenuItem reads a menu-item document field by field. Older documents
// store numbers as strings and keep the fingerprint inside carbonFootprint.
// On error the returned item still carries its ID and restaurant.
func decodeMenuItem(id, restaurantID, doc string) (carbon.MenuItem, error) {
	item := carbon.MenuItem{ID: id, RestaurantID: restaurantID}
	if !gjson.Valid(doc) {
		return item, errors.New("document is not valid JSON")
	}
	parsed := gjson.Parse(doc)
	item.Name = parsed.Get("name").String()
	item.RestaurantRegion = parsed.Get("restaurantRegion").String()
	item.CalculationLevel = carbon.Level(parsed.Get("calculationLevel").String())
	item.MealType = carbon.MealType(parsed.Get("mealType").String())
	item.EnergyType = carbon.EnergyType(parsed.Get("energyType").String())
	item.CookingMethod = parsed.Get("cookingMethod").String()
	item.BaseRecipeID = parsed.Get("baseRecipeId").String()
	item.Fingerprint = parsed.Get("fingerprint").String()
	if item.Fingerprint == "" {
		item.Fingerprint = parsed.Get("carbonFootprint.fingerprint").String()
	}
	if t := parsed.Get("cookingTime"); present(t) && t.Float() > 0 {
		minutes := t.Float()
		item.CookingTime = &minutes
	}

	ingredients, err := lines(parsed, "ingredients", ingredientLine)
	if err != nil {
		return item, err
	}
	packaging, err := lines(parsed, "packaging", packagingLine)
	if err != nil {
		return item, err
	}
	item.Ingredients, item.Packaging = ingredients, packaging
	return item, nil
}

// lines decodes the array at field with decode. An absent or null field is empty.
func lines[T any](doc gjson.Result, field string, decode func(gjson.Result) T) ([]T, error) {
	raw := doc.Get(field)
	if !present(raw) {
		return nil, nil
	}
	if !raw.IsArray() {
		return nil, fmt.Errorf("%s: want a list, got %s", field, raw.Type)
	}
	var out []T
	for i, elem := range raw.Array() {
		if !elem.IsObject() {
			return nil, fmt.Errorf("%s[%d]: want an object, got %s", field, i, elem.Type)
		}
		out = append(out, decode(elem))
	}
	return out, nil
}

func ingredientLine(r gjson.Result) carbon.IngredientLine {
	line := carbon.IngredientLine{
		Name:     r.Get("name").String(),
		Quantity: r.Get("quantity").Float(),
		Unit:     r.Get("unit").String(),
		Category: r.Get("category").String(),
	}
	if w := r.Get("wasteRate"); present(w) {
		rate := w.Float()
		line.WasteRate = &rate
	}
	if t := r.Get("traceability"); t.IsObject() {
		if m, ok := t.Value().(map[string]any); ok {
			line.Traceability = m
		}
	}
	return line
}

func packagingLine(r gjson.Result) carbon.PackagingLine {
	line := carbon.PackagingLine{WeightKg: r.Get("weight").Float()}
	for _, key := range []string{"material", "type", "name"} {
		if v := r.Get(key).String(); v != "" {
			line.Material = v
			break
		}
	}
	return line
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

// SaveCalculation writes rec into the menu item's document. Fields whose
// stored shape differs from the new one (a scalar carbonFootprint from older
// documents, or null) are removed before being set, and fields rec leaves
// empty are removed. Other document fields are untouched.
func (s *Store) SaveCalculation(ctx context.Context, menuItemID string, rec carbon.CalculationRecord) error {
	encoded, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode calculation: %w", err)
	}
	next := gjson.ParseBytes(encoded)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var doc string
	err = tx.QueryRowContext(ctx, `SELECT doc FROM menu_items WHERE id = ?`, menuItemID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("menu item %s: %w", menuItemID, carbon.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load menu item %s: %w", menuItemID, err)
	}
	current := gjson.Parse(doc)

	var removes []any
	var sets []any
	for _, field := range recordFields {
		path := "$." + field
		was, now := current.Get(field), next.Get(field)
		switch {
		case !now.Exists():
			if was.Exists() {
				removes = append(removes, path)
			}
		case was.Exists() && !sameShape(was, now):
			removes = append(removes, path)
			sets = append(sets, path, now.Raw)
		default:
			sets = append(sets, path, now.Raw)
		}
	}

	if len(removes) > 0 {
		query := `UPDATE menu_items SET doc = json_remove(doc` + strings.Repeat(", ?", len(removes)) + `) WHERE id = ?`
		if _, err := tx.ExecContext(ctx, query, append(removes, menuItemID)...); err != nil {
			return fmt.Errorf("failed to clear calculation fields: %w", err)
		}
	}
	if len(sets) > 0 {
		query := `UPDATE menu_items SET doc = json_set(doc` + strings.Repeat(", ?, json(?)", len(sets)/2) +
			`), updated_at = ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, query, append(sets, s.now().UTC(), menuItemID)...); err != nil {
			return fmt.Errorf("failed to write calculation fields: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit calculation: %w", err)
	}
	return nil
}

func sameShape(a, b gjson.Result) bool {
	switch {
	case a.IsObject() || b.IsObject():
		return a.IsObject() && b.IsObject()
	case a.IsArray() || b.IsArray():
		return a.IsArray() && b.IsArray()
	default:
		return a.Type != gjson.Null && b.Type != gjson.Null
	}
}
