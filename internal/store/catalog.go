package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/forgeplan/internal/catalog"
	"github.com/roach88/forgeplan/internal/ir"
)

// CatalogInfo summarises a saved catalog.
type CatalogInfo struct {
	Name      string `json:"name"`
	Digest    string `json:"digest"`
	Items     int    `json:"items"`
	Factories int    `json:"factories"`
	Recipes   int    `json:"recipes"`
}

// SaveCatalog stores cat under name, replacing any catalog of the same name.
// The write is transactional: a failure leaves the previous version intact.
func (s *Store) SaveCatalog(ctx context.Context, name string, cat *catalog.Catalog) error {
	spec := cat.Spec()
	spec.Name = name

	digest, err := ir.CatalogDigest(spec)
	if err != nil {
		return fmt.Errorf("save catalog %q: %w", name, err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		// ON DELETE CASCADE clears items, factories, recipes and matchers
		if _, err := tx.ExecContext(ctx, `DELETE FROM catalogs WHERE name = ?`, name); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO catalogs (name, digest, ir_version, engine_version)
			VALUES (?, ?, ?, ?)
		`, name, digest, ir.IRVersion, ir.EngineVersion); err != nil {
			return err
		}
		if err := insertItems(ctx, tx, name, spec.Items); err != nil {
			return err
		}
		if err := insertFactories(ctx, tx, name, spec.Factories); err != nil {
			return err
		}
		return insertRecipes(ctx, tx, name, spec.Recipes)
	})
	if err != nil {
		return fmt.Errorf("save catalog %q: %w", name, err)
	}
	return nil
}

func insertItems(ctx context.Context, tx *sql.Tx, name string, items []ir.Item) error {
	for i, it := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO items (catalog, ord, id) VALUES (?, ?, ?)
		`, name, i, it.ID); err != nil {
			return fmt.Errorf("insert item %q: %w", it.ID, err)
		}
		for j, c := range it.Categories {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO item_categories (catalog, item_id, ord, category) VALUES (?, ?, ?, ?)
			`, name, it.ID, j, c); err != nil {
				return fmt.Errorf("insert category %q of item %q: %w", c, it.ID, err)
			}
		}
	}
	return nil
}

func insertFactories(ctx context.Context, tx *sql.Tx, name string, factories []ir.Factory) error {
	for i, f := range factories {
		groups, err := marshalStrings(f.Groups)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO factories (catalog, ord, id, level, groups) VALUES (?, ?, ?, ?, ?)
		`, name, i, f.ID, f.Level, groups); err != nil {
			return fmt.Errorf("insert factory %q: %w", f.ID, err)
		}
	}
	return nil
}

func insertRecipes(ctx context.Context, tx *sql.Tx, name string, recipes []ir.Recipe) error {
	for i, r := range recipes {
		selector, err := marshalSelector(r.Selector)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recipes (catalog, ord, id, cost, ordered, selector) VALUES (?, ?, ?, ?, ?, ?)
		`, name, i, r.ID, r.Cost, boolToInt(r.Ordered), selector); err != nil {
			return fmt.Errorf("insert recipe %q: %w", r.ID, err)
		}
		if err := insertMatchers(ctx, tx, name, r.ID, "input", r.Inputs); err != nil {
			return err
		}
		if err := insertMatchers(ctx, tx, name, r.ID, "output", r.Outputs); err != nil {
			return err
		}
	}
	return nil
}

func insertMatchers(ctx context.Context, tx *sql.Tx, name, recipeID, role string, ms []ir.Matcher) error {
	for i, m := range ms {
		data, err := marshalMatcher(m)
		if err != nil {
			return fmt.Errorf("recipe %q %s[%d]: %w", recipeID, role, i, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_matchers (catalog, recipe_id, role, ord, key, matcher) VALUES (?, ?, ?, ?, ?, ?)
		`, name, recipeID, role, i, m.Key(), data); err != nil {
			return fmt.Errorf("insert recipe %q %s[%d]: %w", recipeID, role, i, err)
		}
	}
	return nil
}

// LoadCatalog reads the catalog saved under name and rebuilds it with the
// catalog builder, so every registration check runs again.
// Returns an error wrapping sql.ErrNoRows if no such catalog exists.
func (s *Store) LoadCatalog(ctx context.Context, name string) (*catalog.Catalog, error) {
	var exists string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM catalogs WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("load catalog %q: %w", name, err)
	}

	spec := ir.CatalogSpec{Name: name}
	if spec.Items, err = s.readItems(ctx, name); err != nil {
		return nil, fmt.Errorf("load catalog %q: %w", name, err)
	}
	if spec.Factories, err = s.readFactories(ctx, name); err != nil {
		return nil, fmt.Errorf("load catalog %q: %w", name, err)
	}
	if spec.Recipes, err = s.readRecipes(ctx, name); err != nil {
		return nil, fmt.Errorf("load catalog %q: %w", name, err)
	}

	cat, err := catalog.FromSpec(spec)
	if err != nil {
		return nil, fmt.Errorf("load catalog %q: %w", name, err)
	}
	return cat, nil
}

func (s *Store) readItems(ctx context.Context, name string) ([]ir.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, c.category
		FROM items i
		LEFT JOIN item_categories c ON c.catalog = i.catalog AND c.item_id = i.id
		WHERE i.catalog = ?
		ORDER BY i.ord ASC, c.ord ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []ir.Item{}
	for rows.Next() {
		var id string
		var category sql.NullString
		if err := rows.Scan(&id, &category); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if len(items) == 0 || items[len(items)-1].ID != id {
			items = append(items, ir.Item{ID: id, Categories: []string{}})
		}
		if category.Valid {
			last := &items[len(items)-1]
			last.Categories = append(last.Categories, category.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func (s *Store) readFactories(ctx context.Context, name string) ([]ir.Factory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, level, groups FROM factories WHERE catalog = ? ORDER BY ord ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query factories: %w", err)
	}
	defer rows.Close()

	factories := []ir.Factory{}
	for rows.Next() {
		var f ir.Factory
		var groups string
		if err := rows.Scan(&f.ID, &f.Level, &groups); err != nil {
			return nil, fmt.Errorf("scan factory: %w", err)
		}
		if f.Groups, err = unmarshalStrings(groups); err != nil {
			return nil, err
		}
		factories = append(factories, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate factories: %w", err)
	}
	return factories, nil
}

func (s *Store) readRecipes(ctx context.Context, name string) ([]ir.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cost, ordered, selector FROM recipes WHERE catalog = ? ORDER BY ord ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}

	recipes := []ir.Recipe{}
	index := make(map[string]int)
	for rows.Next() {
		var r ir.Recipe
		var ordered int
		var selector string
		if err := rows.Scan(&r.ID, &r.Cost, &ordered, &selector); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		r.Ordered = ordered != 0
		if r.Selector, err = unmarshalSelector(selector); err != nil {
			rows.Close()
			return nil, err
		}
		r.Inputs = []ir.Matcher{}
		r.Outputs = []ir.Matcher{}
		index[r.ID] = len(recipes)
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}
	rows.Close()

	mrows, err := s.db.QueryContext(ctx, `
		SELECT recipe_id, role, matcher FROM recipe_matchers
		WHERE catalog = ?
		ORDER BY recipe_id COLLATE BINARY ASC, role ASC, ord ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query recipe matchers: %w", err)
	}
	defer mrows.Close()

	for mrows.Next() {
		var recipeID, role, data string
		if err := mrows.Scan(&recipeID, &role, &data); err != nil {
			return nil, fmt.Errorf("scan recipe matcher: %w", err)
		}
		m, err := unmarshalMatcher(data)
		if err != nil {
			return nil, fmt.Errorf("recipe %q: %w", recipeID, err)
		}
		i, ok := index[recipeID]
		if !ok {
			return nil, fmt.Errorf("matcher references unknown recipe %q", recipeID)
		}
		if role == "input" {
			recipes[i].Inputs = append(recipes[i].Inputs, m)
		} else {
			recipes[i].Outputs = append(recipes[i].Outputs, m)
		}
	}
	if err := mrows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipe matchers: %w", err)
	}
	return recipes, nil
}

// ListCatalogs returns every saved catalog ordered by name.
func (s *Store) ListCatalogs(ctx context.Context) ([]CatalogInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, c.digest,
			(SELECT COUNT(*) FROM items i WHERE i.catalog = c.name),
			(SELECT COUNT(*) FROM factories f WHERE f.catalog = c.name),
			(SELECT COUNT(*) FROM recipes r WHERE r.catalog = c.name)
		FROM catalogs c
		ORDER BY c.name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	defer rows.Close()

	infos := []CatalogInfo{}
	for rows.Next() {
		var info CatalogInfo
		if err := rows.Scan(&info.Name, &info.Digest, &info.Items, &info.Factories, &info.Recipes); err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalogs: %w", err)
	}
	return infos, nil
}
