package catalog

import (
	"fmt"
	"slices"

	"github.com/roach88/forgeplan/internal/ir"
)

// Catalog is an immutable, indexed set of items, factories and recipes.
type Catalog struct {
	name string

	items      []ir.Item
	itemIndex  map[string]int
	byCategory map[string][]string

	factories    []ir.Factory
	factoryIndex map[string]int

	recipes     []*ir.Recipe
	recipeIndex map[string]int
	producers   map[string][]int // output key -> recipe positions
	wildcard    []int            // recipes with an Any output
}

func newCatalog(spec ir.CatalogSpec) *Catalog {
	c := &Catalog{
		name:         spec.Name,
		items:        spec.Items,
		itemIndex:    make(map[string]int, len(spec.Items)),
		byCategory:   make(map[string][]string),
		factories:    spec.Factories,
		factoryIndex: make(map[string]int, len(spec.Factories)),
		recipes:      make([]*ir.Recipe, len(spec.Recipes)),
		recipeIndex:  make(map[string]int, len(spec.Recipes)),
		producers:    make(map[string][]int),
	}
	for i, it := range spec.Items {
		c.itemIndex[it.ID] = i
		for _, cat := range it.Categories {
			c.byCategory[cat] = append(c.byCategory[cat], it.ID)
		}
	}
	for i, f := range spec.Factories {
		c.factoryIndex[f.ID] = i
	}
	for i := range spec.Recipes {
		r := &spec.Recipes[i]
		c.recipes[i] = r
		c.recipeIndex[r.ID] = i
		indexed := make(map[string]bool, len(r.Outputs))
		for _, out := range r.Outputs {
			if out.IsAny() {
				if len(c.wildcard) == 0 || c.wildcard[len(c.wildcard)-1] != i {
					c.wildcard = append(c.wildcard, i)
				}
				continue
			}
			key := out.Key()
			if indexed[key] {
				continue
			}
			indexed[key] = true
			c.producers[key] = append(c.producers[key], i)
		}
	}
	return c
}

// Name returns the catalog name.
func (c *Catalog) Name() string { return c.name }

// RecipesProducing returns every recipe with an output covering target, in
// registration order. Coverage follows ir.Matcher.Covers: wildcard outputs
// cover everything, otherwise keys must be equal.
func (c *Catalog) RecipesProducing(target ir.Matcher) []*ir.Recipe {
	if target.IsZero() {
		return nil
	}
	exact := c.producers[target.Key()]
	out := make([]*ir.Recipe, 0, len(exact)+len(c.wildcard))
	i, j := 0, 0
	for i < len(exact) || j < len(c.wildcard) {
		var next int
		switch {
		case j >= len(c.wildcard) || (i < len(exact) && exact[i] < c.wildcard[j]):
			next = exact[i]
			i++
		case i >= len(exact) || c.wildcard[j] < exact[i]:
			next = c.wildcard[j]
			j++
		default:
			next = exact[i]
			i++
			j++
		}
		out = append(out, c.recipes[next])
	}
	return out
}

// ItemIDs returns item ids in registration order.
func (c *Catalog) ItemIDs() []string {
	ids := make([]string, len(c.items))
	for i, it := range c.items {
		ids[i] = it.ID
	}
	return ids
}

// Item returns the item registered under id.
func (c *Catalog) Item(id string) (ir.Item, bool) {
	i, ok := c.itemIndex[id]
	if !ok {
		return ir.Item{}, false
	}
	return c.items[i], true
}

// ItemCategories returns a copy of the categories of item id.
func (c *Catalog) ItemCategories(id string) ([]string, bool) {
	it, ok := c.Item(id)
	if !ok {
		return nil, false
	}
	return slices.Clone(it.Categories), true
}

// ItemsWithCategory returns the ids of items carrying category, in
// registration order.
func (c *Catalog) ItemsWithCategory(category string) []string {
	return slices.Clone(c.byCategory[category])
}

// Categories returns every category key in use, sorted.
func (c *Catalog) Categories() []string {
	cats := make([]string, 0, len(c.byCategory))
	for cat := range c.byCategory {
		cats = append(cats, cat)
	}
	slices.Sort(cats)
	return cats
}

// Recipes returns all recipes in registration order.
// The returned recipes are shared and must not be modified.
func (c *Catalog) Recipes() []*ir.Recipe {
	return slices.Clone(c.recipes)
}

// Recipe returns the recipe registered under id.
func (c *Catalog) Recipe(id string) (*ir.Recipe, bool) {
	i, ok := c.recipeIndex[id]
	if !ok {
		return nil, false
	}
	return c.recipes[i], true
}

// Factories returns all factories in registration order.
func (c *Catalog) Factories() []ir.Factory {
	return slices.Clone(c.factories)
}

// Factory returns the factory registered under id.
func (c *Catalog) Factory(id string) (ir.Factory, bool) {
	i, ok := c.factoryIndex[id]
	if !ok {
		return ir.Factory{}, false
	}
	return c.factories[i], true
}

// ForFactories returns a catalog restricted to the recipes that can run in
// at least one of the named factories. Items and factories are kept.
func (c *Catalog) ForFactories(ids ...string) (*Catalog, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one factory id is required", ErrInvalidEntry)
	}
	factories := make([]ir.Factory, 0, len(ids))
	for _, id := range ids {
		f, ok := c.Factory(id)
		if !ok {
			return nil, fmt.Errorf("%w: factory %q", ErrUnknown, id)
		}
		factories = append(factories, f)
	}

	spec := c.Spec()
	spec.Recipes = slices.DeleteFunc(spec.Recipes, func(r ir.Recipe) bool {
		for _, f := range factories {
			if r.Selector.MatchesFactory(f) {
				return false
			}
		}
		return true
	})
	return newCatalog(spec), nil
}

// Spec returns a deep copy of the catalog content in registration order.
func (c *Catalog) Spec() ir.CatalogSpec {
	spec := ir.CatalogSpec{
		Name:      c.name,
		Items:     c.items,
		Factories: c.factories,
		Recipes:   make([]ir.Recipe, len(c.recipes)),
	}
	for i, r := range c.recipes {
		spec.Recipes[i] = *r
	}
	return spec.Clone()
}

// Stats summarises catalog size.
type Stats struct {
	Items      int `json:"items"`
	Categories int `json:"categories"`
	Factories  int `json:"factories"`
	Recipes    int `json:"recipes"`
}

// Stats returns the catalog size summary.
func (c *Catalog) Stats() Stats {
	return Stats{
		Items:      len(c.items),
		Categories: len(c.byCategory),
		Factories:  len(c.factories),
		Recipes:    len(c.recipes),
	}
}
