package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/forgeplan/internal/ir"
)

var (
	// ErrDuplicate is wrapped when an id is registered twice.
	ErrDuplicate = errors.New("duplicate registration")

	// ErrInvalidEntry is wrapped when an entry fails structural checks.
	ErrInvalidEntry = errors.New("invalid catalog entry")

	// ErrUnknown is wrapped when a lookup names an unregistered id.
	ErrUnknown = errors.New("unknown catalog entry")
)

// Builder registers catalog entries explicitly and produces an immutable
// Catalog. Registration errors are collected and reported together by Build,
// so calls can be chained:
//
//	cat, err := catalog.NewBuilder("smelting").
//		Item("coal", "FUEL").
//		Item("iron_ingot", "METAL").
//		Recipe(smelt).
//		Build()
type Builder struct {
	spec     ir.CatalogSpec
	items    map[string]bool
	factory  map[string]bool
	recipes  map[string]bool
	errs     []error
	consumed bool
}

// NewBuilder returns an empty builder for a catalog called name.
func NewBuilder(name string) *Builder {
	return &Builder{
		spec:    ir.CatalogSpec{Name: name},
		items:   make(map[string]bool),
		factory: make(map[string]bool),
		recipes: make(map[string]bool),
	}
}

// Item registers an item with its categories.
func (b *Builder) Item(id string, categories ...string) *Builder {
	id = normalizeID(id)
	if id == "" {
		b.errs = append(b.errs, fmt.Errorf("%w: item id cannot be blank", ErrInvalidEntry))
		return b
	}
	if b.items[id] {
		b.errs = append(b.errs, fmt.Errorf("%w: item %q", ErrDuplicate, id))
		return b
	}
	cats := make([]string, 0, len(categories))
	for _, c := range categories {
		c = normalizeID(c)
		if c == "" {
			b.errs = append(b.errs, fmt.Errorf("%w: item %q has a blank category", ErrInvalidEntry, id))
			return b
		}
		if !slices.Contains(cats, c) {
			cats = append(cats, c)
		}
	}
	b.items[id] = true
	b.spec.Items = append(b.spec.Items, ir.Item{ID: id, Categories: cats})
	return b
}

// Factory registers a factory.
func (b *Builder) Factory(id string, level int, groups ...string) *Builder {
	id = normalizeID(id)
	switch {
	case id == "":
		b.errs = append(b.errs, fmt.Errorf("%w: factory id cannot be blank", ErrInvalidEntry))
	case b.factory[id]:
		b.errs = append(b.errs, fmt.Errorf("%w: factory %q", ErrDuplicate, id))
	case level < 0:
		b.errs = append(b.errs, fmt.Errorf("%w: factory %q has negative level %d", ErrInvalidEntry, id, level))
	default:
		b.factory[id] = true
		b.spec.Factories = append(b.spec.Factories, ir.Factory{ID: id, Groups: slices.Clone(groups), Level: level})
	}
	return b
}

// Recipe registers a recipe. The recipe's slices are copied.
func (b *Builder) Recipe(r ir.Recipe) *Builder {
	r.ID = normalizeID(r.ID)
	if err := r.Validate(); err != nil {
		b.errs = append(b.errs, fmt.Errorf("%w: %w", ErrInvalidEntry, err))
		return b
	}
	if b.recipes[r.ID] {
		b.errs = append(b.errs, fmt.Errorf("%w: recipe %q", ErrDuplicate, r.ID))
		return b
	}
	r.Inputs = slices.Clone(r.Inputs)
	r.Outputs = slices.Clone(r.Outputs)
	r.Selector.FactoryIDs = slices.Clone(r.Selector.FactoryIDs)
	r.Selector.FactoryGroups = slices.Clone(r.Selector.FactoryGroups)
	b.recipes[r.ID] = true
	b.spec.Recipes = append(b.spec.Recipes, r)
	return b
}

// Build validates cross references and returns the catalog. A builder can
// only be built once.
func (b *Builder) Build() (*Catalog, error) {
	if b.consumed {
		return nil, errors.New("catalog builder already used")
	}
	b.consumed = true

	errs := slices.Clone(b.errs)
	for _, r := range b.spec.Recipes {
		for _, id := range r.Selector.FactoryIDs {
			if !b.factory[id] {
				errs = append(errs, fmt.Errorf("%w: recipe %q selects factory %q", ErrUnknown, r.ID, id))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("build catalog %q: %w", b.spec.Name, err)
	}
	return newCatalog(b.spec), nil
}

// MustBuild is like Build but panics on error.
// Use only in tests or for catalogs assembled from constants.
func (b *Builder) MustBuild() *Catalog {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

// FromSpec builds a catalog from compiled content, applying the same checks
// as the Builder.
func FromSpec(spec ir.CatalogSpec) (*Catalog, error) {
	b := NewBuilder(spec.Name)
	for _, it := range spec.Items {
		b.Item(it.ID, it.Categories...)
	}
	for _, f := range spec.Factories {
		b.Factory(f.ID, f.Level, f.Groups...)
	}
	for _, r := range spec.Recipes {
		b.Recipe(r)
	}
	return b.Build()
}

func normalizeID(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
