package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/forgeplan/internal/ir"
)

// CompileCatalog parses a CUE value holding item, factory and recipe
// structs into a CatalogSpec. Uses the CUE Go API directly.
//
// Entries keep their CUE declaration order, which becomes the catalog's
// registration order:
//
//	item: coal: categories: ["FUEL"]
//	recipe: smelt_steel: {
//		cost: 5
//		inputs: [{id: "iron_ingot"}, {id: "coal"}]
//		outputs: [{id: "steel_ingot"}]
//	}
func CompileCatalog(name string, v cue.Value) (*ir.CatalogSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.CatalogSpec{Name: name}

	err := eachField(v, "item", func(entry cue.Value) error {
		item, err := CompileItem(entry)
		if err == nil {
			spec.Items = append(spec.Items, item)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	err = eachField(v, "factory", func(entry cue.Value) error {
		f, err := CompileFactory(entry)
		if err == nil {
			spec.Factories = append(spec.Factories, f)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	err = eachField(v, "recipe", func(entry cue.Value) error {
		r, err := CompileRecipe(entry)
		if err == nil {
			spec.Recipes = append(spec.Recipes, r)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(spec.Items) == 0 && len(spec.Recipes) == 0 {
		return nil, &CompileError{
			Field:   "catalog",
			Message: "catalog declares no items and no recipes",
			Pos:     v.Pos(),
		}
	}
	return spec, nil
}

// eachField calls fn for every field of the struct at path, if present.
func eachField(v cue.Value, path string, fn func(cue.Value) error) error {
	section := v.LookupPath(cue.ParsePath(path))
	if !section.Exists() {
		return nil
	}
	iter, err := section.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

// label returns the last path selector of v, which is the entry id.
func label(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	return sels[len(sels)-1].Unquoted()
}

// CompileItem parses one item entry. categories is optional.
func CompileItem(v cue.Value) (ir.Item, error) {
	item := ir.Item{ID: label(v), Categories: []string{}}
	cats, err := stringList(v, "categories")
	if err != nil {
		return ir.Item{}, err
	}
	if cats != nil {
		item.Categories = cats
	}
	return item, nil
}

// CompileFactory parses one factory entry. groups and level are optional.
func CompileFactory(v cue.Value) (ir.Factory, error) {
	f := ir.Factory{ID: label(v)}
	groups, err := stringList(v, "groups")
	if err != nil {
		return ir.Factory{}, err
	}
	f.Groups = groups

	level, ok, err := optionalInt(v, "level")
	if err != nil {
		return ir.Factory{}, err
	}
	if ok {
		f.Level = int(level)
	}
	return f, nil
}

// CompileRecipe parses one recipe entry. cost and outputs are required.
func CompileRecipe(v cue.Value) (ir.Recipe, error) {
	r := ir.Recipe{ID: label(v)}

	cost, ok, err := optionalInt(v, "cost")
	if err != nil {
		return ir.Recipe{}, err
	}
	if !ok {
		return ir.Recipe{}, &CompileError{Field: "cost", Message: "cost is required", Pos: v.Pos()}
	}
	r.Cost = cost

	if ordered := v.LookupPath(cue.ParsePath("ordered")); ordered.Exists() {
		b, err := ordered.Bool()
		if err != nil {
			return ir.Recipe{}, &CompileError{Field: "ordered", Message: "ordered must be a bool", Pos: ordered.Pos()}
		}
		r.Ordered = b
	}

	if r.Inputs, err = matcherList(v, "inputs"); err != nil {
		return ir.Recipe{}, err
	}
	if r.Outputs, err = matcherList(v, "outputs"); err != nil {
		return ir.Recipe{}, err
	}
	if len(r.Outputs) == 0 {
		return ir.Recipe{}, &CompileError{Field: "outputs", Message: "at least one output is required", Pos: v.Pos()}
	}

	if sel := v.LookupPath(cue.ParsePath("selector")); sel.Exists() {
		if r.Selector.FactoryIDs, err = stringList(sel, "factories"); err != nil {
			return ir.Recipe{}, err
		}
		if r.Selector.FactoryGroups, err = stringList(sel, "groups"); err != nil {
			return ir.Recipe{}, err
		}
		level, ok, err := optionalInt(sel, "min_level")
		if err != nil {
			return ir.Recipe{}, err
		}
		if ok {
			r.Selector.MinLevel = int(level)
		}
	}
	return r, nil
}

// CompileMatcher parses a matcher literal: {id: "x"}, {any_of: [...]},
// {all_of: [...]} or {any: true}.
func CompileMatcher(v cue.Value) (ir.Matcher, error) {
	var lit ir.MatcherLiteral
	if err := v.Decode(&lit); err != nil {
		return ir.Matcher{}, formatCUEError(err)
	}
	m, err := lit.Matcher()
	if err != nil {
		return ir.Matcher{}, &CompileError{Field: "matcher", Message: err.Error(), Pos: v.Pos()}
	}
	return m, nil
}

func matcherList(v cue.Value, field string) ([]ir.Matcher, error) {
	list := v.LookupPath(cue.ParsePath(field))
	if !list.Exists() {
		return []ir.Matcher{}, nil
	}
	iter, err := list.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: field + " must be a list of matchers", Pos: list.Pos()}
	}
	out := []ir.Matcher{}
	for iter.Next() {
		m, err := CompileMatcher(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	list := v.LookupPath(cue.ParsePath(field))
	if !list.Exists() {
		return nil, nil
	}
	iter, err := list.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: field + " must be a list of strings", Pos: list.Pos()}
	}
	out := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: field + " must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

// optionalInt reads an integer field. Floats are rejected: costs and levels
// are exact integers.
func optionalInt(v cue.Value, field string) (int64, bool, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return 0, false, nil
	}
	switch f.IncompleteKind() {
	case cue.IntKind:
	case cue.FloatKind, cue.NumberKind:
		return 0, false, &CompileError{Field: field, Message: "float values are forbidden - use int instead", Pos: f.Pos()}
	default:
		return 0, false, &CompileError{Field: field, Message: fmt.Sprintf("%s must be an int, got %v", field, f.IncompleteKind()), Pos: f.Pos()}
	}
	n, err := f.Int64()
	if err != nil {
		return 0, false, formatCUEError(err)
	}
	return n, true, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
