package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/forgeplan/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Entry errors (E101-E109)
	ErrBlankID         = "E101" // item, factory or recipe id is blank
	ErrNegativeCost    = "E102" // recipe cost below zero
	ErrRecipeNoOutputs = "E103" // recipe must have outputs
	ErrUnsetMatcher    = "E104" // input or output matcher never set
	ErrDuplicateID     = "E105" // duplicate id within one entry kind
	ErrNegativeLevel   = "E107" // factory level or selector min_level below zero
	ErrBlankCategory   = "E108" // item category is blank

	// Reference errors (E117-E119)
	ErrUnknownCategory = "E117" // matcher names a category no item carries
	ErrUnknownItem     = "E118" // identity matcher names an undeclared item
	ErrUnknownFactory  = "E119" // selector names an undeclared factory
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError represents a schema validation error.
// Warnings do not fail compilation.
type ValidationError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Severity == SeverityWarning {
		return fmt.Sprintf("[%s] warning: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// IsWarning reports whether e is warning-level.
func (e ValidationError) IsWarning() bool { return e.Severity == SeverityWarning }

// HasErrors reports whether errs contains at least one error-level entry.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if !e.IsWarning() {
			return true
		}
	}
	return false
}

// Validate checks a compiled catalog against schema rules.
// Returns all problems found (does not fail-fast).
func Validate(spec *ir.CatalogSpec) []ValidationError {
	v := &validator{
		items:      make(map[string]bool, len(spec.Items)),
		categories: make(map[string]bool),
		factories:  make(map[string]bool, len(spec.Factories)),
	}

	for i, item := range spec.Items {
		v.item(i, item)
	}
	for i, f := range spec.Factories {
		v.factory(i, f)
	}
	recipes := make(map[string]bool, len(spec.Recipes))
	for i, r := range spec.Recipes {
		field := fmt.Sprintf("recipe[%d]", i)
		if v.checkID(field, r.ID, recipes) {
			field = "recipe." + r.ID
		}
		v.recipe(field, &spec.Recipes[i])
	}
	return v.errs
}

type validator struct {
	items      map[string]bool
	categories map[string]bool
	factories  map[string]bool
	errs       []ValidationError
}

func (v *validator) add(code, field, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field: field, Message: fmt.Sprintf(format, args...), Code: code, Severity: SeverityError,
	})
}

func (v *validator) warn(code, field, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field: field, Message: fmt.Sprintf(format, args...), Code: code, Severity: SeverityWarning,
	})
}

// checkID reports E101/E105 and records id in seen. Returns false for a blank id.
func (v *validator) checkID(field, id string, seen map[string]bool) bool {
	if strings.TrimSpace(id) == "" {
		v.add(ErrBlankID, field, "id is required and must be non-empty")
		return false
	}
	if seen[id] {
		v.add(ErrDuplicateID, field, "duplicate id %q", id)
	}
	seen[id] = true
	return true
}

func (v *validator) item(i int, item ir.Item) {
	field := fmt.Sprintf("item[%d]", i)
	if v.checkID(field, item.ID, v.items) {
		field = "item." + item.ID
	}
	for j, c := range item.Categories {
		if strings.TrimSpace(c) == "" {
			v.add(ErrBlankCategory, fmt.Sprintf("%s.categories[%d]", field, j), "category must be non-empty")
			continue
		}
		v.categories[c] = true
	}
}

func (v *validator) factory(i int, f ir.Factory) {
	field := fmt.Sprintf("factory[%d]", i)
	if v.checkID(field, f.ID, v.factories) {
		field = "factory." + f.ID
	}
	if f.Level < 0 {
		v.add(ErrNegativeLevel, field+".level", "level %d is negative", f.Level)
	}
}

func (v *validator) recipe(field string, r *ir.Recipe) {
	if r.Cost < 0 {
		v.add(ErrNegativeCost, field+".cost", "cost %d is negative", r.Cost)
	}
	if len(r.Outputs) == 0 {
		v.add(ErrRecipeNoOutputs, field+".outputs", "recipe must declare at least one output")
	}
	for j, m := range r.Inputs {
		v.matcher(fmt.Sprintf("%s.inputs[%d]", field, j), m)
	}
	for j, m := range r.Outputs {
		v.matcher(fmt.Sprintf("%s.outputs[%d]", field, j), m)
	}
	if r.Selector.MinLevel < 0 {
		v.add(ErrNegativeLevel, field+".selector.min_level", "min_level %d is negative", r.Selector.MinLevel)
	}
	for _, id := range r.Selector.FactoryIDs {
		if !v.factories[id] {
			v.add(ErrUnknownFactory, field+".selector.factories", "unknown factory %q", id)
		}
	}
}

func (v *validator) matcher(field string, m ir.Matcher) {
	switch m.Kind() {
	case ir.KindUnset:
		v.add(ErrUnsetMatcher, field, "matcher is unset")
	case ir.KindIdentity:
		if !v.items[m.ItemID()] {
			v.warn(ErrUnknownItem, field, "item %q is not declared", m.ItemID())
		}
	case ir.KindAnyOfCategories, ir.KindAllOfCategories:
		for _, c := range m.Categories() {
			if !v.categories[c] {
				v.warn(ErrUnknownCategory, field, "no item carries category %q", c)
			}
		}
	}
}
