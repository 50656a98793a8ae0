package ir

import (
	"errors"
	"fmt"
	"strings"
)

// Item is a catalog entry: an identifier and the categories it carries.
type Item struct {
	ID         string   `json:"id" yaml:"id"`
	Categories []string `json:"categories" yaml:"categories"`
}

// HasCategory reports whether the item carries category.
func (i Item) HasCategory(category string) bool {
	for _, c := range i.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Recipe is a production rule: consume every input, produce the outputs.
//
// Recipes are read-only once registered in a catalog. Plans reference them by
// pointer so a plan tree never copies matcher slices.
type Recipe struct {
	ID       string         `json:"id"`
	Ordered  bool           `json:"ordered"`
	Inputs   []Matcher      `json:"inputs"`
	Outputs  []Matcher      `json:"outputs"`
	Cost     int64          `json:"cost"`
	Selector RecipeSelector `json:"selector"`
}

// Produces reports whether any output covers target.
func (r *Recipe) Produces(target Matcher) bool {
	for _, out := range r.Outputs {
		if out.Covers(target) {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants the solver relies on.
func (r *Recipe) Validate() error {
	var errs []error
	if strings.TrimSpace(r.ID) == "" {
		errs = append(errs, errors.New("recipe id cannot be blank"))
	}
	if r.Cost < 0 {
		errs = append(errs, fmt.Errorf("recipe %q: cost %d is negative", r.ID, r.Cost))
	}
	if len(r.Outputs) == 0 {
		errs = append(errs, fmt.Errorf("recipe %q: must declare at least one output", r.ID))
	}
	for i, in := range r.Inputs {
		if in.IsZero() {
			errs = append(errs, fmt.Errorf("recipe %q: input[%d] is unset", r.ID, i))
		}
	}
	for i, out := range r.Outputs {
		if out.IsZero() {
			errs = append(errs, fmt.Errorf("recipe %q: output[%d] is unset", r.ID, i))
		}
	}
	return errors.Join(errs...)
}
