package planner

import (
	"slices"

	"github.com/roach88/forgeplan/internal/ir"
)

// ItemIndex is the item side of the catalog contract, used by Expand.
type ItemIndex interface {
	// ItemIDs returns item ids in catalog order.
	ItemIDs() []string
	// ItemCategories returns the categories of one item.
	ItemCategories(id string) ([]string, bool)
	// ItemsWithCategory returns the ids of items carrying category.
	ItemsWithCategory(category string) []string
}

// Expand turns target into concrete targets.
//
// Identity and Any matchers are returned unchanged as a one-element list.
// AnyOf yields the catalog items carrying at least one wanted category and
// AllOf the items carrying every wanted category, in catalog order, stopping
// after limit items. A category nobody carries yields an empty list.
func Expand(target ir.Matcher, items ItemIndex, limit int) ([]ir.Matcher, error) {
	if limit <= 0 {
		return nil, boundError("expand_limit", limit)
	}
	switch target.Kind() {
	case ir.KindIdentity, ir.KindAny:
		return []ir.Matcher{target}, nil
	case ir.KindAnyOfCategories:
		wanted := make(map[string]bool)
		for _, cat := range target.Categories() {
			for _, id := range items.ItemsWithCategory(cat) {
				wanted[id] = true
			}
		}
		return collect(items.ItemIDs(), limit, func(id string) bool { return wanted[id] }), nil
	case ir.KindAllOfCategories:
		cats := target.Categories()
		return collect(items.ItemIDs(), limit, func(id string) bool {
			have, ok := items.ItemCategories(id)
			if !ok {
				return false
			}
			for _, c := range cats {
				if !slices.Contains(have, c) {
					return false
				}
			}
			return true
		}), nil
	default:
		return nil, &QueryError{Code: ErrCodeInvalidTarget, Field: "target", Message: "target matcher is required"}
	}
}

func collect(ids []string, limit int, keep func(string) bool) []ir.Matcher {
	out := []ir.Matcher{}
	for _, id := range ids {
		if len(out) >= limit {
			break
		}
		if !keep(id) {
			continue
		}
		m, err := ir.Identity(id)
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}
