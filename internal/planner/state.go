package planner

import (
	"context"

	"github.com/roach88/forgeplan/internal/ir"
)

// memoKey identifies a sub-search. Depth is part of the key because the
// depth bound makes the same target resolve differently at different depths.
type memoKey struct {
	target string
	depth  int
}

// searchState is the mutable state of one top-level search.
//
// It is created by Solver.solve and discarded when that call returns.
// Nothing in it may outlive the query. The memo key omits the mode, so a
// memo table reused across queries would return results pruned for another
// mode.
type searchState struct {
	ctx       context.Context
	catalog   Catalog
	available []ir.Matcher
	opts      Options
	mode      Mode

	memo     map[memoKey][]*ir.PlanNode
	visiting map[string]struct{}
	budget   *budget

	cyclesCut int
	cancelled bool
}

func newSearchState(ctx context.Context, cat Catalog, available []ir.Matcher, opts Options, mode Mode) *searchState {
	return &searchState{
		ctx:       ctx,
		catalog:   cat,
		available: available,
		opts:      opts,
		mode:      mode,
		memo:      make(map[memoKey][]*ir.PlanNode),
		visiting:  make(map[string]struct{}),
		budget:    newBudget(opts.MaxPlans),
	}
}

// enter marks key as on the active recursion path. It returns false when
// key is already there, meaning the target is its own ancestor.
func (s *searchState) enter(key string) bool {
	if _, ok := s.visiting[key]; ok {
		return false
	}
	s.visiting[key] = struct{}{}
	return true
}

// leave unmarks key so siblings elsewhere in the tree can resolve it.
func (s *searchState) leave(key string) {
	delete(s.visiting, key)
}

// stopped reports whether enumeration must end: budget spent or context
// cancelled. These are the only interruption points of a search.
func (s *searchState) stopped() bool {
	if s.cancelled {
		return true
	}
	if s.ctx.Err() != nil {
		s.cancelled = true
		return true
	}
	return s.budget.exhausted()
}

// take consumes one budget unit for a materialised combination.
func (s *searchState) take() bool {
	if s.cancelled || s.ctx.Err() != nil {
		s.cancelled = true
		return false
	}
	return s.budget.take()
}
