package planner

import (
	"context"
	"log/slog"

	"github.com/roach88/forgeplan/internal/ir"
)

// Catalog is the contract the planner consumes. Implementations must be
// safe for concurrent reads; *catalog.Catalog is.
type Catalog interface {
	ItemIndex

	// RecipesProducing returns every recipe with an output covering target,
	// in catalog order.
	RecipesProducing(target ir.Matcher) []*ir.Recipe
}

// Stats describes the work done by one search.
type Stats struct {
	// BudgetUsed counts combinations materialised, including the
	// availability leaf.
	BudgetUsed int `json:"budget_used"`

	// Exhausted is true when the whole budget was consumed. Results may then
	// be truncated and are optimal only among the plans enumerated.
	Exhausted bool `json:"exhausted"`

	// MemoEntries counts distinct (target, depth) sub-searches.
	MemoEntries int `json:"memo_entries"`

	// CyclesCut counts recursion paths abandoned by the cycle guard.
	CyclesCut int `json:"cycles_cut"`
}

func (s Stats) add(other Stats) Stats {
	return Stats{
		BudgetUsed:  s.BudgetUsed + other.BudgetUsed,
		Exhausted:   s.Exhausted || other.Exhausted,
		MemoEntries: s.MemoEntries + other.MemoEntries,
		CyclesCut:   s.CyclesCut + other.CyclesCut,
	}
}

// Solver searches plans for a single target.
//
// A Solver holds only the catalog and a logger; every call builds its own
// search state, so one Solver may serve concurrent callers.
type Solver struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewSolver returns a solver over cat.
func NewSolver(cat Catalog, opts ...Option) *Solver {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Solver{catalog: cat, logger: cfg.logger}
}

// Solve returns the plans for target, cheapest first, shaped by mode.
//
// The result is never nil. It is empty when target cannot be obtained within
// the bounds. Invalid arguments are reported as *QueryError before any
// search work starts.
func (s *Solver) Solve(target ir.Matcher, available []ir.Matcher, opts Options, mode Mode) ([]ir.Plan, error) {
	plans, _, err := s.SolveContext(context.Background(), target, available, opts, mode)
	return plans, err
}

// SolveContext is Solve with cooperative cancellation and search statistics.
// ctx is checked wherever the budget is; a cancelled search returns the
// plans found so far together with ctx.Err().
func (s *Solver) SolveContext(ctx context.Context, target ir.Matcher, available []ir.Matcher, opts Options, mode Mode) ([]ir.Plan, Stats, error) {
	if err := validateQuery(target, available, opts, mode); err != nil {
		return []ir.Plan{}, Stats{}, err
	}
	plans, stats := s.solve(ctx, target, available, opts, mode)
	if err := ctx.Err(); err != nil {
		return plans, stats, err
	}
	return plans, stats, nil
}

// solve runs one top-level search with fresh state. Arguments are assumed
// valid.
func (s *Solver) solve(ctx context.Context, target ir.Matcher, available []ir.Matcher, opts Options, mode Mode) ([]ir.Plan, Stats) {
	state := newSearchState(ctx, s.catalog, available, opts, mode)

	var nodes []*ir.PlanNode
	if ir.AvailableCovers(available, target) {
		// The leaf is one candidate; recipe alternatives follow.
		if state.take() {
			nodes = append(nodes, ir.Leaf(target))
		}
		nodes = append(nodes, state.derive(target, 0)...)
	} else {
		nodes = state.resolve(target, 0)
	}

	nodes = finalize(nodes, opts, mode)
	plans := make([]ir.Plan, len(nodes))
	for i, n := range nodes {
		plans[i] = ir.NewPlan(n)
	}

	stats := Stats{
		BudgetUsed:  state.budget.used,
		Exhausted:   state.budget.exhausted(),
		MemoEntries: len(state.memo),
		CyclesCut:   state.cyclesCut,
	}
	if stats.Exhausted {
		s.logger.Debug("plan budget exhausted",
			"target", target.Key(),
			"max_plans", opts.MaxPlans,
			"plans", len(plans))
	}
	return plans, stats
}

// finalize applies the top-level ordering: stable ascending sort, dedup
// (keeping the cheapest of each signature) and mode truncation.
func finalize[T ir.Ranked](xs []T, opts Options, mode Mode) []T {
	out := make([]T, len(xs))
	copy(out, xs)
	ir.SortByCost(out)
	if opts.Deduplicate {
		out = ir.DedupBySignature(out)
	}
	return truncate(out, mode)
}
