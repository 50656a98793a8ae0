package planner

import (
	"context"
	"log/slog"

	"github.com/roach88/forgeplan/internal/ir"
)

// Query is one facade request.
type Query struct {
	Target      ir.Matcher
	Available   []ir.Matcher
	Options     Options
	Mode        Mode
	ExpandLimit int
}

// Result is the outcome of a facade query.
type Result struct {
	// QueryID correlates the result with recorded history.
	QueryID string

	// Targets are the concrete targets searched, after expansion and after
	// dropping wildcards.
	Targets []ir.Matcher

	// Plans are ranked ascending by cost and shaped by the query mode.
	Plans []ir.Plan

	// Stats aggregates the per-target searches.
	Stats Stats
}

// Facade drives expansion and search across concrete targets and ranks the
// merged results.
type Facade struct {
	catalog Catalog
	solver  *Solver
	logger  *slog.Logger
	ids     QueryIDGenerator
}

// NewFacade returns a facade over cat.
func NewFacade(cat Catalog, opts ...Option) *Facade {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Facade{
		catalog: cat,
		solver:  &Solver{catalog: cat, logger: cfg.logger},
		logger:  cfg.logger,
		ids:     cfg.ids,
	}
}

// Plan runs q.
//
// The target is expanded into at most q.ExpandLimit concrete targets.
// Wildcard targets are skipped: "anything" is not a goal with a meaningful
// plan. Each remaining target is solved with its own search state, so the
// budget applies per concrete target. Results are merged, deduplicated across
// targets when q.Options.Deduplicate is set, sorted and truncated by mode.
func (f *Facade) Plan(ctx context.Context, q Query) (*Result, error) {
	if err := validateQuery(q.Target, q.Available, q.Options, q.Mode); err != nil {
		return nil, err
	}
	targets, err := Expand(q.Target, f.catalog, q.ExpandLimit)
	if err != nil {
		return nil, err
	}

	res := &Result{
		QueryID: f.ids.Generate(),
		Targets: []ir.Matcher{},
		Plans:   []ir.Plan{},
	}
	f.logger.Debug("planning",
		"query_id", res.QueryID,
		"target", q.Target.Key(),
		"mode", q.Mode.String(),
		"concrete_targets", len(targets))

	var merged []ir.Plan
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if target.IsAny() {
			continue
		}
		res.Targets = append(res.Targets, target)
		plans, stats := f.solver.solve(ctx, target, q.Available, q.Options, q.Mode)
		res.Stats = res.Stats.add(stats)
		merged = append(merged, plans...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Plans = finalize(merged, q.Options, q.Mode)
	f.logger.Debug("planned",
		"query_id", res.QueryID,
		"plans", len(res.Plans),
		"budget_used", res.Stats.BudgetUsed,
		"exhausted", res.Stats.Exhausted)
	return res, nil
}

// BestOnly returns the cheapest plan. When none exists it returns the
// infeasible sentinel for target and false.
func (f *Facade) BestOnly(ctx context.Context, target ir.Matcher, available []ir.Matcher, opts Options, expandLimit int) (ir.Plan, bool, error) {
	res, err := f.Plan(ctx, Query{Target: target, Available: available, Options: opts, Mode: BestOnly(), ExpandLimit: expandLimit})
	if err != nil {
		return ir.Plan{}, false, err
	}
	if len(res.Plans) == 0 {
		return ir.Infeasible(target), false, nil
	}
	return res.Plans[0], true, nil
}

// TopK returns up to k plans, cheapest first.
func (f *Facade) TopK(ctx context.Context, target ir.Matcher, available []ir.Matcher, opts Options, k, expandLimit int) ([]ir.Plan, error) {
	res, err := f.Plan(ctx, Query{Target: target, Available: available, Options: opts, Mode: TopK(k), ExpandLimit: expandLimit})
	if err != nil {
		return nil, err
	}
	return res.Plans, nil
}

// All returns every plan enumerated within the budget, cheapest first.
func (f *Facade) All(ctx context.Context, target ir.Matcher, available []ir.Matcher, opts Options, expandLimit int) ([]ir.Plan, error) {
	res, err := f.Plan(ctx, Query{Target: target, Available: available, Options: opts, Mode: All(), ExpandLimit: expandLimit})
	if err != nil {
		return nil, err
	}
	return res.Plans, nil
}
