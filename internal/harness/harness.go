package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/forgeplan/internal/catalog"
	"github.com/roach88/forgeplan/internal/compiler"
	"github.com/roach88/forgeplan/internal/ir"
	"github.com/roach88/forgeplan/internal/planner"
	"github.com/roach88/forgeplan/internal/store"
	"github.com/roach88/forgeplan/internal/testutil"
)

// Harness holds the per-scenario execution context.
type Harness struct {
	store   *store.Store
	catalog *catalog.Catalog
	facade  *planner.Facade
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with a
// fixed query id so the output is reproducible.
//
// Execution flow:
// 1. Load, compile and validate the CUE catalog
// 2. Restrict it to the scenario's factories, if any
// 3. Plan the query
// 4. Record the query and read the ranked plans back from the history
// 5. Evaluate assertions against what was stored
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with cancellation.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()

	cat, warnings, err := loadCatalog(scenario)
	if err != nil {
		return nil, err
	}
	result.Warnings = warnings

	query, err := scenario.Query.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		store:   st,
		catalog: cat,
		facade: planner.NewFacade(cat,
			planner.WithLogger(logger),
			planner.WithIDGenerator(testutil.NewFixedQueryIDGenerator(scenario.QueryID))),
		logger: logger,
	}

	if err := h.store.SaveCatalog(ctx, cat.Name(), cat); err != nil {
		return nil, fmt.Errorf("failed to save catalog: %w", err)
	}

	res, err := h.facade.Plan(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to plan: %w", err)
	}

	if err := h.record(ctx, query, res, result); err != nil {
		return nil, err
	}

	h.logger.Info("scenario planned",
		"scenario", scenario.Name,
		"query_id", result.QueryID,
		"plans", len(result.Plans),
		"budget_used", result.BudgetUsed)

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// loadCatalog compiles the scenario catalog and applies the factory filter.
// Validation errors fail the run; warnings are returned.
func loadCatalog(scenario *Scenario) (*catalog.Catalog, []string, error) {
	loaded, err := compiler.LoadDir(scenario.Catalog)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	var warnings, failures []string
	for _, issue := range compiler.Validate(loaded.Spec) {
		if issue.IsWarning() {
			warnings = append(warnings, issue.Error())
		} else {
			failures = append(failures, issue.Error())
		}
	}
	if len(failures) > 0 {
		return nil, nil, fmt.Errorf("invalid catalog %s:\n  %s", loaded.Spec.Name, strings.Join(failures, "\n  "))
	}

	cat, err := catalog.FromSpec(*loaded.Spec)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	if len(scenario.Factories) > 0 {
		if cat, err = cat.ForFactories(scenario.Factories...); err != nil {
			return nil, nil, fmt.Errorf("failed to restrict catalog: %w", err)
		}
	}
	return cat, warnings, nil
}

// record writes the query to the history and fills result from the stored
// rows, so assertions and golden output see exactly what was persisted.
func (h *Harness) record(ctx context.Context, q planner.Query, res *planner.Result, result *Result) error {
	rec := store.QueryRecord{
		ID:          res.QueryID,
		Catalog:     h.catalog.Name(),
		Target:      q.Target,
		Targets:     res.Targets,
		Available:   q.Available,
		Mode:        q.Mode.String(),
		MaxDepth:    q.Options.MaxDepth,
		MaxPlans:    q.Options.MaxPlans,
		Deduplicate: q.Options.Deduplicate,
		BudgetUsed:  res.Stats.BudgetUsed,
	}
	if err := h.store.RecordQuery(ctx, rec, res.Plans); err != nil {
		return fmt.Errorf("failed to record query: %w", err)
	}

	stored, plans, err := h.store.ReadQuery(ctx, res.QueryID)
	if err != nil {
		return fmt.Errorf("failed to read query back: %w", err)
	}

	result.QueryID = stored.ID
	result.Targets = ir.MatcherKeys(stored.Targets)
	result.BudgetUsed = stored.BudgetUsed
	result.Exhausted = res.Stats.Exhausted
	for _, p := range plans {
		result.Plans = append(result.Plans, PlanSummary{
			Rank:      p.Rank,
			Target:    p.Target,
			Cost:      p.Cost,
			Feasible:  p.Feasible,
			Signature: p.Signature,
			Steps:     p.Steps,
		})
	}
	return nil
}
