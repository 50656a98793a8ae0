package planner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/forgeplan/internal/catalog"
	"github.com/roach88/forgeplan/internal/ir"
	"github.com/roach88/forgeplan/internal/testutil"
)

func opts(maxDepth, maxPlans int, dedup bool) Options {
	return Options{MaxDepth: maxDepth, MaxPlans: maxPlans, Deduplicate: dedup}
}

func costs(plans []ir.Plan) []int64 {
	out := make([]int64, len(plans))
	for i, p := range plans {
		out[i] = p.Cost
	}
	return out
}

func signatures(plans []ir.Plan) []string {
	out := make([]string, len(plans))
	for i, p := range plans {
		out[i] = p.Signature()
	}
	return out
}

// assertCostsConsistent checks every node's cost is its recipe cost plus its
// children's costs, and leaves cost nothing.
func assertCostsConsistent(t *testing.T, n *ir.PlanNode) {
	t.Helper()
	if n.IsLeaf() {
		assert.Zero(t, n.Cost, "leaf %s", n.Target.Key())
		assert.Empty(t, n.Children)
		return
	}
	want := n.Recipe.Cost
	for _, c := range n.Children {
		want += c.Cost
		assertCostsConsistent(t, c)
	}
	assert.Equal(t, want, n.Cost, "node %s via %s", n.Target.Key(), n.Recipe.ID)
	assert.Len(t, n.Children, len(n.Recipe.Inputs))
}

func assertAscending(t *testing.T, plans []ir.Plan) {
	t.Helper()
	for i := 1; i < len(plans); i++ {
		assert.LessOrEqual(t, plans[i-1].Cost, plans[i].Cost, "plans[%d] and plans[%d] out of order", i-1, i)
	}
}

func TestSolveSteelScenario(t *testing.T) {
	solver := NewSolver(testutil.SmeltingCatalog())

	plans, err := solver.Solve(testutil.ID("steel_ingot"), testutil.IDs("iron_ingot", "coal"), DefaultOptions(), BestOnly())
	require.NoError(t, err)
	require.Len(t, plans, 1)

	best := plans[0]
	assert.True(t, best.Feasible)
	assert.Equal(t, int64(5), best.Cost)
	assert.Equal(t, "smelt_steel_coal", best.Root.Recipe.ID)
	assert.Equal(t, []string{"smelt_steel_coal"}, best.StepIDs())

	// charcoal has no recipe and is not available, so the other recipe is
	// infeasible in every mode.
	all, err := solver.Solve(testutil.ID("steel_ingot"), testutil.IDs("iron_ingot", "coal"), DefaultOptions(), All())
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, costs(all))
}

func TestSolveAlternativesRanked(t *testing.T) {
	solver := NewSolver(testutil.SmeltingCatalog())

	plans, err := solver.Solve(testutil.ID("steel_ingot"), testutil.IDs("iron_ingot", "coal", "charcoal"), DefaultOptions(), All())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, []int64{5, 6}, costs(plans))
	assert.Equal(t, "smelt_steel_charcoal", plans[1].Root.Recipe.ID)
}

func TestSolveForgeModes(t *testing.T) {
	solver := NewSolver(testutil.ForgeCatalog())
	have := testutil.IDs("iron_ingot", "coal", "wood")

	tests := []struct {
		name  string
		mode  Mode
		costs []int64
		steps []string
	}{
		{
			name:  "all enumerates every combination",
			mode:  All(),
			costs: []int64{10, 11, 15, 16},
			steps: []string{"bake_coke", "smelt_steel_coke", "carve_handle", "forge_sword"},
		},
		{
			name:  "top k keeps the k cheapest",
			mode:  TopK(2),
			costs: []int64{10, 11},
			steps: []string{"bake_coke", "smelt_steel_coke", "carve_handle", "forge_sword"},
		},
		{
			// BestOnly stops at the first recipe that yields a plan for each
			// sub-goal, so it settles on the coal route.
			name:  "best only keeps the first contributing recipe",
			mode:  BestOnly(),
			costs: []int64{11},
			steps: []string{"smelt_steel_coal", "carve_handle", "forge_sword"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans, err := solver.Solve(testutil.ID("sword"), have, DefaultOptions(), tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.costs, costs(plans))
			assert.Equal(t, tt.steps, plans[0].StepIDs())
			for _, p := range plans {
				assertCostsConsistent(t, p.Root)
			}
		})
	}
}

func TestSolveDepthBound(t *testing.T) {
	solver := NewSolver(testutil.ForgeCatalog())
	have := testutil.IDs("iron_ingot", "coal", "wood")

	tests := []struct {
		maxDepth int
		costs    []int64
	}{
		{1, []int64{}},
		{2, []int64{11, 16}},
		{3, []int64{10, 11, 15, 16}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("depth %d", tt.maxDepth), func(t *testing.T) {
			plans, err := solver.Solve(testutil.ID("sword"), have, opts(tt.maxDepth, 100, true), All())
			require.NoError(t, err)
			assert.Equal(t, tt.costs, costs(plans))
		})
	}
}

func TestSolveZeroInputRecipe(t *testing.T) {
	solver := NewSolver(testutil.ForgeCatalog())

	plans, err := solver.Solve(testutil.ID("handle"), []ir.Matcher{}, DefaultOptions(), All())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, int64(7), plans[0].Cost)
	assert.Equal(t, "buy_handle", plans[0].Root.Recipe.ID)
	assert.Empty(t, plans[0].Root.Children)
}

func TestSolveAvailabilityShortCircuit(t *testing.T) {
	solver := NewSolver(testutil.SmeltingCatalog())
	have := testutil.IDs("iron_ingot", "coal", "steel_ingot")

	for _, mode := range []Mode{BestOnly(), TopK(3), All()} {
		t.Run(mode.String(), func(t *testing.T) {
			plans, err := solver.Solve(testutil.ID("steel_ingot"), have, DefaultOptions(), mode)
			require.NoError(t, err)
			require.NotEmpty(t, plans)
			assert.Equal(t, int64(0), plans[0].Cost)
			assert.True(t, plans[0].Root.IsLeaf())
		})
	}

	// The producible alternative survives alongside the leaf.
	plans, err := solver.Solve(testutil.ID("steel_ingot"), have, DefaultOptions(), All())
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 5}, costs(plans))
	assert.Equal(t, []string{
		"ID:steel_ingot<-AVAILABLE|",
		"ID:steel_ingot<-smelt_steel_coal|ID:iron_ingot<-AVAILABLE|ID:coal<-AVAILABLE|",
	}, signatures(plans))
}

func TestSolveWildcardAvailable(t *testing.T) {
	solver := NewSolver(testutil.ForgeCatalog())

	plans, err := solver.Solve(testutil.ID("sword"), []ir.Matcher{ir.Any()}, DefaultOptions(), BestOnly())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.True(t, plans[0].Root.IsLeaf())
}

func TestSolveCycleSafety(t *testing.T) {
	solver := NewSolver(testutil.CycleCatalog())

	for _, target := range []string{"a", "b"} {
		t.Run(target, func(t *testing.T) {
			plans, stats, err := solver.SolveContext(context.Background(), testutil.ID(target), []ir.Matcher{}, opts(1000, 5000, true), All())
			require.NoError(t, err)
			assert.NotNil(t, plans)
			assert.Empty(t, plans)
			assert.Positive(t, stats.CyclesCut)
			assert.Zero(t, stats.BudgetUsed)
		})
	}
}

func TestSolveCycleWithEscape(t *testing.T) {
	// a needs b, b needs a, but b can also be mined.
	cat := catalog.NewBuilder("escape").
		Recipe(testutil.Recipe("make_a", 1, testutil.ID("a"), testutil.ID("b"))).
		Recipe(testutil.Recipe("make_b", 1, testutil.ID("b"), testutil.ID("a"))).
		Recipe(testutil.Recipe("mine_b", 3, testutil.ID("b"))).
		MustBuild()

	plans, err := NewSolver(cat).Solve(testutil.ID("a"), []ir.Matcher{}, DefaultOptions(), All())
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, int64(4), plans[0].Cost)
	assert.Equal(t, []string{"mine_b", "make_a"}, plans[0].StepIDs())
}

func TestSolveBudgetCeiling(t *testing.T) {
	solver := NewSolver(testutil.ForgeCatalog())
	have := testutil.IDs("iron_ingot", "coal", "wood")

	for maxPlans := 1; maxPlans <= 12; maxPlans++ {
		for _, mode := range []Mode{BestOnly(), TopK(3), All()} {
			t.Run(fmt.Sprintf("%d/%s", maxPlans, mode), func(t *testing.T) {
				plans, stats, err := solver.SolveContext(context.Background(), testutil.ID("sword"), have, opts(16, maxPlans, true), mode)
				require.NoError(t, err)
				assert.LessOrEqual(t, stats.BudgetUsed, maxPlans)
				assert.LessOrEqual(t, len(plans), maxPlans)
				assertAscending(t, plans)
			})
		}
	}
}

func TestSolveBudgetExhaustionTruncates(t *testing.T) {
	solver := NewSolver(testutil.ForgeCatalog())
	have := testutil.IDs("iron_ingot", "coal", "wood")

	// Three units go to the steel sub-goal; nothing is left for the handle.
	plans, stats, err := solver.SolveContext(context.Background(), testutil.ID("sword"), have, opts(16, 3, true), All())
	require.NoError(t, err)
	assert.Empty(t, plans)
	assert.True(t, stats.Exhausted)
	assert.Equal(t, 3, stats.BudgetUsed)

	// Nine units cover the whole search.
	plans, stats, err = solver.SolveContext(context.Background(), testutil.ID("sword"), have, opts(16, 9, true), All())
	require.NoError(t, err)
	assert.Len(t, plans, 4)
	assert.Equal(t, 9, stats.BudgetUsed)
}

func TestSolveMaxPlansOne(t *testing.T) {
	solver := NewSolver(testutil.SmeltingCatalog())
	have := testutil.IDs("iron_ingot", "coal", "charcoal")

	for _, mode := range []Mode{BestOnly(), TopK(5), All()} {
		t.Run(mode.String(), func(t *testing.T) {
			plans, err := solver.Solve(testutil.ID("steel_ingot"), have, opts(16, 1, true), mode)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(plans), 1)
		})
	}
}

func TestSolveDeterminism(t *testing.T) {
	solver := NewSolver(testutil.ForgeCatalog())
	have := testutil.IDs("iron_ingot", "coal", "wood")

	first, err := solver.Solve(testutil.ID("sword"), have, DefaultOptions(), All())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := solver.Solve(testutil.ID("sword"), have, DefaultOptions(), All())
		require.NoError(t, err)
		assert.Equal(t, signatures(first), signatures(again))
		assert.Equal(t, costs(first), costs(again))
	}
}

func TestSolveModesDoNotShareState(t *testing.T) {
	solver := NewSolver(testutil.ForgeCatalog())
	have := testutil.IDs("iron_ingot", "coal", "wood")

	best, err := solver.Solve(testutil.ID("sword"), have, DefaultOptions(), BestOnly())
	require.NoError(t, err)
	all, err := solver.Solve(testutil.ID("sword"), have, DefaultOptions(), All())
	require.NoError(t, err)
	bestAgain, err := solver.Solve(testutil.ID("sword"), have, DefaultOptions(), BestOnly())
	require.NoError(t, err)

	assert.Len(t, all, 4, "a prior BestOnly query must not prune later ones")
	assert.Equal(t, signatures(best), signatures(bestAgain))
}

// duplicatingCatalog returns every recipe twice, producing structurally
// identical plans through different enumeration paths.
type duplicatingCatalog struct {
	*catalog.Catalog
}

func (d duplicatingCatalog) RecipesProducing(target ir.Matcher) []*ir.Recipe {
	rs := d.Catalog.RecipesProducing(target)
	return append(rs, rs...)
}

func TestSolveDedupIdempotence(t *testing.T) {
	solver := NewSolver(duplicatingCatalog{testutil.ForgeCatalog()})
	have := testutil.IDs("iron_ingot", "coal", "wood")

	for _, mode := range []Mode{TopK(50), All()} {
		t.Run(mode.String(), func(t *testing.T) {
			raw, err := solver.Solve(testutil.ID("sword"), have, opts(16, 5000, false), mode)
			require.NoError(t, err)
			deduped, err := solver.Solve(testutil.ID("sword"), have, opts(16, 5000, true), mode)
			require.NoError(t, err)

			assert.Greater(t, len(raw), len(deduped))
			assert.Len(t, deduped, 4)

			seen := map[string]bool{}
			for _, sig := range signatures(deduped) {
				assert.False(t, seen[sig], "duplicate signature %s", sig)
				seen[sig] = true
			}
			assertAscending(t, deduped)
		})
	}
}

func TestSolveValidation(t *testing.T) {
	solver := NewSolver(testutil.SmeltingCatalog())
	steel := testutil.ID("steel_ingot")
	have := testutil.IDs("iron_ingot")

	tests := []struct {
		name      string
		target    ir.Matcher
		available []ir.Matcher
		opts      Options
		mode      Mode
		code      QueryErrorCode
	}{
		{"missing target", ir.Matcher{}, have, DefaultOptions(), All(), ErrCodeInvalidTarget},
		{"nil available", steel, nil, DefaultOptions(), All(), ErrCodeInvalidAvailable},
		{"unset available entry", steel, []ir.Matcher{{}}, DefaultOptions(), All(), ErrCodeInvalidAvailable},
		{"zero depth", steel, have, opts(0, 10, true), All(), ErrCodeInvalidBound},
		{"negative plans", steel, have, opts(4, -1, true), All(), ErrCodeInvalidBound},
		{"zero k", steel, have, DefaultOptions(), TopK(0), ErrCodeInvalidBound},
		{"unset mode", steel, have, DefaultOptions(), Mode{}, ErrCodeInvalidMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans, err := solver.Solve(tt.target, tt.available, tt.opts, tt.mode)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.NotNil(t, plans)
			assert.Empty(t, plans)

			var qe *QueryError
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, tt.code, qe.Code)
		})
	}
}

func TestSolveEmptyAvailableIsValid(t *testing.T) {
	plans, err := NewSolver(testutil.SmeltingCatalog()).Solve(testutil.ID("steel_ingot"), []ir.Matcher{}, DefaultOptions(), All())
	require.NoError(t, err)
	assert.NotNil(t, plans)
	assert.Empty(t, plans)
}

func TestSolveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plans, _, err := NewSolver(testutil.ForgeCatalog()).SolveContext(ctx, testutil.ID("sword"), testutil.IDs("iron_ingot", "coal", "wood"), DefaultOptions(), All())
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, plans)
}

func TestSolveLogsBudgetExhaustion(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	solver := NewSolver(testutil.ForgeCatalog(), WithLogger(logger))

	_, err := solver.Solve(testutil.ID("sword"), testutil.IDs("iron_ingot", "coal", "wood"), opts(16, 2, true), All())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "plan budget exhausted")
	assert.Contains(t, buf.String(), "target=ID:sword")
}
