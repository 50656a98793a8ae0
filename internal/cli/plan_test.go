package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type planResponse struct {
	Status  string     `json:"status"`
	QueryID string     `json:"query_id"`
	Data    PlanOutput `json:"data"`
	Error   *CLIError  `json:"error"`
}

func planJSON(t *testing.T, args ...string) (planResponse, error) {
	t.Helper()
	out, err := execute(t, append([]string{"plan", workshopDir, "--format", "json"}, args...)...)
	var resp planResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp, err
}

func planCosts(out PlanOutput) []int64 {
	costs := make([]int64, len(out.Plans))
	for i, p := range out.Plans {
		costs[i] = p.Cost
	}
	return costs
}

func TestPlanBest(t *testing.T) {
	out, err := execute(t, "plan", workshopDir,
		"--target", "steel_ingot", "--have", "iron_ingot", "--have", "coal", "--have", "wood")
	require.NoError(t, err)

	assert.Contains(t, out, "Target ID:steel_ingot in workshop (mode best")
	assert.Contains(t, out, "#1 cost 5 → ID:steel_ingot")
	assert.Contains(t, out, "1. smelt_steel_coal (5) → ID:steel_ingot")
	assert.NotContains(t, out, "#2")
	assert.NotContains(t, out, "expanded to")
}

func TestPlanModes(t *testing.T) {
	have := []string{"--target", "steel_ingot", "--have", "iron_ingot", "--have", "coal", "--have", "wood"}

	tests := []struct {
		name  string
		args  []string
		costs []int64
		mode  string
	}{
		{"best", []string{"--mode", "best"}, []int64{5}, "best"},
		{"topk", []string{"--mode", "topk", "--k", "1"}, []int64{5}, "topk(1)"},
		{"topk from config", []string{"--mode", "topk"}, []int64{5, 8}, "topk(3)"},
		{"all", []string{"--mode", "all"}, []int64{5, 8}, "all"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := planJSON(t, append(have, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, "ok", resp.Status)
			assert.Equal(t, tt.mode, resp.Data.Mode)
			assert.Equal(t, tt.costs, planCosts(resp.Data))
		})
	}
}

func TestPlanJSONShape(t *testing.T) {
	resp, err := planJSON(t, "--target", "steel_ingot", "--have", "iron_ingot", "--have", "wood", "--mode", "all")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.QueryID)
	assert.Equal(t, resp.QueryID, resp.Data.QueryID)
	assert.Equal(t, "workshop", resp.Data.Catalog)
	assert.Equal(t, []string{"ID:steel_ingot"}, resp.Data.Targets)
	assert.False(t, resp.Data.Recorded)

	require.Len(t, resp.Data.Plans, 1)
	p := resp.Data.Plans[0]
	assert.Equal(t, 0, p.Rank)
	assert.Equal(t, int64(8), p.Cost)
	assert.Equal(t, "ID:steel_ingot<-smelt_steel_charcoal|ID:iron_ingot<-AVAILABLE|ID:charcoal<-burn_charcoal|ID:wood<-AVAILABLE|", p.Signature)
	assert.Len(t, p.Digest, 64)
	assert.Equal(t, []StepView{
		{Recipe: "burn_charcoal", Cost: 2, Produces: "ID:charcoal"},
		{Recipe: "smelt_steel_charcoal", Cost: 6, Produces: "ID:steel_ingot"},
	}, p.Steps)
	assert.True(t, json.Valid(p.Tree))
}

func TestPlanAlreadyAvailable(t *testing.T) {
	out, err := execute(t, "plan", workshopDir, "--target", "coal", "--have", "coal")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 cost 0 → ID:coal")
	assert.Contains(t, out, "already available")
}

func TestPlanCategoryTarget(t *testing.T) {
	resp, err := planJSON(t, "--target", "any_of:FUEL", "--have", "wood", "--mode", "all")
	require.NoError(t, err)

	assert.Equal(t, "CAT_ANY:[FUEL]", resp.Data.Target)
	assert.Equal(t, []string{"ID:coal", "ID:charcoal"}, resp.Data.Targets)
	require.Len(t, resp.Data.Plans, 1)
	assert.Equal(t, "ID:charcoal", resp.Data.Plans[0].Target)

	out, err := execute(t, "plan", workshopDir, "--target", "any_of:FUEL", "--have", "wood")
	require.NoError(t, err)
	assert.Contains(t, out, "expanded to: ID:coal, ID:charcoal")
}

func TestPlanInfeasible(t *testing.T) {
	resp, err := planJSON(t, "--target", "steel_ingot", "--have", "coal")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInfeasible, resp.Error.Code)
	assert.Empty(t, resp.Data.Plans)

	out, err := execute(t, "plan", workshopDir, "--target", "steel_ingot")
	require.Error(t, err)
	assert.Contains(t, out, "✗ No plan found")
}

func TestPlanFactoryFilter(t *testing.T) {
	_, err := execute(t, "plan", workshopDir,
		"--target", "steel_ingot", "--have", "iron_ingot", "--have", "coal", "--factory", "kiln")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp, err := planJSON(t, "--target", "charcoal", "--have", "wood", "--factory", "kiln")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, planCosts(resp.Data))

	_, err = execute(t, "plan", workshopDir, "--target", "coal", "--factory", "forge")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPlanBudget(t *testing.T) {
	resp, err := planJSON(t, "--target", "steel_ingot", "--have", "iron_ingot", "--have", "coal", "--have", "wood",
		"--mode", "all", "--max-plans", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Data.Stats.BudgetUsed)
	assert.True(t, resp.Data.Stats.Exhausted)
	assert.Len(t, resp.Data.Plans, 1)
}

func TestPlanInvalidQuery(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing target", []string{}},
		{"bad target", []string{"--target", "kind:x"}},
		{"bad have", []string{"--target", "coal", "--have", "any_of:"}},
		{"unknown mode", []string{"--target", "coal", "--mode", "fastest"}},
		{"negative k", []string{"--target", "coal", "--mode", "topk", "--k", "-1"}},
		{"negative depth", []string{"--target", "coal", "--max-depth", "-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"plan", workshopDir}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, ErrCodeInvalidQuery)
		})
	}
}

func TestPlanMissingCatalog(t *testing.T) {
	out, err := execute(t, "plan", "/nonexistent/catalog", "--target", "coal")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}
