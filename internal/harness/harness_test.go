package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunScenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		scenario, err := LoadScenario(file)
		require.NoError(t, err, file)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "assertion failures: %v", result.Errors)
			assert.Empty(t, result.Warnings)
		})
	}
}

func TestRun_RecordsFixedQueryID(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/steel_kiln_only.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, "test-query-default", result.QueryID)
	assert.Equal(t, []string{"ID:steel_ingot"}, result.Targets)
	assert.Empty(t, result.Plans)
	assert.Equal(t, 0, result.BudgetUsed)
}

func TestRun_PlansComeFromHistory(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/steel_all.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.Len(t, result.Plans, 2)
	assert.Equal(t, 3, result.BudgetUsed)
	for i, p := range result.Plans {
		assert.Equal(t, i, p.Rank)
		assert.Equal(t, "ID:steel_ingot", p.Target)
		assert.True(t, p.Feasible)
	}
	assert.Equal(t, []int64{5, 8}, result.Costs())
}

func TestRun_FailedAssertionsAreReported(t *testing.T) {
	scenario, err := LoadScenario("testdata/bad/wrong_expectation.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "best_cost")
	assert.Contains(t, result.Errors[1], "infeasible")
}

func TestRun_InvalidCatalog(t *testing.T) {
	scenario, err := LoadScenario("testdata/bad/invalid_catalog.yaml")
	require.NoError(t, err)

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid catalog invalid")
	assert.Contains(t, err.Error(), "[E102]")
}

func TestRun_UnknownFactory(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/steel_kiln_only.yaml")
	require.NoError(t, err)
	scenario.Factories = []string{"anvil"}

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to restrict catalog")
}

func TestSnapshot(t *testing.T) {
	data, err := Snapshot("steel", steelResult())
	require.NoError(t, err)
	assert.Equal(t,
		`{"plans":[{"cost":5,"feasible":true,"rank":0,"signature":"","steps":["smelt_steel_coal"]},`+
			`{"cost":8,"feasible":true,"rank":1,"signature":"","steps":["burn_charcoal","smelt_steel_charcoal"]}],`+
			`"query_id":"q-1","scenario_name":"steel","targets":["ID:steel_ingot"]}`,
		string(data))
}
