package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/forgeplan/internal/ir"
)

func writeScenario(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/steel_all.yaml")
	require.NoError(t, err)

	assert.Equal(t, "steel_all", s.Name)
	assert.Equal(t, "q-steel", s.QueryID)
	assert.Equal(t, filepath.Join("testdata", "catalogs", "workshop"), s.Catalog)
	assert.Equal(t, "steel_ingot", s.Query.Target.ID)
	assert.Len(t, s.Query.Available, 3)
	require.Len(t, s.Assertions, 6)
	assert.Equal(t, AssertPlanCount, s.Assertions[0].Type)
	require.NotNil(t, s.Assertions[0].Count)
	assert.Equal(t, 2, *s.Assertions[0].Count)
	assert.Equal(t, []int64{5, 8}, s.Assertions[2].Costs)
}

func TestLoadScenario_UnknownField(t *testing.T) {
	_, err := LoadScenario("testdata/bad/unknown_field.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
	assert.Contains(t, err.Error(), "assertion")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Validation(t *testing.T) {
	catalogDir, err := filepath.Abs("testdata/catalogs/workshop")
	require.NoError(t, err)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing name",
			body:    "description: d\ncatalog: " + catalogDir + "\nquery: {target: {id: a}}\nassertions: [{type: infeasible}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			body:    "name: n\ncatalog: " + catalogDir + "\nquery: {target: {id: a}}\nassertions: [{type: infeasible}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing catalog",
			body:    "name: n\ndescription: d\nquery: {target: {id: a}}\nassertions: [{type: infeasible}]\n",
			wantErr: "catalog is required",
		},
		{
			name:    "catalog not found",
			body:    "name: n\ndescription: d\ncatalog: nowhere\nquery: {target: {id: a}}\nassertions: [{type: infeasible}]\n",
			wantErr: "catalog directory not found",
		},
		{
			name:    "no target",
			body:    "name: n\ndescription: d\ncatalog: " + catalogDir + "\nquery: {}\nassertions: [{type: infeasible}]\n",
			wantErr: "query: target",
		},
		{
			name:    "two target fields",
			body:    "name: n\ndescription: d\ncatalog: " + catalogDir + "\nquery: {target: {id: a, any: true}}\nassertions: [{type: infeasible}]\n",
			wantErr: "exactly one of",
		},
		{
			name:    "bad mode",
			body:    "name: n\ndescription: d\ncatalog: " + catalogDir + "\nquery: {target: {id: a}, mode: fastest}\nassertions: [{type: infeasible}]\n",
			wantErr: "unknown mode",
		},
		{
			name:    "topk without k",
			body:    "name: n\ndescription: d\ncatalog: " + catalogDir + "\nquery: {target: {id: a}, mode: topk}\nassertions: [{type: infeasible}]\n",
			wantErr: "query",
		},
		{
			name:    "no assertions",
			body:    "name: n\ndescription: d\ncatalog: " + catalogDir + "\nquery: {target: {id: a}}\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown assertion",
			body:    "name: n\ndescription: d\ncatalog: " + catalogDir + "\nquery: {target: {id: a}}\nassertions: [{type: fastest}]\n",
			wantErr: `unknown assertion type "fastest"`,
		},
		{
			name:    "plan_count without count",
			body:    "name: n\ndescription: d\ncatalog: " + catalogDir + "\nquery: {target: {id: a}}\nassertions: [{type: plan_count}]\n",
			wantErr: "count is required for plan_count",
		},
		{
			name:    "best_cost without cost",
			body:    "name: n\ndescription: d\ncatalog: " + catalogDir + "\nquery: {target: {id: a}}\nassertions: [{type: best_cost}]\n",
			wantErr: "cost is required for best_cost",
		},
		{
			name:    "budget_exhausted without expect",
			body:    "name: n\ndescription: d\ncatalog: " + catalogDir + "\nquery: {target: {id: a}}\nassertions: [{type: budget_exhausted}]\n",
			wantErr: "expect is required for budget_exhausted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), tt.body)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "name: n\ndescription: d\nquery: {target: {id: steel_ingot}}\nassertions: [{type: infeasible}]\n")

	s, err := LoadScenarioWithBasePath(path, "testdata/catalogs/workshop")
	require.NoError(t, err)
	assert.Equal(t, "testdata/catalogs/workshop", s.Catalog)

	path = writeScenario(t, dir, "name: n\ndescription: d\ncatalog: workshop\nquery: {target: {id: steel_ingot}}\nassertions: [{type: infeasible}]\n")
	s, err = LoadScenarioWithBasePath(path, "testdata/catalogs")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "catalogs", "workshop"), s.Catalog)
}

func TestQuerySpecBuild(t *testing.T) {
	dedup := false
	q, err := QuerySpec{
		Target:      ir.MatcherLiteral{ID: "steel_ingot"},
		Mode:        "topk",
		K:           3,
		MaxDepth:    4,
		MaxPlans:    50,
		Deduplicate: &dedup,
		ExpandLimit: 7,
	}.Build()
	require.NoError(t, err)

	assert.Equal(t, "ID:steel_ingot", q.Target.Key())
	assert.NotNil(t, q.Available)
	assert.Empty(t, q.Available)
	assert.Equal(t, "topk(3)", q.Mode.String())
	assert.Equal(t, 4, q.Options.MaxDepth)
	assert.Equal(t, 50, q.Options.MaxPlans)
	assert.False(t, q.Options.Deduplicate)
	assert.Equal(t, 7, q.ExpandLimit)
}

func TestQuerySpecBuild_Defaults(t *testing.T) {
	q, err := QuerySpec{Target: ir.MatcherLiteral{ID: "steel_ingot"}}.Build()
	require.NoError(t, err)

	assert.Equal(t, "all", q.Mode.String())
	assert.Equal(t, 16, q.Options.MaxDepth)
	assert.Equal(t, 5000, q.Options.MaxPlans)
	assert.True(t, q.Options.Deduplicate)
	assert.Equal(t, 32, q.ExpandLimit)
}
