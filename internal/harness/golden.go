package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/forgeplan/internal/ir"
)

// Snapshot renders the deterministic part of a result as canonical JSON:
// scenario name, query id, concrete targets, and per plan its rank, cost,
// feasibility, signature and steps. Digests are left out so a golden file
// survives a hash domain change.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	targets := make(ir.IRArray, len(result.Targets))
	for i, t := range result.Targets {
		targets[i] = ir.IRString(t)
	}

	plans := make(ir.IRArray, len(result.Plans))
	for i, p := range result.Plans {
		steps := make(ir.IRArray, len(p.Steps))
		for j, s := range p.Steps {
			steps[j] = ir.IRString(s)
		}
		plans[i] = ir.IRObject{
			"rank":      ir.IRInt(p.Rank),
			"cost":      ir.IRInt(p.Cost),
			"feasible":  ir.IRBool(p.Feasible),
			"signature": ir.IRString(p.Signature),
			"steps":     steps,
		}
	}

	return ir.MarshalCanonical(ir.IRObject{
		"scenario_name": ir.IRString(scenarioName),
		"query_id":      ir.IRString(result.QueryID),
		"targets":       targets,
		"plans":         plans,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
