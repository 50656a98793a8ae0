package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/forgeplan/internal/ir"
	"github.com/roach88/forgeplan/internal/planner"
)

// Scenario defines a planning conformance scenario: one query against one
// catalog, plus assertions on the ranked plans it returns.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is the directory of CUE catalog files.
	// Relative paths are resolved against the scenario's base path.
	Catalog string `yaml:"catalog,omitempty"`

	// Factories restricts the catalog to recipes runnable in these factories.
	Factories []string `yaml:"factories,omitempty"`

	// Query is the planning request.
	Query QuerySpec `yaml:"query"`

	// Assertions validate the ranked plans.
	Assertions []Assertion `yaml:"assertions"`

	// QueryID is an optional fixed query id for deterministic output.
	// If empty, defaults to "test-query-default".
	QueryID string `yaml:"query_id,omitempty"`
}

// QuerySpec is the declarative form of a planner query.
// Zero bounds fall back to the planner defaults.
type QuerySpec struct {
	Target      ir.MatcherLiteral   `yaml:"target"`
	Available   []ir.MatcherLiteral `yaml:"available,omitempty"`
	Mode        string              `yaml:"mode,omitempty"` // best, topk or all; default all
	K           int                 `yaml:"k,omitempty"`
	MaxDepth    int                 `yaml:"max_depth,omitempty"`
	MaxPlans    int                 `yaml:"max_plans,omitempty"`
	Deduplicate *bool               `yaml:"deduplicate,omitempty"`
	ExpandLimit int                 `yaml:"expand_limit,omitempty"`
}

// Build converts the scenario query into a planner query.
func (q QuerySpec) Build() (planner.Query, error) {
	target, err := q.Target.Matcher()
	if err != nil {
		return planner.Query{}, fmt.Errorf("target: %w", err)
	}
	available := make([]ir.Matcher, len(q.Available))
	for i, lit := range q.Available {
		if available[i], err = lit.Matcher(); err != nil {
			return planner.Query{}, fmt.Errorf("available[%d]: %w", i, err)
		}
	}

	modeName := q.Mode
	if modeName == "" {
		modeName = "all"
	}
	mode, err := planner.ParseMode(modeName, q.K)
	if err != nil {
		return planner.Query{}, err
	}

	opts := planner.DefaultOptions()
	if q.MaxDepth != 0 {
		opts.MaxDepth = q.MaxDepth
	}
	if q.MaxPlans != 0 {
		opts.MaxPlans = q.MaxPlans
	}
	if q.Deduplicate != nil {
		opts.Deduplicate = *q.Deduplicate
	}
	limit := planner.DefaultExpandLimit
	if q.ExpandLimit != 0 {
		limit = q.ExpandLimit
	}

	return planner.Query{
		Target:      target,
		Available:   available,
		Options:     opts,
		Mode:        mode,
		ExpandLimit: limit,
	}, nil
}

// Assertion validates the ranked plans of a scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "plan_count": exactly Count plans were returned
	// - "best_cost": the cheapest plan costs Cost
	// - "costs": plan costs, in rank order, equal Costs
	// - "contains_steps": some plan has exactly Steps as its step sequence
	// - "targets": the concrete targets searched equal Targets (matcher keys)
	// - "infeasible": no plan was returned
	// - "budget_exhausted": the search budget ran out iff Expect
	Type string `yaml:"type"`

	Count   *int     `yaml:"count,omitempty"`
	Cost    *int64   `yaml:"cost,omitempty"`
	Costs   []int64  `yaml:"costs,omitempty"`
	Steps   []string `yaml:"steps,omitempty"`
	Targets []string `yaml:"targets,omitempty"`
	Expect  *bool    `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertPlanCount       = "plan_count"
	AssertBestCost        = "best_cost"
	AssertCosts           = "costs"
	AssertContainsSteps   = "contains_steps"
	AssertTargets         = "targets"
	AssertInfeasible      = "infeasible"
	AssertBudgetExhausted = "budget_exhausted"
)

// LoadScenario reads and parses a scenario YAML file, resolving the catalog
// path relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	scenario, err := decodeScenario(path)
	if err != nil {
		return nil, err
	}
	if scenario.Catalog == "" {
		return nil, fmt.Errorf("invalid scenario: catalog is required")
	}
	if !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the catalog path relative to basePath. A scenario without a
// catalog uses basePath itself.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	scenario, err := decodeScenario(path)
	if err != nil {
		return nil, err
	}
	switch {
	case scenario.Catalog == "":
		scenario.Catalog = basePath
	case !filepath.IsAbs(scenario.Catalog) && basePath != "":
		scenario.Catalog = filepath.Join(basePath, scenario.Catalog)
	}
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

func decodeScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}
	if _, err := os.Stat(s.Catalog); os.IsNotExist(err) {
		return fmt.Errorf("catalog directory not found: %s", s.Catalog)
	}
	if _, err := s.Query.Build(); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertPlanCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for plan_count", index)
		}
	case AssertBestCost:
		if a.Cost == nil {
			return fmt.Errorf("assertions[%d]: cost is required for best_cost", index)
		}
	case AssertCosts:
		if a.Costs == nil {
			return fmt.Errorf("assertions[%d]: costs list is required for costs", index)
		}
	case AssertContainsSteps:
		if len(a.Steps) == 0 {
			return fmt.Errorf("assertions[%d]: steps list is required for contains_steps", index)
		}
	case AssertTargets:
		if a.Targets == nil {
			return fmt.Errorf("assertions[%d]: targets list is required for targets", index)
		}
	case AssertInfeasible:
	case AssertBudgetExhausted:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for budget_exhausted", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
