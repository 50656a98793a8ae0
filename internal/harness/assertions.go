package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the ranked plans to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Plans    []PlanSummary // Ranked plans for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nPlans:\n")
	if len(e.Plans) == 0 {
		fmt.Fprintf(&buf, "  (none)\n")
	}
	for _, p := range e.Plans {
		fmt.Fprintf(&buf, "  [%d] cost=%d %s\n", p.Rank, p.Cost, strings.Join(p.Steps, " -> "))
	}

	return buf.String()
}

func assertPlanCount(result *Result, a Assertion) error {
	if len(result.Plans) == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertPlanCount,
		Expected: fmt.Sprintf("%d plans", *a.Count),
		Actual:   fmt.Sprintf("%d plans", len(result.Plans)),
		Plans:    result.Plans,
	}
}

func assertBestCost(result *Result, a Assertion) error {
	if len(result.Plans) == 0 {
		return &AssertionError{
			Type:     AssertBestCost,
			Expected: fmt.Sprintf("best cost %d", *a.Cost),
			Actual:   "no plans",
		}
	}
	if best := result.Plans[0].Cost; best != *a.Cost {
		return &AssertionError{
			Type:     AssertBestCost,
			Expected: fmt.Sprintf("best cost %d", *a.Cost),
			Actual:   fmt.Sprintf("best cost %d", best),
			Plans:    result.Plans,
		}
	}
	return nil
}

func assertCosts(result *Result, a Assertion) error {
	costs := result.Costs()
	if slices.Equal(costs, a.Costs) {
		return nil
	}
	return &AssertionError{
		Type:     AssertCosts,
		Expected: fmt.Sprintf("costs %v", a.Costs),
		Actual:   fmt.Sprintf("costs %v", costs),
		Plans:    result.Plans,
	}
}

// assertContainsSteps checks that at least one plan applies exactly the
// given recipes in the given order.
func assertContainsSteps(result *Result, a Assertion) error {
	for _, p := range result.Plans {
		if slices.Equal(p.Steps, a.Steps) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertContainsSteps,
		Expected: fmt.Sprintf("a plan with steps %s", strings.Join(a.Steps, " -> ")),
		Actual:   "no plan with that step sequence",
		Plans:    result.Plans,
	}
}

func assertTargets(result *Result, a Assertion) error {
	if slices.Equal(result.Targets, a.Targets) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTargets,
		Expected: fmt.Sprintf("targets %v", a.Targets),
		Actual:   fmt.Sprintf("targets %v", result.Targets),
		Plans:    result.Plans,
	}
}

func assertInfeasible(result *Result) error {
	if len(result.Plans) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertInfeasible,
		Expected: "no plans",
		Actual:   fmt.Sprintf("%d plans", len(result.Plans)),
		Plans:    result.Plans,
	}
}

func assertBudgetExhausted(result *Result, a Assertion) error {
	if result.Exhausted == *a.Expect {
		return nil
	}
	return &AssertionError{
		Type:     AssertBudgetExhausted,
		Expected: fmt.Sprintf("exhausted=%t", *a.Expect),
		Actual:   fmt.Sprintf("exhausted=%t after %d combinations", result.Exhausted, result.BudgetUsed),
		Plans:    result.Plans,
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		if err := validateAssertion(i, assertion); err != nil {
			errors = append(errors, err.Error())
			continue
		}

		var err error
		switch assertion.Type {
		case AssertPlanCount:
			err = assertPlanCount(result, assertion)
		case AssertBestCost:
			err = assertBestCost(result, assertion)
		case AssertCosts:
			err = assertCosts(result, assertion)
		case AssertContainsSteps:
			err = assertContainsSteps(result, assertion)
		case AssertTargets:
			err = assertTargets(result, assertion)
		case AssertInfeasible:
			err = assertInfeasible(result)
		case AssertBudgetExhausted:
			err = assertBudgetExhausted(result, assertion)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
