package harness

// PlanSummary is one ranked plan as read back from the query history.
type PlanSummary struct {
	Rank      int      `json:"rank"`
	Target    string   `json:"target"`
	Cost      int64    `json:"cost"`
	Feasible  bool     `json:"feasible"`
	Signature string   `json:"signature"`
	Steps     []string `json:"steps"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	QueryID string `json:"query_id"`

	// Targets are the matcher keys of the concrete targets searched.
	Targets []string `json:"targets"`

	// Plans are ranked ascending by cost.
	Plans []PlanSummary `json:"plans"`

	BudgetUsed int  `json:"budget_used"`
	Exhausted  bool `json:"exhausted"`

	// Warnings are non-fatal catalog validation findings.
	Warnings []string `json:"warnings,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Targets: []string{},
		Plans:   []PlanSummary{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Costs returns plan costs in rank order.
func (r *Result) Costs() []int64 {
	costs := make([]int64, len(r.Plans))
	for i, p := range r.Plans {
		costs[i] = p.Cost
	}
	return costs
}
