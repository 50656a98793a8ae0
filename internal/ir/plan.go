package ir

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

// MaxCost is the cost of an infeasible plan. Cost sums saturate here so an
// infeasible plan always sorts after every feasible one.
const MaxCost int64 = math.MaxInt64

// leafMarker stands in for the recipe id of an "already available" node.
const leafMarker = "AVAILABLE"

// PlanNode is one node of a plan tree.
//
// Recipe == nil marks a leaf: the target is already available. Otherwise the
// node applies Recipe and Children holds one sub-plan per recipe input, in
// input order. Nodes are immutable once built; the solver shares subtrees
// between sibling plans.
type PlanNode struct {
	Target   Matcher
	Recipe   *Recipe
	Cost     int64
	Children []*PlanNode

	signature string
}

// Leaf returns a zero-cost "already available" node.
func Leaf(target Matcher) *PlanNode {
	n := &PlanNode{Target: target}
	n.signature = n.computeSignature()
	return n
}

// Derive returns a node applying r to obtain target from children.
// Its cost is r.Cost plus the children's costs, saturating at MaxCost.
func Derive(target Matcher, r *Recipe, children []*PlanNode) *PlanNode {
	cost := r.Cost
	for _, c := range children {
		cost = addCost(cost, c.Cost)
	}
	n := &PlanNode{Target: target, Recipe: r, Cost: cost, Children: children}
	n.signature = n.computeSignature()
	return n
}

func addCost(a, b int64) int64 {
	if a > MaxCost-b {
		return MaxCost
	}
	return a + b
}

// IsLeaf reports whether the node is an "already available" leaf.
func (n *PlanNode) IsLeaf() bool { return n.Recipe == nil }

// TotalCost returns the node's accumulated cost.
func (n *PlanNode) TotalCost() int64 { return n.Cost }

// Signature is the structural identity of the subtree: depth-first, each
// node contributes "<target key><-<recipe id or AVAILABLE>|".
func (n *PlanNode) Signature() string {
	if n.signature == "" {
		return n.computeSignature()
	}
	return n.signature
}

func (n *PlanNode) computeSignature() string {
	var b strings.Builder
	b.WriteString(n.Target.Key())
	b.WriteString("<-")
	if n.Recipe == nil {
		b.WriteString(leafMarker)
	} else {
		b.WriteString(n.Recipe.ID)
	}
	b.WriteByte('|')
	for _, c := range n.Children {
		b.WriteString(c.Signature())
	}
	return b.String()
}

// appendSteps appends recipe ids in post-order: every input is produced
// before the recipe that consumes it.
func (n *PlanNode) appendSteps(steps []*Recipe) []*Recipe {
	for _, c := range n.Children {
		steps = c.appendSteps(steps)
	}
	if n.Recipe != nil {
		steps = append(steps, n.Recipe)
	}
	return steps
}

// ToIR returns the node as an IR object for canonical serialisation.
func (n *PlanNode) ToIR() IRObject {
	obj := IRObject{
		"target": IRString(n.Target.Key()),
		"cost":   IRInt(n.Cost),
	}
	if n.Recipe == nil {
		obj["available"] = IRBool(true)
		return obj
	}
	obj["recipe"] = IRString(n.Recipe.ID)
	children := make(IRArray, len(n.Children))
	for i, c := range n.Children {
		children[i] = c.ToIR()
	}
	obj["children"] = children
	return obj
}

// Plan is one way to obtain Target. Infeasible plans are explicit sentinels
// (Feasible false, Cost MaxCost, Root nil) so cost comparisons stay total.
type Plan struct {
	Target   Matcher
	Root     *PlanNode
	Cost     int64
	Feasible bool
}

// NewPlan wraps a solved tree.
func NewPlan(root *PlanNode) Plan {
	return Plan{Target: root.Target, Root: root, Cost: root.Cost, Feasible: true}
}

// Infeasible returns the sentinel plan for target.
func Infeasible(target Matcher) Plan {
	return Plan{Target: target, Cost: MaxCost}
}

// TotalCost returns the plan cost.
func (p Plan) TotalCost() int64 { return p.Cost }

// Signature returns the structural signature of the plan tree.
// An infeasible plan has the signature "<target key><-INFEASIBLE|".
func (p Plan) Signature() string {
	if p.Root == nil {
		return p.Target.Key() + "<-INFEASIBLE|"
	}
	return p.Root.Signature()
}

// Steps returns the step-sequence form: recipes in a topologically valid
// application order. Leaves contribute nothing.
func (p Plan) Steps() []*Recipe {
	if p.Root == nil {
		return nil
	}
	return p.Root.appendSteps(nil)
}

// StepIDs returns the ids of Steps.
func (p Plan) StepIDs() []string {
	steps := p.Steps()
	ids := make([]string, len(steps))
	for i, r := range steps {
		ids[i] = r.ID
	}
	return ids
}

// StepSignature renders the step sequence as "id->id->".
func (p Plan) StepSignature() string {
	var b strings.Builder
	for _, id := range p.StepIDs() {
		b.WriteString(id)
		b.WriteString("->")
	}
	return b.String()
}

// ToIR returns the plan as an IR object for canonical serialisation.
func (p Plan) ToIR() IRObject {
	steps := p.StepIDs()
	stepValues := make(IRArray, len(steps))
	for i, id := range steps {
		stepValues[i] = IRString(id)
	}
	obj := IRObject{
		"target":    IRString(p.Target.Key()),
		"cost":      IRInt(p.Cost),
		"feasible":  IRBool(p.Feasible),
		"signature": IRString(p.Signature()),
		"steps":     stepValues,
	}
	if p.Root != nil {
		obj["tree"] = p.Root.ToIR()
	}
	return obj
}

// Ranked is anything ordered by cost and identified by a structural
// signature. Both Plan and *PlanNode qualify.
type Ranked interface {
	TotalCost() int64
	Signature() string
}

// SortByCost sorts ascending by cost. The sort is stable: equal-cost entries
// keep their discovery order, which keeps results deterministic.
func SortByCost[T Ranked](xs []T) {
	slices.SortStableFunc(xs, func(a, b T) int {
		return cmp.Compare(a.TotalCost(), b.TotalCost())
	})
}

// DedupBySignature keeps the first entry per signature, preserving order.
// The input slice is not modified.
func DedupBySignature[T Ranked](xs []T) []T {
	seen := make(map[string]struct{}, len(xs))
	out := make([]T, 0, len(xs))
	for _, x := range xs {
		sig := x.Signature()
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		out = append(out, x)
	}
	return out
}
