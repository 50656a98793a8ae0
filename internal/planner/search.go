package planner

import (
	"github.com/roach88/forgeplan/internal/ir"
)

// resolve returns the plans for target at depth, cheapest first.
// An empty result means infeasible within the bounds; it is never an error.
func (s *searchState) resolve(target ir.Matcher, depth int) []*ir.PlanNode {
	if s.stopped() {
		return nil
	}
	if depth > s.opts.MaxDepth {
		return nil
	}
	if ir.AvailableCovers(s.available, target) {
		return []*ir.PlanNode{ir.Leaf(target)}
	}
	return s.derive(target, depth)
}

// derive builds every recipe-based plan for target at depth. It skips the
// availability check, which lets the top level offer recipe alternatives for
// targets that are already available.
func (s *searchState) derive(target ir.Matcher, depth int) []*ir.PlanNode {
	key := memoKey{target: target.Key(), depth: depth}
	if cached, ok := s.memo[key]; ok {
		return cached
	}
	// A cut cycle is not cached: the same target may resolve on another path.
	if !s.enter(key.target) {
		s.cyclesCut++
		return nil
	}

	var candidates []*ir.PlanNode
	for _, r := range s.catalog.RecipesProducing(target) {
		if s.stopped() {
			break
		}
		inputs, ok := s.resolveInputs(r, depth)
		if !ok {
			continue
		}
		before := len(candidates)
		candidates = s.combine(candidates, target, r, inputs)
		ir.SortByCost(candidates)
		candidates = truncate(candidates, s.mode)
		if s.mode.IsBestOnly() && len(candidates) > before {
			break
		}
	}

	s.leave(key.target)

	if s.opts.Deduplicate {
		candidates = ir.DedupBySignature(candidates)
	}
	if candidates == nil {
		candidates = []*ir.PlanNode{}
	}
	s.memo[key] = candidates
	return candidates
}

// resolveInputs solves every input of r one level deeper. It reports false
// as soon as one input is infeasible, which makes r unusable here.
func (s *searchState) resolveInputs(r *ir.Recipe, depth int) ([][]*ir.PlanNode, bool) {
	inputs := make([][]*ir.PlanNode, len(r.Inputs))
	for i, in := range r.Inputs {
		sub := s.resolve(in, depth+1)
		if len(sub) == 0 {
			return nil, false
		}
		inputs[i] = truncate(sub, s.mode)
	}
	return inputs, true
}

// combine appends one plan per element of the cartesian product of inputs,
// the last input varying fastest. Each combination costs one budget unit and
// enumeration stops the moment the budget runs out.
func (s *searchState) combine(out []*ir.PlanNode, target ir.Matcher, r *ir.Recipe, inputs [][]*ir.PlanNode) []*ir.PlanNode {
	if len(inputs) == 0 {
		if !s.take() {
			return out
		}
		return append(out, ir.Derive(target, r, nil))
	}

	idx := make([]int, len(inputs))
	for {
		if !s.take() {
			return out
		}
		children := make([]*ir.PlanNode, len(inputs))
		for i, j := range idx {
			children[i] = inputs[i][j]
		}
		out = append(out, ir.Derive(target, r, children))

		pos := len(idx) - 1
		for ; pos >= 0; pos-- {
			idx[pos]++
			if idx[pos] < len(inputs[pos]) {
				break
			}
			idx[pos] = 0
		}
		if pos < 0 {
			return out
		}
	}
}
