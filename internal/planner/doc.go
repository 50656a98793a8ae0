// Package planner finds production plans: ways of obtaining a target item
// from available items by chaining catalog recipes.
//
// The search is an AND/OR problem. A recipe needs every input (AND) and any
// of several recipes may produce a target (OR). The package is layered:
//
//   - Expand turns a category matcher into concrete identity targets.
//   - Solver runs the recursive search for one target.
//   - Facade expands, solves each concrete target with independent state,
//     then merges, deduplicates and ranks the results.
//
// Termination is guaranteed by three mechanisms:
//   - the depth bound (Options.MaxDepth) caps recursion
//   - the visiting set cuts cycles such as "A needs B, B needs A"
//   - the budget (Options.MaxPlans) caps combinations materialised per search
//
// None of these is an error. Infeasible targets, cycles and exhausted budgets
// all produce ordinary, possibly empty, plan lists. Errors are reserved for
// invalid arguments, which are rejected before any search work starts, and
// for context cancellation.
//
// Search state (memo table, visiting set, budget) is created per top-level
// call and dropped at its end. It is never shared between queries, so results
// for one mode can never leak into another.
package planner
