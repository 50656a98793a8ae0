// Package harness provides conformance testing for forgeplan catalogs.
//
// A scenario names a CUE catalog directory, one planning query and a list of
// assertions on the ranked plans the query returns.
//
// # Scenario Format
//
//	name: steel_all
//	description: "Every way to make steel from iron, coal and wood"
//	catalog: ../catalogs/workshop
//	factories: [furnace, kiln]
//	query:
//	  target: {id: steel_ingot}
//	  available:
//	    - {id: iron_ingot}
//	    - {any_of: [FUEL]}
//	  mode: topk
//	  k: 3
//	  max_depth: 8
//	  max_plans: 100
//	  deduplicate: true
//	  expand_limit: 16
//	assertions:
//	  - type: best_cost
//	    cost: 5
//	  - type: contains_steps
//	    steps: [burn_charcoal, smelt_steel_charcoal]
//
// Unknown fields are rejected. Zero query bounds fall back to the planner
// defaults and the mode defaults to all.
//
// # Assertion Types
//
//   - plan_count: exactly count plans were returned
//   - best_cost: the cheapest plan costs cost
//   - costs: plan costs in rank order
//   - contains_steps: some plan has exactly these steps
//   - targets: the concrete targets searched, as matcher keys
//   - infeasible: no plan was returned
//   - budget_exhausted: whether the combination budget ran out
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory store with a fixed query id
// (scenario.query_id or "test-query-default"). Plans are recorded in the
// query history and read back before assertions run, so golden snapshots
// reflect exactly what a recorded query contains.
package harness
