// Package ir provides the canonical data model for forgeplan.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps IR the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere - costs are int64 and additive across a plan
//   - Matcher keys are NFC normalised and injective per (kind, payload)
//   - Infeasible plans are an explicit sentinel (MaxCost), never nil
//   - Plan trees are immutable once built; subtrees may be shared between plans
//   - All JSON tags use snake_case
package ir
