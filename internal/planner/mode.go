package planner

import (
	"fmt"
	"strings"
)

type modeKind int

const (
	modeUnset modeKind = iota
	modeBestOnly
	modeTopK
	modeAll
)

// Mode selects the result shape and the pruning applied during search.
type Mode struct {
	kind modeKind
	k    int
}

// BestOnly returns at most one plan, the cheapest found.
func BestOnly() Mode { return Mode{kind: modeBestOnly, k: 1} }

// TopK returns up to k plans in ascending cost order.
func TopK(k int) Mode { return Mode{kind: modeTopK, k: k} }

// All returns every plan enumerated within the budget.
func All() Mode { return Mode{kind: modeAll} }

// ParseMode maps a mode name ("best", "topk", "all") to a Mode.
// k is used only for "topk".
func ParseMode(name string, k int) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "best", "best_only", "bestonly":
		return BestOnly(), nil
	case "topk", "top_k", "top-k":
		m := TopK(k)
		return m, m.Validate()
	case "all":
		return All(), nil
	default:
		return Mode{}, &QueryError{
			Code:    ErrCodeInvalidMode,
			Field:   "mode",
			Message: fmt.Sprintf("unknown mode %q (want best, topk or all)", name),
		}
	}
}

// Validate rejects the zero Mode and non-positive k.
func (m Mode) Validate() error {
	switch m.kind {
	case modeBestOnly, modeAll:
		return nil
	case modeTopK:
		if m.k <= 0 {
			return boundError("k", m.k)
		}
		return nil
	default:
		return &QueryError{Code: ErrCodeInvalidMode, Field: "mode", Message: "mode is not set"}
	}
}

// Limit is the maximum number of plans the mode returns, 0 for unbounded.
// Bounded modes also trim every sub-plan list to this many entries.
func (m Mode) Limit() int {
	switch m.kind {
	case modeBestOnly:
		return 1
	case modeTopK:
		return m.k
	default:
		return 0
	}
}

// IsBestOnly reports whether m stops at the first contributing recipe.
func (m Mode) IsBestOnly() bool { return m.kind == modeBestOnly }

// String returns the mode name, with k for TopK.
func (m Mode) String() string {
	switch m.kind {
	case modeBestOnly:
		return "best"
	case modeTopK:
		return fmt.Sprintf("topk(%d)", m.k)
	case modeAll:
		return "all"
	default:
		return "unset"
	}
}

// truncate keeps the first Limit entries of an ascending list.
func truncate[T any](xs []T, m Mode) []T {
	if limit := m.Limit(); limit > 0 && len(xs) > limit {
		return xs[:limit:limit]
	}
	return xs
}
