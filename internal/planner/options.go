package planner

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/forgeplan/internal/ir"
)

// Safe defaults for interactive queries.
const (
	DefaultMaxDepth    = 16
	DefaultMaxPlans    = 5000
	DefaultExpandLimit = 32
)

// Options are the search bounds shared by every mode.
type Options struct {
	// MaxDepth bounds recursion. The target is at depth 0.
	MaxDepth int `json:"max_depth"`

	// MaxPlans caps the number of combinations materialised per search.
	MaxPlans int `json:"max_plans"`

	// Deduplicate collapses structurally identical plans.
	Deduplicate bool `json:"deduplicate"`
}

// DefaultOptions returns depth 16, 5000 plans, deduplication on.
func DefaultOptions() Options {
	return Options{
		MaxDepth:    DefaultMaxDepth,
		MaxPlans:    DefaultMaxPlans,
		Deduplicate: true,
	}
}

// Validate rejects non-positive bounds.
func (o Options) Validate() error {
	if o.MaxDepth <= 0 {
		return boundError("max_depth", o.MaxDepth)
	}
	if o.MaxPlans <= 0 {
		return boundError("max_plans", o.MaxPlans)
	}
	return nil
}

func validateQuery(target ir.Matcher, available []ir.Matcher, opts Options, mode Mode) error {
	if target.IsZero() {
		return &QueryError{Code: ErrCodeInvalidTarget, Field: "target", Message: "target matcher is required"}
	}
	if available == nil {
		return &QueryError{Code: ErrCodeInvalidAvailable, Field: "available", Message: "available collection is required (use an empty slice for none)"}
	}
	for i, a := range available {
		if a.IsZero() {
			return &QueryError{Code: ErrCodeInvalidAvailable, Field: "available", Message: fmt.Sprintf("entry %d is unset", i)}
		}
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	return mode.Validate()
}

// Option configures a Solver or Facade.
type Option func(*settings)

type settings struct {
	logger *slog.Logger
	ids    QueryIDGenerator
}

func defaultSettings() settings {
	return settings{logger: slog.New(slog.NewTextHandler(io.Discard, nil)), ids: UUIDv7Generator{}}
}

// WithLogger sets the logger for query-level debug records.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator sets the query id source. Tests use FixedGenerator.
func WithIDGenerator(g QueryIDGenerator) Option {
	return func(s *settings) {
		if g != nil {
			s.ids = g
		}
	}
}
