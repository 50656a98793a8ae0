package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/forgeplan/internal/ir"
	"github.com/roach88/forgeplan/internal/planner"
)

// ExpandOptions holds flags for the expand command.
type ExpandOptions struct {
	*RootOptions
	Target string
	Limit  int
	Saved  bool
}

// ExpandOutput lists the concrete targets of a matcher.
type ExpandOutput struct {
	Target  string   `json:"target"`
	Targets []string `json:"targets"`
	Limit   int      `json:"limit"`
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpandOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "expand <catalog-dir>",
		Short: "List the concrete targets a matcher expands to",
		Long: `Show how plan would expand --target before searching.

Identity and any matchers expand to themselves. any_of:A,B lists the
catalog items carrying A or B, all_of:A,B the items carrying both, in
catalog order and at most --limit of them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Target, "target", "t", "", "matcher to expand (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum concrete targets (default planner.expand_limit)")
	cmd.Flags().BoolVar(&opts.Saved, "saved", false, "treat the argument as a saved catalog name")

	return cmd
}

func runExpand(opts *ExpandOptions, ref string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	target, err := ParseMatcher(opts.Target)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidQuery, fmt.Sprintf("--target: %v", err), nil)
	}
	limit := opts.Limit
	if limit == 0 {
		limit = opts.settings().Planner.ExpandLimit
	}

	cat, err := openCatalog(cmd.Context(), opts.RootOptions, ref, opts.Saved)
	if err != nil {
		code, message := parseCompileError(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	targets, err := planner.Expand(target, cat, limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidQuery, err.Error(), nil)
	}

	out := ExpandOutput{Target: target.Key(), Targets: ir.MatcherKeys(targets), Limit: limit}
	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s expands to %d target(s)\n", out.Target, len(out.Targets))
	for _, t := range targets {
		fmt.Fprintf(w, "  %s\n", t.Label())
	}
	if len(out.Targets) == limit {
		fmt.Fprintf(w, "(limit %d reached)\n", limit)
	}
	return nil
}
