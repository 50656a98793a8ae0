package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/forgeplan/internal/ir"
	"github.com/roach88/forgeplan/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit   int
	Catalog string
	Target  string
	Mode    string
	MaxCost int64
}

// QueryDetail is one recorded query with its ranked plans.
type QueryDetail struct {
	Query store.QueryRecord  `json:"query"`
	Plans []store.StoredPlan `json:"plans"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [query-id]",
		Short: "Show recorded planning queries",
		Long: `List the queries recorded with plan --record, newest first, or show
one query and its ranked plans.

Filters combine: --catalog and --mode match the recorded values exactly
(modes are recorded as best, all or topk(k)), --target matches the
original target matcher and --max-cost keeps queries whose best plan
costs at most that much.

Examples:
  forgeplan history
  forgeplan history --limit 5
  forgeplan history --catalog workshop --target steel_ingot --max-cost 6
  forgeplan history 01920000-0000-7000-8000-000000000000 --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runHistoryShow(opts, args[0], cmd)
			}
			return runHistoryList(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum queries to list (0 for all)")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "only queries against this catalog")
	cmd.Flags().StringVar(&opts.Target, "target", "", "only queries for this target matcher")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "only queries run in this mode")
	cmd.Flags().Int64Var(&opts.MaxCost, "max-cost", -1, "only queries whose best plan costs at most this (-1 for any)")

	return cmd
}

func runHistoryList(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openHistory(opts.RootOptions)
	if err != nil {
		code, message := parseCompileError(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}
	defer st.Close()

	filter, err := opts.filter(cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidQuery, err.Error(), nil)
	}
	records, err := st.FindQueries(cmd.Context(), filter)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(records)
	}

	w := formatter.Writer
	if len(records) == 0 {
		fmt.Fprintln(w, "No recorded queries.")
		return nil
	}
	for _, rec := range records {
		fmt.Fprintf(w, "%4d  %s  %s  %s  mode=%s budget=%d\n",
			rec.Seq, rec.ID, rec.Catalog, rec.Target.Key(), rec.Mode, rec.BudgetUsed)
	}
	return nil
}

// filter turns the history flags into a store filter.
func (o *HistoryOptions) filter(cmd *cobra.Command) (store.QueryFilter, error) {
	f := store.QueryFilter{Catalog: o.Catalog, Mode: o.Mode, Limit: o.Limit}
	if o.Target != "" {
		target, err := ParseMatcher(o.Target)
		if err != nil {
			return store.QueryFilter{}, fmt.Errorf("--target: %w", err)
		}
		f.Target = target
	}
	if cmd.Flags().Changed("max-cost") {
		if o.MaxCost < 0 {
			return store.QueryFilter{}, fmt.Errorf("--max-cost must be >= 0, got %d", o.MaxCost)
		}
		f.MaxCost = &o.MaxCost
	}
	return f, nil
}

func runHistoryShow(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openHistory(opts.RootOptions)
	if err != nil {
		code, message := parseCompileError(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}
	defer st.Close()

	rec, plans, err := st.ReadQuery(cmd.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return formatter.Fail(ExitCommandError, ErrCodeQueryNotFound, fmt.Sprintf("no recorded query %q", id), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.SuccessWithQuery(rec.ID, QueryDetail{Query: rec, Plans: plans})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Query %s (#%d)\n", rec.ID, rec.Seq)
	fmt.Fprintf(w, "  catalog:   %s\n", rec.Catalog)
	fmt.Fprintf(w, "  target:    %s\n", rec.Target.Key())
	fmt.Fprintf(w, "  targets:   %s\n", strings.Join(ir.MatcherKeys(rec.Targets), ", "))
	fmt.Fprintf(w, "  available: %s\n", strings.Join(ir.MatcherKeys(rec.Available), ", "))
	fmt.Fprintf(w, "  mode:      %s (max_depth=%d max_plans=%d dedup=%t)\n", rec.Mode, rec.MaxDepth, rec.MaxPlans, rec.Deduplicate)
	fmt.Fprintf(w, "  budget:    %d\n", rec.BudgetUsed)
	fmt.Fprintln(w)
	if len(plans) == 0 {
		fmt.Fprintln(w, "✗ No plan was found")
	}
	for _, p := range plans {
		fmt.Fprintf(w, "#%d cost %d → %s: %s\n", p.Rank+1, p.Cost, p.Target, strings.Join(p.Steps, " → "))
		if formatter.Verbose {
			fmt.Fprintf(w, "   digest %s\n", p.Digest)
		}
	}
	return nil
}

// NewCatalogsCommand creates the catalogs command.
func NewCatalogsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalogs",
		Short: "List catalogs saved with compile --save",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			st, err := openHistory(rootOpts)
			if err != nil {
				code, message := parseCompileError(err)
				return formatter.Fail(ExitCommandError, code, message, nil)
			}
			defer st.Close()

			infos, err := st.ListCatalogs(cmd.Context())
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
			}
			if formatter.Format == "json" {
				return formatter.Success(infos)
			}
			if len(infos) == 0 {
				fmt.Fprintln(formatter.Writer, "No saved catalogs.")
			}
			for _, info := range infos {
				fmt.Fprintf(formatter.Writer, "%s  items=%d factories=%d recipes=%d  %s\n",
					info.Name, info.Items, info.Factories, info.Recipes, info.Digest)
			}
			return nil
		},
	}
}
