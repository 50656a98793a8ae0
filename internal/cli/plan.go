package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/forgeplan/internal/catalog"
	"github.com/roach88/forgeplan/internal/ir"
	"github.com/roach88/forgeplan/internal/planner"
	"github.com/roach88/forgeplan/internal/store"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Target      string
	Have        []string
	Mode        string
	K           int
	MaxDepth    int
	MaxPlans    int
	NoDedup     bool
	ExpandLimit int
	Factories   []string
	Record      bool
	Saved       bool
}

// StepView is one recipe application in a plan.
type StepView struct {
	Recipe   string `json:"recipe"`
	Cost     int64  `json:"cost"`
	Produces string `json:"produces"` // most specific output key
}

// PlanView is one ranked plan.
type PlanView struct {
	Rank      int             `json:"rank"`
	Target    string          `json:"target"`
	Cost      int64           `json:"cost"`
	Signature string          `json:"signature"`
	Digest    string          `json:"digest"`
	Steps     []StepView      `json:"steps"`
	Tree      json.RawMessage `json:"tree"`
}

// PlanOutput is the result of the plan command.
type PlanOutput struct {
	QueryID  string        `json:"query_id"`
	Catalog  string        `json:"catalog"`
	Target   string        `json:"target"`
	Targets  []string      `json:"targets"`
	Mode     string        `json:"mode"`
	Plans    []PlanView    `json:"plans"`
	Stats    planner.Stats `json:"stats"`
	Recorded bool          `json:"recorded"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <catalog-dir>",
		Short: "Find the cheapest ways to produce a target",
		Long: `Search the catalog for plans producing --target from the --have items.

Matchers use the shorthand id:x (or a bare id), any_of:A,B, all_of:A,B
and any. Category targets are expanded into the catalog items that carry
them; each concrete target is searched on its own and the results are
ranked together by total cost.

Modes:
  best  - the single cheapest plan found (default)
  topk  - up to --k plans
  all   - every plan within the budget

Unset bounds come from the configuration (planner.* keys).

Exit codes:
  0 - At least one plan found
  1 - Target is infeasible within the bounds
  2 - Command error (bad catalog, flags or database)

Examples:
  forgeplan plan ./catalogs/workshop --target steel_ingot --have iron_ingot --have coal
  forgeplan plan ./catalogs/workshop --target any_of:FUEL --have wood --mode all
  forgeplan plan workshop --saved --target steel_ingot --have any --mode topk --k 3 --record`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Target, "target", "t", "", "target matcher (required)")
	cmd.Flags().StringArrayVar(&opts.Have, "have", nil, "available matcher (repeatable)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "best", "result mode (best|topk|all)")
	cmd.Flags().IntVar(&opts.K, "k", 0, "number of plans for --mode topk (default planner.top_k)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "recursion bound (default planner.max_depth)")
	cmd.Flags().IntVar(&opts.MaxPlans, "max-plans", 0, "combination budget per target (default planner.max_plans)")
	cmd.Flags().BoolVar(&opts.NoDedup, "no-dedup", false, "keep structurally identical plans")
	cmd.Flags().IntVar(&opts.ExpandLimit, "expand-limit", 0, "maximum concrete targets for a category target (default planner.expand_limit)")
	cmd.Flags().StringArrayVar(&opts.Factories, "factory", nil, "only use recipes runnable in this factory (repeatable)")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "record the query in the history database")
	cmd.Flags().BoolVar(&opts.Saved, "saved", false, "treat the argument as a saved catalog name")

	return cmd
}

// buildQuery turns flags and configuration into a planner query.
func (o *PlanOptions) buildQuery() (planner.Query, error) {
	cfg := o.settings()

	target, err := ParseMatcher(o.Target)
	if err != nil {
		return planner.Query{}, fmt.Errorf("--target: %w", err)
	}
	available, err := ParseMatchers(o.Have)
	if err != nil {
		return planner.Query{}, fmt.Errorf("--have %w", err)
	}

	k := o.K
	if k == 0 {
		k = cfg.Planner.TopK
	}
	mode, err := planner.ParseMode(o.Mode, k)
	if err != nil {
		return planner.Query{}, err
	}

	opts := cfg.PlannerOptions()
	if o.MaxDepth != 0 {
		opts.MaxDepth = o.MaxDepth
	}
	if o.MaxPlans != 0 {
		opts.MaxPlans = o.MaxPlans
	}
	if o.NoDedup {
		opts.Deduplicate = false
	}
	limit := cfg.Planner.ExpandLimit
	if o.ExpandLimit != 0 {
		limit = o.ExpandLimit
	}

	return planner.Query{
		Target:      target,
		Available:   available,
		Options:     opts,
		Mode:        mode,
		ExpandLimit: limit,
	}, nil
}

func runPlan(opts *PlanOptions, ref string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	logger := opts.logger()

	query, err := opts.buildQuery()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidQuery, err.Error(), nil)
	}

	cat, err := openCatalog(ctx, opts.RootOptions, ref, opts.Saved)
	if err != nil {
		code, message := parseCompileError(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}
	if len(opts.Factories) > 0 {
		if cat, err = cat.ForFactories(opts.Factories...); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidQuery, err.Error(), nil)
		}
	}

	facade := planner.NewFacade(cat, planner.WithLogger(logger))
	res, err := facade.Plan(ctx, query)
	if err != nil {
		if planner.IsInvalidArgument(err) {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidQuery, err.Error(), nil)
		}
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	out, err := buildPlanOutput(cat, query, res)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	if opts.Record {
		if err := recordQuery(cmd, opts.RootOptions, cat, query, res); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
		}
		out.Recorded = true
		logger.Info("query recorded", "query_id", res.QueryID, "db", opts.settings().Store.Path)
	}

	return outputPlan(formatter, out)
}

func buildPlanOutput(cat *catalog.Catalog, q planner.Query, res *planner.Result) (*PlanOutput, error) {
	out := &PlanOutput{
		QueryID: res.QueryID,
		Catalog: cat.Name(),
		Target:  q.Target.Key(),
		Targets: ir.MatcherKeys(res.Targets),
		Mode:    q.Mode.String(),
		Plans:   make([]PlanView, 0, len(res.Plans)),
		Stats:   res.Stats,
	}
	for rank, p := range res.Plans {
		digest, err := ir.PlanDigest(p)
		if err != nil {
			return nil, fmt.Errorf("plan %d: %w", rank, err)
		}
		tree, err := ir.MarshalCanonical(p.ToIR())
		if err != nil {
			return nil, fmt.Errorf("plan %d: %w", rank, err)
		}
		view := PlanView{
			Rank:      rank,
			Target:    p.Target.Key(),
			Cost:      p.Cost,
			Signature: p.Signature(),
			Digest:    digest,
			Steps:     []StepView{},
			Tree:      tree,
		}
		for _, r := range p.Steps() {
			produced, _ := ir.MostSpecific(r.Outputs)
			view.Steps = append(view.Steps, StepView{Recipe: r.ID, Cost: r.Cost, Produces: produced.Key()})
		}
		out.Plans = append(out.Plans, view)
	}
	return out, nil
}

func recordQuery(cmd *cobra.Command, opts *RootOptions, cat *catalog.Catalog, q planner.Query, res *planner.Result) error {
	st, err := store.Open(opts.settings().Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	return st.RecordQuery(cmd.Context(), store.QueryRecord{
		ID:          res.QueryID,
		Catalog:     cat.Name(),
		Target:      q.Target,
		Targets:     res.Targets,
		Available:   q.Available,
		Mode:        q.Mode.String(),
		MaxDepth:    q.Options.MaxDepth,
		MaxPlans:    q.Options.MaxPlans,
		Deduplicate: q.Options.Deduplicate,
		BudgetUsed:  res.Stats.BudgetUsed,
	}, res.Plans)
}

func outputPlan(formatter *OutputFormatter, out *PlanOutput) error {
	infeasible := len(out.Plans) == 0
	message := fmt.Sprintf("no plan produces %s within the bounds", out.Target)

	if formatter.Format == "json" {
		response := CLIResponse{Status: "ok", Data: out, QueryID: out.QueryID}
		if infeasible {
			response.Status = "error"
			response.Error = &CLIError{Code: ErrCodeInfeasible, Message: message}
		}
		if err := json.NewEncoder(formatter.Writer).Encode(response); err != nil {
			return err
		}
	} else {
		writePlanText(formatter.Writer, out, formatter.Verbose)
	}

	if infeasible {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", ErrCodeInfeasible, message))
	}
	return nil
}

func writePlanText(w io.Writer, out *PlanOutput, verbose bool) {
	fmt.Fprintf(w, "Target %s in %s (mode %s, query %s)\n", out.Target, out.Catalog, out.Mode, out.QueryID)
	if len(out.Targets) != 1 || out.Targets[0] != out.Target {
		fmt.Fprintf(w, "  expanded to: %s\n", strings.Join(out.Targets, ", "))
	}
	fmt.Fprintln(w)

	if len(out.Plans) == 0 {
		fmt.Fprintf(w, "✗ No plan found\n")
	}
	for _, p := range out.Plans {
		fmt.Fprintf(w, "#%d cost %d → %s\n", p.Rank+1, p.Cost, p.Target)
		if len(p.Steps) == 0 {
			fmt.Fprintln(w, "   already available")
		}
		for i, s := range p.Steps {
			fmt.Fprintf(w, "   %d. %s (%d) → %s\n", i+1, s.Recipe, s.Cost, s.Produces)
		}
		if verbose {
			fmt.Fprintf(w, "   signature %s\n", p.Signature)
			fmt.Fprintf(w, "   digest    %s\n", p.Digest)
		}
	}

	fmt.Fprintf(w, "\n%d combination(s) examined", out.Stats.BudgetUsed)
	if out.Stats.Exhausted {
		fmt.Fprint(w, ", budget exhausted (results may be incomplete)")
	}
	fmt.Fprintln(w)
	if out.Recorded {
		fmt.Fprintf(w, "Recorded as %s\n", out.QueryID)
	}
}
