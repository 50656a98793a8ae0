package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/forgeplan/internal/compiler"
	"github.com/roach88/forgeplan/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.ValidationError `json:"warnings,omitempty"`
	Cycles   []compiler.CycleWarning    `json:"cycles,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <catalog-dir>",
		Short: "Validate a catalog without planning",
		Long: `Validate the CUE catalog in <catalog-dir>.

Reports structural errors (blank ids, negative costs, recipes without
outputs, duplicate ids, unknown factories) and warnings (references to
undeclared items or categories). Recipe cycles are reported as
information: the planner cuts them, but they often point at a typo.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, catalogDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, err := LoadCatalog(catalogDir)
	if err != nil {
		code, message := parseCompileError(err)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, catalogDir)

	result := ValidateSpec(loadResult.Spec)
	opts.logger().Debug("catalog validated",
		"catalog", loadResult.Spec.Name,
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
		"cycles", len(result.Cycles))

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// ValidateSpec runs structural validation and cycle analysis.
// Only errors make the catalog invalid.
func ValidateSpec(spec *ir.CatalogSpec) ValidationResult {
	result := ValidationResult{Valid: true}
	for _, issue := range compiler.Validate(spec) {
		if issue.IsWarning() {
			result.Warnings = append(result.Warnings, issue)
			continue
		}
		result.Errors = append(result.Errors, issue)
		result.Valid = false
	}
	result.Cycles = compiler.AnalyzeCycles(spec)
	return result
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✓ Catalog valid")
	printFindings(formatter, result)
	return nil
}

func printFindings(formatter *OutputFormatter, result ValidationResult) {
	w := formatter.Writer
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  warning %s: %s: %s\n", warning.Code, warning.Field, warning.Message)
	}
	for _, cycle := range result.Cycles {
		fmt.Fprintf(w, "  %s: %s\n", cycle.Level, cycle.Message)
	}
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", err.Code, err.Field, err.Message)
	}
	printFindings(formatter, result)

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
