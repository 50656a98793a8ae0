package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/forgeplan/internal/catalog"
	"github.com/roach88/forgeplan/internal/compiler"
	"github.com/roach88/forgeplan/internal/ir"
	"github.com/roach88/forgeplan/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	Save   bool   // save the catalog into the history database
}

// CompilationResult is the compiled catalog with its content digest.
type CompilationResult struct {
	Catalog ir.CatalogSpec `json:"catalog"`
	Digest  string         `json:"digest"`
	Stats   catalog.Stats  `json:"stats"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <catalog-dir>",
		Short: "Compile a CUE catalog to canonical IR",
		Long: `Compile the CUE items, factories and recipes in <catalog-dir>.

The catalog is validated, indexed and summarised. With --output the
compiled catalog is written as JSON; with --save it is stored in the
history database under the directory name, so plan --saved can use it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "save the catalog into the history database")

	return cmd
}

func runCompile(opts *CompileOptions, catalogDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.logger()

	loadResult, err := LoadCatalog(catalogDir)
	if err != nil {
		return outputCompileErrors(formatter, []error{err})
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, catalogDir)

	issues := compiler.Validate(loadResult.Spec)
	if compiler.HasErrors(issues) {
		errs := make([]error, 0, len(issues))
		for _, issue := range issues {
			if !issue.IsWarning() {
				errs = append(errs, issue)
			}
		}
		return outputCompileErrors(formatter, errs)
	}
	for _, issue := range issues {
		logger.Warn("catalog validation warning", "code", issue.Code, "field", issue.Field, "message", issue.Message)
	}

	cat, err := catalog.FromSpec(*loadResult.Spec)
	if err != nil {
		return outputCompileErrors(formatter, []error{err})
	}
	digest, err := ir.CatalogDigest(*loadResult.Spec)
	if err != nil {
		return outputCompileErrors(formatter, []error{err})
	}

	result := &CompilationResult{
		Catalog: *loadResult.Spec,
		Digest:  digest,
		Stats:   cat.Stats(),
	}
	logger.Debug("catalog compiled", "catalog", cat.Name(), "digest", digest, "recipes", result.Stats.Recipes)

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeIRToFile(result, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if opts.Save {
		if err := saveCatalog(cmd, opts.settings().Store.Path, cat); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
		}
		logger.Info("catalog saved", "catalog", cat.Name(), "db", opts.settings().Store.Path)
	}

	return outputCompileSuccess(formatter, result, opts)
}

func saveCatalog(cmd *cobra.Command, path string, cat *catalog.Catalog) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.SaveCatalog(cmd.Context(), cat.Name(), cat)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, opts *CompileOptions) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled catalog %s: items %d, categories %d, factories %d, recipes %d\n",
		result.Catalog.Name, result.Stats.Items, result.Stats.Categories, result.Stats.Factories, result.Stats.Recipes)
	fmt.Fprintf(w, "  digest %s\n", result.Digest)

	if formatter.Verbose && len(result.Catalog.Recipes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Recipes:")
		for _, r := range result.Catalog.Recipes {
			fmt.Fprintf(w, "  %s (cost %d): %v → %v\n",
				r.ID, r.Cost, ir.MatcherKeys(r.Inputs), ir.MatcherKeys(r.Outputs))
		}
	}

	if opts.Output != "" {
		fmt.Fprintf(w, "Wrote canonical IR to %s\n", opts.Output)
	}
	if opts.Save {
		fmt.Fprintf(w, "Saved catalog %s to %s\n", result.Catalog.Name, opts.settings().Store.Path)
	}

	return nil
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{
				Code:    code,
				Message: message,
			}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Compilation errors are command-level errors (exit code 2)
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var validationErr compiler.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Code, validationErr.Field + ": " + validationErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeIRToFile writes the compilation result to a file.
func writeIRToFile(result *CompilationResult, filename string) error {
	// Use standard JSON with indentation for readability
	// (canonical JSON without indentation is used only for hashing)
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
