package cli

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"

	"github.com/roach88/forgeplan/internal/compiler"
)

// LoadError represents an error that occurred during catalog loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadCatalog loads and compiles the CUE catalog in dir. Every failure is
// returned as a *LoadError carrying a CLI error code.
func LoadCatalog(dir string) (*compiler.LoadResult, error) {
	result, err := compiler.LoadDir(dir)
	if err != nil {
		return nil, convertLoadError(err)
	}
	return result, nil
}

// convertLoadError converts a compiler error to a LoadError with position info.
func convertLoadError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Field + ": " + compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}

	code := ErrCodeGeneric
	switch {
	case errors.Is(err, compiler.ErrDirNotFound):
		code = ErrCodeNotFound
	case errors.Is(err, compiler.ErrNoCUEFiles):
		code = ErrCodeNoFiles
	case errors.Is(err, compiler.ErrCUELoad):
		code = ErrCodeLoadFailed
	case errors.Is(err, compiler.ErrCUEBuild):
		code = ErrCodeBuildFailed
	}
	return &LoadError{Code: code, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
// Catalog validation codes (E1xx) come from the compiler package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error

	// Catalog compile errors
	ErrCodeEmptyCatalog   = "E010" // No items or recipes
	ErrCodeMissingField   = "E011" // Required field absent (cost, outputs)
	ErrCodeInvalidType    = "E012" // Wrong field type (e.g., float)
	ErrCodeInvalidMatcher = "E013" // Matcher literal rejected

	// Query and history errors
	ErrCodeInvalidQuery  = "E020" // Bad target, mode or bounds
	ErrCodeInfeasible    = "E021" // No plan reaches the target
	ErrCodeStoreFailed   = "E030" // History database error
	ErrCodeQueryNotFound = "E031" // No recorded query with that id
	ErrCodeConfig        = "E040" // Configuration file or value error
	ErrCodeTestFailed    = "E050" // One or more scenarios failed
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "catalog":
		return ErrCodeEmptyCatalog
	case "cost", "outputs":
		return ErrCodeMissingField
	case "ordered", "level", "min_level", "categories", "groups", "factories", "inputs":
		return ErrCodeInvalidType
	case "matcher":
		return ErrCodeInvalidMatcher
	case "cue":
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}
