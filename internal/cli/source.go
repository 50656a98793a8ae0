package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/forgeplan/internal/catalog"
	"github.com/roach88/forgeplan/internal/compiler"
	"github.com/roach88/forgeplan/internal/store"
)

// openCatalog resolves a catalog reference: a CUE directory, or with saved
// set the name of a catalog stored by compile --save. Validation errors make
// a directory catalog unusable; warnings are logged.
func openCatalog(ctx context.Context, opts *RootOptions, ref string, saved bool) (*catalog.Catalog, error) {
	if saved {
		st, err := openHistory(opts)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		cat, err := st.LoadCatalog(ctx, ref)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no saved catalog named %q", ref)}
		}
		if err != nil {
			return nil, &LoadError{Code: ErrCodeStoreFailed, Message: err.Error()}
		}
		return cat, nil
	}

	loaded, err := LoadCatalog(ref)
	if err != nil {
		return nil, err
	}
	for _, issue := range compiler.Validate(loaded.Spec) {
		if !issue.IsWarning() {
			return nil, &LoadError{Code: issue.Code, Message: issue.Field + ": " + issue.Message}
		}
		opts.logger().Warn("catalog validation warning", "code", issue.Code, "field", issue.Field, "message", issue.Message)
	}
	cat, err := catalog.FromSpec(*loaded.Spec)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	return cat, nil
}

// openHistory opens the configured history database, which must exist.
func openHistory(opts *RootOptions) (*store.Store, error) {
	path := opts.settings().Store.Path
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("history database not found: %s", path)}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStoreFailed, Message: err.Error()}
	}
	return st, nil
}
