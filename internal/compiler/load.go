package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/forgeplan/internal/ir"
)

// Directory loading failures. Compile failures are returned as *CompileError.
var (
	ErrDirNotFound = errors.New("catalog directory not found")
	ErrNoCUEFiles  = errors.New("no CUE files found")
	ErrCUELoad     = errors.New("CUE load failed")
	ErrCUEBuild    = errors.New("CUE build failed")
)

// LoadResult contains a catalog compiled from a directory of CUE files.
type LoadResult struct {
	Spec      *ir.CatalogSpec
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadDir loads every CUE file in dir as one instance and compiles it.
// The catalog is named after the directory.
func LoadDir(dir string) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrDirNotFound, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirNotFound, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrDirNotFound, dir)
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(cueFiles) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoCUEFiles, dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("%w: no CUE instances loaded", ErrCUELoad)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCUELoad, inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCUEBuild, err)
	}

	spec, err := CompileCatalog(CatalogName(dir), value)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Spec: spec, CUEValue: value, FileCount: len(cueFiles)}, nil
}

// CatalogName derives a catalog name from its directory.
func CatalogName(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return filepath.Base(filepath.Clean(dir))
}

// FindCUEFiles returns the .cue files directly inside dir, the files
// load.Instances reads for the "." package.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}
