package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// Set is the layouts declared in one CUE package, by name.
type Set struct {
	layouts map[string]*Layout
	names   []string
}

// Lookup returns the named layout.
func (s *Set) Lookup(name string) (*Layout, bool) {
	l, ok := s.layouts[name]
	return l, ok
}

// Names returns the layout names in declaration order.
func (s *Set) Names() []string {
	return slices.Clone(s.names)
}

// Compile compiles every layout under the top-level "layout" field of v.
// It stops at the first layout that fails.
func Compile(v cue.Value) (*Set, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	layoutsVal := v.LookupPath(cue.ParsePath("layout"))
	if !layoutsVal.Exists() {
		return nil, &CompileError{Field: "layout", Message: "no layouts declared", Pos: v.Pos()}
	}

	iter, err := layoutsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	set := &Set{layouts: make(map[string]*Layout)}
	for iter.Next() {
		l, err := CompileLayout(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("layout %s: %w", iter.Label(), err)
		}
		set.layouts[l.Name] = l
		set.names = append(set.names, l.Name)
	}
	return set, nil
}

// CompileString compiles layouts from CUE source. filename is used in error
// positions.
func CompileString(src, filename string) (*Set, error) {
	ctx := cuecontext.New()
	return Compile(ctx.CompileString(src, cue.Filename(filename)))
}

// Load compiles the layouts of the CUE package in dir.
func Load(dir string) (*Set, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("layouts directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(value)
}
