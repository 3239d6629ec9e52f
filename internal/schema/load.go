package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ofxhost/internal/effect"
	"github.com/roach88/ofxhost/internal/property"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first plugin with errors.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll reports every error in every plugin.
	LoadModeCollectAll
)

// Result contains the published descriptors found in a schema.
type Result struct {
	Plugins   []*effect.Descriptor
	Hash      string    // Content hash over all plugin descriptors
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// Plugin returns the descriptor with the given identifier, or nil.
func (r *Result) Plugin(id string) *effect.Descriptor {
	for _, d := range r.Plugins {
		if d.ID() == id {
			return d
		}
	}
	return nil
}

// LoadDir loads every CUE file in dir as one package and compiles the
// plugins it declares.
func LoadDir(dir string, mode LoadMode) (*Result, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{newError(ErrCodeNotFound, "dir", token.NoPos, "schema directory not found: %s", dir)}
	}
	if err != nil {
		return nil, []error{newError(ErrCodeNotFound, "dir", token.NoPos, "error accessing schema directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, []error{newError(ErrCodeNotFound, "dir", token.NoPos, "not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{newError(ErrCodeScanError, "dir", token.NoPos, "error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, []error{newError(ErrCodeNoFiles, "dir", token.NoPos, "no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{newError(ErrCodeLoadFailed, "dir", token.NoPos, "no CUE instances loaded")}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{newError(ErrCodeLoadFailed, "dir", token.NoPos, "loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		ce := formatCUEError(err, "cue")
		ce.Code = ErrCodeBuildFailed
		return nil, []error{ce}
	}

	res, errs := Compile(value, mode)
	if res != nil {
		res.FileCount = len(files)
	}
	return res, errs
}

// CompileString compiles schema source held in memory. filename only
// appears in error positions.
func CompileString(src, filename string, mode LoadMode) (*Result, []error) {
	value := cuecontext.New().CompileString(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		ce := formatCUEError(err, "cue")
		ce.Code = ErrCodeBuildFailed
		return nil, []error{ce}
	}
	return Compile(value, mode)
}

// Compile decodes, validates and builds every entry under `plugin`.
// Plugins with errors are left out of the result.
func Compile(value cue.Value, mode LoadMode) (*Result, []error) {
	res := &Result{CUEValue: value}
	var errs []error

	plugins := value.LookupPath(cue.ParsePath("plugin"))
	if !plugins.Exists() {
		return res, []error{newError(ErrCodeNoPlugins, "plugin", value.Pos(), "no plugins found in schema")}
	}
	iter, err := plugins.Fields()
	if err != nil {
		return res, []error{formatCUEError(err, "plugin")}
	}

	for iter.Next() {
		spec, err := DecodePlugin(iter.Value())
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return res, errs
			}
			continue
		}
		if verrs := Validate(spec); len(verrs) > 0 {
			for _, ve := range verrs {
				errs = append(errs, ve)
			}
			if mode == LoadModeFailFast {
				return res, errs
			}
			continue
		}
		d, err := Build(spec)
		if err != nil {
			errs = append(errs, newError(ErrCodeGeneric, "plugin."+spec.ID, spec.Pos, "%v", err))
			if mode == LoadModeFailFast {
				return res, errs
			}
			continue
		}
		res.Plugins = append(res.Plugins, d)
	}

	if len(res.Plugins) == 0 && len(errs) == 0 {
		errs = append(errs, newError(ErrCodeNoPlugins, "plugin", plugins.Pos(), "no plugins found in schema"))
	}
	if len(errs) == 0 {
		h, err := Hash(res.Plugins)
		if err != nil {
			errs = append(errs, newError(ErrCodeGeneric, "plugin", token.NoPos, "hashing schema: %v", err))
		}
		res.Hash = h
	}
	return res, errs
}

// Hash returns a content hash of the descriptors. It changes whenever a
// plugin, clip or parameter property changes, and is stable across loads.
func Hash(plugins []*effect.Descriptor) (string, error) {
	var buf []byte
	appendProps := func(kind string, props *property.Set) error {
		b, err := property.MarshalCanonical(props)
		if err != nil {
			return err
		}
		buf = fmt.Appendf(buf, "%s:%d:", kind, len(b))
		buf = append(buf, b...)
		return nil
	}
	for _, d := range plugins {
		if err := appendProps("plugin", d.Properties()); err != nil {
			return "", fmt.Errorf("plugin %s: %w", d.ID(), err)
		}
		for _, c := range d.Clips() {
			if err := appendProps("clip", c.Properties()); err != nil {
				return "", fmt.Errorf("clip %s: %w", c.Name(), err)
			}
		}
		for _, p := range d.Params() {
			if err := appendProps("param", p.Properties()); err != nil {
				return "", fmt.Errorf("param %s: %w", p.Name(), err)
			}
		}
	}
	return property.Hash("ofxhost/schema/v1", buf), nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
