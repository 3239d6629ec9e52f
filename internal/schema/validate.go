package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ofxhost/internal/attribute"
	"github.com/roach88/ofxhost/internal/effect"
	"github.com/roach88/ofxhost/internal/param"
)

// Validate checks a decoded plugin and returns every problem found.
func Validate(spec *PluginSpec) []*CompileError {
	var errs []*CompileError

	// E207: every plugin renders somewhere
	hasOutput := false
	for _, c := range spec.Clips {
		if c.Name == effect.OutputClip {
			hasOutput = true
		}
		for _, comp := range c.Components {
			// E206
			if _, err := attribute.ParseComponent(comp); err != nil {
				errs = append(errs, newError(ErrCodeUnknownComponent, "clips."+c.Name+".components", c.Pos,
					"unknown pixel component %q", comp))
			}
		}
	}
	if !hasOutput {
		errs = append(errs, newError(ErrCodeNoOutputClip, "clips", spec.Pos,
			"plugin %s declares no %q clip", spec.ID, effect.OutputClip))
	}

	for i := range spec.Params {
		errs = append(errs, validateParam(&spec.Params[i])...)
	}
	return errs
}

// kindOf resolves a type name to a kind and, for composites, a layout.
func kindOf(typ string) (param.Kind, param.Layout, bool) {
	if l, err := param.ParseLayout(typ); err == nil {
		return param.KindComposite, l, true
	}
	k, err := param.ParseKind(typ)
	if err != nil || k == param.KindComposite {
		return 0, "", false
	}
	return k, "", true
}

func validateParam(p *ParamSpec) []*CompileError {
	field := "params." + p.Name
	kind, layout, ok := kindOf(p.Type)
	if !ok {
		return []*CompileError{newError(ErrCodeUnknownKind, field+".type", p.Pos, "unknown parameter type %q", p.Type)}
	}

	var errs []*CompileError
	switch kind {
	case param.KindChoice:
		if len(p.Options) == 0 {
			return append(errs, newError(ErrCodeNoOptions, field+".options", p.Pos, "choice needs at least one option"))
		}
		if _, err := choiceDefault(p); err != nil {
			errs = append(errs, err)
		}
	case param.KindInteger, param.KindDouble, param.KindComposite:
		errs = append(errs, validateRanges(p, kind, field)...)
		defs, err := numericDefault(p, kind, layout)
		if err != nil {
			return append(errs, err)
		}
		lo, hi := hardRange(kind, p)
		for i, d := range defs {
			if d < lo || d > hi {
				errs = append(errs, newError(ErrCodeDefaultRange, field+".default", defaultPos(p),
					"default %s is outside [%s, %s]", component(defs, i, d), fmtNum(lo), fmtNum(hi)))
			}
		}
	}
	return errs
}

func validateRanges(p *ParamSpec, kind param.Kind, field string) []*CompileError {
	var errs []*CompileError
	lo, hi := hardRange(kind, p)
	if lo > hi {
		errs = append(errs, newError(ErrCodeMinMax, field+".min", p.Pos, "min %s is greater than max %s", fmtNum(lo), fmtNum(hi)))
	}
	dlo, dhi := bound(p.DisplayMin, lo), bound(p.DisplayMax, hi)
	if dlo > dhi {
		errs = append(errs, newError(ErrCodeMinMax, field+".display_min", p.Pos,
			"display_min %s is greater than display_max %s", fmtNum(dlo), fmtNum(dhi)))
	}
	if dlo < lo || dhi > hi {
		errs = append(errs, newError(ErrCodeDisplayRange, field+".display_min", p.Pos,
			"display range [%s, %s] is outside [%s, %s]", fmtNum(dlo), fmtNum(dhi), fmtNum(lo), fmtNum(hi)))
	}
	return errs
}

// numericDefault returns the default as one float per component. A missing
// default is zero.
func numericDefault(p *ParamSpec, kind param.Kind, layout param.Layout) ([]float64, *CompileError) {
	field := "params." + p.Name + ".default"
	if kind == param.KindComposite {
		dim := layout.Dimension()
		if !p.Default.Exists() {
			return make([]float64, dim), nil
		}
		var defs []float64
		if err := p.Default.Decode(&defs); err != nil {
			return nil, formatCUEError(err, field)
		}
		if len(defs) != dim {
			return nil, newError(ErrCodeDimension, field, defaultPos(p),
				"%s default needs %d components, got %d", layout, dim, len(defs))
		}
		return defs, nil
	}
	if !p.Default.Exists() {
		return []float64{0}, nil
	}
	if kind == param.KindInteger {
		n, err := p.Default.Int64()
		if err != nil {
			return nil, formatCUEError(err, field)
		}
		return []float64{float64(n)}, nil
	}
	f, err := p.Default.Float64()
	if err != nil {
		return nil, formatCUEError(err, field)
	}
	return []float64{f}, nil
}

// choiceDefault accepts either an option index or an option label.
func choiceDefault(p *ParamSpec) (int, *CompileError) {
	field := "params." + p.Name + ".default"
	if !p.Default.Exists() {
		return 0, nil
	}
	if p.Default.Kind() == cue.StringKind {
		s, _ := p.Default.String()
		for i, o := range p.Options {
			if o == s {
				return i, nil
			}
		}
		return 0, newError(ErrCodeChoiceDefault, field, defaultPos(p), "default %q is not one of the options", s)
	}
	n, err := p.Default.Int64()
	if err != nil {
		return 0, formatCUEError(err, field)
	}
	if n < 0 || n >= int64(len(p.Options)) {
		return 0, newError(ErrCodeChoiceDefault, field, defaultPos(p),
			"default index %d is outside [0, %d)", n, len(p.Options))
	}
	return int(n), nil
}

func defaultPos(p *ParamSpec) token.Pos {
	if p.Default.Exists() {
		return p.Default.Pos()
	}
	return p.Pos
}

func bound(f *float64, def float64) float64 {
	if f == nil {
		return def
	}
	return *f
}

func component(defs []float64, i int, d float64) string {
	if len(defs) == 1 {
		return fmtNum(d)
	}
	return fmt.Sprintf("component %d (%s)", i, fmtNum(d))
}

func fmtNum(f float64) string {
	return fmt.Sprintf("%g", f)
}
