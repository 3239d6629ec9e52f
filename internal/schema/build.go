package schema

import (
	"fmt"

	"github.com/roach88/ofxhost/internal/attribute"
	"github.com/roach88/ofxhost/internal/effect"
	"github.com/roach88/ofxhost/internal/param"
)

// Build turns a validated PluginSpec into a published effect descriptor.
func Build(spec *PluginSpec) (*effect.Descriptor, error) {
	d, err := effect.NewDescriptor(spec.ID,
		effect.WithLabels(spec.Label, spec.ShortLabel, spec.LongLabel),
		effect.WithGrouping(spec.Group),
		effect.WithVersion(spec.Major, spec.Minor),
	)
	if err != nil {
		return nil, err
	}

	for _, c := range spec.Clips {
		cd, err := buildClip(c)
		if err != nil {
			return nil, err
		}
		if err := d.DefineClip(cd); err != nil {
			return nil, err
		}
	}
	for i := range spec.Params {
		pd, err := buildParam(&spec.Params[i])
		if err != nil {
			return nil, err
		}
		if err := d.DefineParam(pd); err != nil {
			return nil, err
		}
	}

	d.Publish()
	return d, nil
}

func buildClip(c ClipSpec) (*attribute.ClipDescriptor, error) {
	opts := []attribute.ClipOption{
		attribute.Optional(c.Optional),
		attribute.Mask(c.Mask),
		attribute.SupportsTiles(c.Tiles),
		attribute.Labels(c.Label, c.ShortLabel, c.LongLabel),
	}
	if len(c.Components) > 0 {
		comps := make([]attribute.Component, len(c.Components))
		for i, s := range c.Components {
			comp, err := attribute.ParseComponent(s)
			if err != nil {
				return nil, err
			}
			comps[i] = comp
		}
		opts = append(opts, attribute.Components(comps...))
	}
	return attribute.NewClipDescriptor(c.Name, opts...)
}

func buildParam(p *ParamSpec) (*param.Descriptor, error) {
	kind, layout, ok := kindOf(p.Type)
	if !ok {
		return nil, fmt.Errorf("param %q: unknown parameter type %q", p.Name, p.Type)
	}

	opts := []param.DescriptorOption{
		param.WithLabels(p.Label, p.ShortLabel, p.LongLabel),
		param.WithHint(p.Hint),
	}
	if p.Animates != nil {
		opts = append(opts, param.WithAnimates(*p.Animates))
	}
	if kind.Numeric() {
		if p.Min != nil || p.Max != nil {
			lo, hi := hardRange(kind, p)
			opts = append(opts, param.WithRange(lo, hi))
		}
		if p.DisplayMin != nil || p.DisplayMax != nil {
			lo, hi := hardRange(kind, p)
			opts = append(opts, param.WithDisplayRange(bound(p.DisplayMin, lo), bound(p.DisplayMax, hi)))
		}
	}

	switch kind {
	case param.KindInteger:
		defs, err := numericDefault(p, kind, layout)
		if err != nil {
			return nil, err
		}
		return param.NewInteger(p.Name, int64(defs[0]), opts...)
	case param.KindDouble:
		defs, err := numericDefault(p, kind, layout)
		if err != nil {
			return nil, err
		}
		return param.NewDouble(p.Name, defs[0], opts...)
	case param.KindComposite:
		defs, err := numericDefault(p, kind, layout)
		if err != nil {
			return nil, err
		}
		return param.NewComposite(p.Name, layout, defs, opts...)
	case param.KindBoolean:
		def := false
		if p.Default.Exists() {
			b, err := p.Default.Bool()
			if err != nil {
				return nil, formatCUEError(err, "params."+p.Name+".default")
			}
			def = b
		}
		return param.NewBoolean(p.Name, def, opts...)
	case param.KindString:
		def := ""
		if p.Default.Exists() {
			s, err := p.Default.String()
			if err != nil {
				return nil, formatCUEError(err, "params."+p.Name+".default")
			}
			def = s
		}
		return param.NewString(p.Name, def, opts...)
	case param.KindChoice:
		def, err := choiceDefault(p)
		if err != nil {
			return nil, err
		}
		return param.NewChoice(p.Name, p.Options, def, opts...)
	default:
		return nil, fmt.Errorf("param %q: unhandled kind %s", p.Name, kind)
	}
}

// hardRange fills an open side of the declared range with the kind's limit.
func hardRange(kind param.Kind, p *ParamSpec) (lo, hi float64) {
	lo, hi = param.DefaultRange(kind)
	return bound(p.Min, lo), bound(p.Max, hi)
}
