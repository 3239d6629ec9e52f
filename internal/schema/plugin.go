package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"
)

// PluginSpec is the decoded form of one `plugin: <id>: {...}` entry.
type PluginSpec struct {
	ID         string
	Label      string
	ShortLabel string
	LongLabel  string
	Group      string
	Major      int
	Minor      int
	Clips      []ClipSpec
	Params     []ParamSpec
	Pos        token.Pos
}

// ClipSpec is the decoded form of a clip entry.
type ClipSpec struct {
	Name       string
	Label      string
	ShortLabel string
	LongLabel  string
	Optional   bool
	Mask       bool
	Tiles      bool
	Components []string
	Pos        token.Pos
}

// ParamSpec is the decoded form of a parameter entry. Numbers are kept as
// float64; Default holds the raw CUE value because its shape depends on Type.
type ParamSpec struct {
	Name       string
	Type       string
	Label      string
	ShortLabel string
	LongLabel  string
	Hint       string
	Animates   *bool
	Min, Max   *float64
	DisplayMin *float64
	DisplayMax *float64
	Options    []string
	Default    cue.Value
	Pos        token.Pos
}

// fieldName returns the unquoted label of a struct field.
func fieldName(iter *cue.Iterator) string {
	return iter.Selector().Unquoted()
}

// DecodePlugin reads a plugin struct. The plugin identifier is the struct
// label. Fields keep their declaration order.
func DecodePlugin(v cue.Value) (*PluginSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err, "plugin")
	}

	spec := &PluginSpec{Pos: v.Pos(), Major: 1}
	if sels := v.Path().Selectors(); len(sels) > 0 {
		spec.ID = sels[len(sels)-1].Unquoted()
	}

	var err error
	if spec.Label, err = optString(v, "label"); err != nil {
		return nil, err
	}
	if spec.ShortLabel, err = optString(v, "short_label"); err != nil {
		return nil, err
	}
	if spec.LongLabel, err = optString(v, "long_label"); err != nil {
		return nil, err
	}
	if spec.Group, err = optString(v, "group"); err != nil {
		return nil, err
	}

	if ver := v.LookupPath(cue.ParsePath("version")); ver.Exists() {
		var parts []int
		if err := ver.Decode(&parts); err != nil {
			return nil, formatCUEError(err, "version")
		}
		if len(parts) != 2 {
			return nil, newError(ErrCodeGeneric, "version", ver.Pos(), "version must be [major, minor], got %d elements", len(parts))
		}
		spec.Major, spec.Minor = parts[0], parts[1]
	}

	if clips := v.LookupPath(cue.ParsePath("clips")); clips.Exists() {
		iter, err := clips.Fields()
		if err != nil {
			return nil, formatCUEError(err, "clips")
		}
		for iter.Next() {
			c, err := decodeClip(fieldName(iter), iter.Value())
			if err != nil {
				return nil, err
			}
			spec.Clips = append(spec.Clips, *c)
		}
	}

	if params := v.LookupPath(cue.ParsePath("params")); params.Exists() {
		iter, err := params.Fields()
		if err != nil {
			return nil, formatCUEError(err, "params")
		}
		for iter.Next() {
			p, err := decodeParam(fieldName(iter), iter.Value())
			if err != nil {
				return nil, err
			}
			spec.Params = append(spec.Params, *p)
		}
	}

	return spec, nil
}

func decodeClip(name string, v cue.Value) (*ClipSpec, error) {
	c := &ClipSpec{Name: name, Tiles: true, Pos: v.Pos()}
	var err error
	if c.Label, err = optString(v, "label"); err != nil {
		return nil, err
	}
	if c.ShortLabel, err = optString(v, "short_label"); err != nil {
		return nil, err
	}
	if c.LongLabel, err = optString(v, "long_label"); err != nil {
		return nil, err
	}
	if b, err := optBool(v, "optional"); err != nil {
		return nil, err
	} else if b != nil {
		c.Optional = *b
	}
	if b, err := optBool(v, "mask"); err != nil {
		return nil, err
	} else if b != nil {
		c.Mask = *b
	}
	if b, err := optBool(v, "tiles"); err != nil {
		return nil, err
	} else if b != nil {
		c.Tiles = *b
	}
	if comps := v.LookupPath(cue.ParsePath("components")); comps.Exists() {
		if err := comps.Decode(&c.Components); err != nil {
			return nil, formatCUEError(err, fmt.Sprintf("clips.%s.components", name))
		}
	}
	return c, nil
}

func decodeParam(name string, v cue.Value) (*ParamSpec, error) {
	p := &ParamSpec{Name: name, Pos: v.Pos()}

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return nil, newError(ErrCodeUnknownKind, fmt.Sprintf("params.%s.type", name), v.Pos(), "type is required")
	}
	t, err := typeVal.String()
	if err != nil {
		return nil, formatCUEError(err, fmt.Sprintf("params.%s.type", name))
	}
	p.Type = t

	if p.Label, err = optString(v, "label"); err != nil {
		return nil, err
	}
	if p.ShortLabel, err = optString(v, "short_label"); err != nil {
		return nil, err
	}
	if p.LongLabel, err = optString(v, "long_label"); err != nil {
		return nil, err
	}
	if p.Hint, err = optString(v, "hint"); err != nil {
		return nil, err
	}
	if p.Animates, err = optBool(v, "animates"); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		key string
		dst **float64
	}{
		{"min", &p.Min},
		{"max", &p.Max},
		{"display_min", &p.DisplayMin},
		{"display_max", &p.DisplayMax},
	} {
		if *f.dst, err = optFloat(v, f.key); err != nil {
			return nil, err
		}
	}
	if opts := v.LookupPath(cue.ParsePath("options")); opts.Exists() {
		if err := opts.Decode(&p.Options); err != nil {
			return nil, formatCUEError(err, fmt.Sprintf("params.%s.options", name))
		}
	}
	p.Default = v.LookupPath(cue.ParsePath("default"))
	return p, nil
}

func optString(v cue.Value, key string) (string, error) {
	f := v.LookupPath(cue.ParsePath(key))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err, key)
	}
	return s, nil
}

func optBool(v cue.Value, key string) (*bool, error) {
	f := v.LookupPath(cue.ParsePath(key))
	if !f.Exists() {
		return nil, nil
	}
	b, err := f.Bool()
	if err != nil {
		return nil, formatCUEError(err, key)
	}
	return &b, nil
}

func optFloat(v cue.Value, key string) (*float64, error) {
	f := v.LookupPath(cue.ParsePath(key))
	if !f.Exists() {
		return nil, nil
	}
	x, err := f.Float64()
	if err != nil {
		return nil, formatCUEError(err, key)
	}
	return &x, nil
}
