package param

import (
	"fmt"
	"math"
	"slices"

	"github.com/roach88/ofxhost/internal/attribute"
	"github.com/roach88/ofxhost/internal/property"
)

// Parameter property names.
const (
	PropType           = "OfxParamPropType"
	PropDefault        = "OfxParamPropDefault"
	PropAnimates       = "OfxParamPropAnimates"
	PropHint           = "OfxParamPropHint"
	PropMin            = "OfxParamPropMin"
	PropMax            = "OfxParamPropMax"
	PropDisplayMin     = "OfxParamPropDisplayMin"
	PropDisplayMax     = "OfxParamPropDisplayMax"
	PropChoiceOption   = "OfxParamPropChoiceOption"
	PropDimensionLabel = "OfxParamPropDimensionLabel"
)

// Parameter type names as stored in PropType.
const (
	TypeInteger  = "OfxParamTypeInteger"
	TypeDouble   = "OfxParamTypeDouble"
	TypeBoolean  = "OfxParamTypeBoolean"
	TypeString   = "OfxParamTypeString"
	TypeChoice   = "OfxParamTypeChoice"
	TypeRGB      = "OfxParamTypeRGB"
	TypeRGBA     = "OfxParamTypeRGBA"
	TypeDouble2D = "OfxParamTypeDouble2D"
	TypeDouble3D = "OfxParamTypeDouble3D"
)

// Layout names the component structure of a composite parameter.
type Layout string

const (
	LayoutRGB      Layout = "rgb"
	LayoutRGBA     Layout = "rgba"
	LayoutDouble2D Layout = "double2d"
	LayoutDouble3D Layout = "double3d"
)

var layouts = map[Layout]struct {
	ofxType string
	labels  []string
}{
	LayoutRGB:      {TypeRGB, []string{"r", "g", "b"}},
	LayoutRGBA:     {TypeRGBA, []string{"r", "g", "b", "a"}},
	LayoutDouble2D: {TypeDouble2D, []string{"x", "y"}},
	LayoutDouble3D: {TypeDouble3D, []string{"x", "y", "z"}},
}

// ParseLayout validates a composite layout name.
func ParseLayout(s string) (Layout, error) {
	if _, ok := layouts[Layout(s)]; !ok {
		return "", fmt.Errorf("unknown composite layout %q", s)
	}
	return Layout(s), nil
}

// Dimension returns the component count of l, or 0 for an unknown layout.
func (l Layout) Dimension() int { return len(layouts[l].labels) }

// Default hard ranges. Integers follow the 32-bit limits hosts expose.
const (
	defaultIntMin = math.MinInt32
	defaultIntMax = math.MaxInt32
)

type descConfig struct {
	label    string
	short    string
	long     string
	hint     string
	animates *bool

	hasRange   bool
	min, max   float64
	hasDisplay bool
	dmin, dmax float64
}

// DescriptorOption configures a parameter descriptor.
type DescriptorOption func(*descConfig)

// WithLabels sets the label, short label and long label.
func WithLabels(label, short, long string) DescriptorOption {
	return func(c *descConfig) { c.label, c.short, c.long = label, short, long }
}

// WithHint sets the tooltip text.
func WithHint(hint string) DescriptorOption {
	return func(c *descConfig) { c.hint = hint }
}

// WithAnimates overrides whether the parameter accepts keyframes.
// Every kind except string animates by default.
func WithAnimates(animates bool) DescriptorOption {
	return func(c *descConfig) { c.animates = &animates }
}

// WithRange sets the hard range values are clamped to. Numeric kinds only.
func WithRange(min, max float64) DescriptorOption {
	return func(c *descConfig) { c.hasRange, c.min, c.max = true, min, max }
}

// WithDisplayRange sets the range a UI slider should show. It must lie
// inside the hard range and defaults to it.
func WithDisplayRange(min, max float64) DescriptorOption {
	return func(c *descConfig) { c.hasDisplay, c.dmin, c.dmax = true, min, max }
}

// Descriptor is the schema of one parameter.
type Descriptor struct {
	*attribute.Descriptor
	kind       Kind
	layout     Layout
	dim        int
	components []*Descriptor
}

func configure(kind Kind, opts []DescriptorOption) descConfig {
	var cfg descConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.animates == nil {
		animates := kind != KindString
		cfg.animates = &animates
	}
	return cfg
}

func newDescriptor(name string, kind Kind, ofxType string, dim int, cfg descConfig, specs ...property.Spec) (*Descriptor, error) {
	common := []property.Spec{
		{Name: PropType, Type: property.TypeString, Dimension: 1, Default: property.String(ofxType)},
		{Name: PropAnimates, Type: property.TypeInt, Dimension: 1, Default: property.Bool(*cfg.animates)},
		{Name: PropHint, Type: property.TypeString, Dimension: 1, Default: property.String(cfg.hint)},
	}
	ad, err := attribute.NewDescriptor(name, append(common, specs...)...)
	if err != nil {
		return nil, err
	}
	if err := ad.SetLabels(cfg.label, cfg.short, cfg.long); err != nil {
		return nil, err
	}
	return &Descriptor{Descriptor: ad, kind: kind, dim: dim}, nil
}

// rangeSpecs declares hard and display ranges of type t over dim components
// and checks them against each other and against the defaults.
func rangeSpecs(name string, t property.Type, dim int, cfg descConfig, lo, hi float64, defaults ...float64) ([]property.Spec, error) {
	if cfg.hasRange {
		lo, hi = cfg.min, cfg.max
	}
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return nil, fmt.Errorf("param %q: range [%g, %g] is not a number", name, lo, hi)
	}
	if lo > hi {
		return nil, fmt.Errorf("param %q: min %g is greater than max %g", name, lo, hi)
	}
	// -2^63 is exact in float64; 2^63 is one past MaxInt64.
	if t == property.TypeInt && (lo < math.MinInt64 || hi >= -math.MinInt64) {
		return nil, fmt.Errorf("param %q: range [%g, %g] does not fit in int64", name, lo, hi)
	}
	dlo, dhi := lo, hi
	if cfg.hasDisplay {
		dlo, dhi = cfg.dmin, cfg.dmax
	}
	if dlo > dhi || dlo < lo || dhi > hi {
		return nil, fmt.Errorf("param %q: display range [%g, %g] is outside hard range [%g, %g]", name, dlo, dhi, lo, hi)
	}
	for _, d := range defaults {
		if d < lo || d > hi {
			return nil, fmt.Errorf("param %q: default %g is outside hard range [%g, %g]", name, d, lo, hi)
		}
	}
	return []property.Spec{
		{Name: PropMin, Type: t, Dimension: dim, Default: number(t, lo)},
		{Name: PropMax, Type: t, Dimension: dim, Default: number(t, hi)},
		{Name: PropDisplayMin, Type: t, Dimension: dim, HostSettable: true, Default: number(t, dlo)},
		{Name: PropDisplayMax, Type: t, Dimension: dim, HostSettable: true, Default: number(t, dhi)},
	}, nil
}

func number(t property.Type, f float64) property.Value {
	if t == property.TypeInt {
		return property.Int(int64(math.Round(f)))
	}
	return property.Double(f)
}

// numberAt reads an Int or Double property as float64.
func numberAt(props *property.Set, name string, i int) float64 {
	v, err := props.Get(name, i)
	if err != nil {
		return 0
	}
	switch v := v.(type) {
	case property.Int:
		return float64(v)
	case property.Double:
		return float64(v)
	}
	return 0
}

// intAt reads an Int property without a float64 round trip.
func intAt(props *property.Set, name string, i int) (int64, bool) {
	v, err := props.Get(name, i)
	if err != nil {
		return 0, false
	}
	iv, ok := v.(property.Int)
	return int64(iv), ok
}

// DefaultRange returns the hard range a numeric kind gets when none is
// declared.
func DefaultRange(k Kind) (lo, hi float64) {
	if k == KindInteger {
		return defaultIntMin, defaultIntMax
	}
	return -math.MaxFloat64, math.MaxFloat64
}

// NewInteger describes an integer parameter.
func NewInteger(name string, def int64, opts ...DescriptorOption) (*Descriptor, error) {
	cfg := configure(KindInteger, opts)
	ranges, err := rangeSpecs(name, property.TypeInt, 1, cfg, defaultIntMin, defaultIntMax, float64(def))
	if err != nil {
		return nil, err
	}
	return newDescriptor(name, KindInteger, TypeInteger, 1, cfg,
		append([]property.Spec{{Name: PropDefault, Type: property.TypeInt, Dimension: 1, Default: property.Int(def)}}, ranges...)...)
}

// NewDouble describes a double parameter.
func NewDouble(name string, def float64, opts ...DescriptorOption) (*Descriptor, error) {
	cfg := configure(KindDouble, opts)
	ranges, err := rangeSpecs(name, property.TypeDouble, 1, cfg, -math.MaxFloat64, math.MaxFloat64, def)
	if err != nil {
		return nil, err
	}
	return newDescriptor(name, KindDouble, TypeDouble, 1, cfg,
		append([]property.Spec{{Name: PropDefault, Type: property.TypeDouble, Dimension: 1, Default: property.Double(def)}}, ranges...)...)
}

// NewBoolean describes a boolean parameter.
func NewBoolean(name string, def bool, opts ...DescriptorOption) (*Descriptor, error) {
	cfg := configure(KindBoolean, opts)
	return newDescriptor(name, KindBoolean, TypeBoolean, 1, cfg,
		property.Spec{Name: PropDefault, Type: property.TypeInt, Dimension: 1, Default: property.Bool(def)})
}

// NewString describes a string parameter.
func NewString(name, def string, opts ...DescriptorOption) (*Descriptor, error) {
	cfg := configure(KindString, opts)
	return newDescriptor(name, KindString, TypeString, 1, cfg,
		property.Spec{Name: PropDefault, Type: property.TypeString, Dimension: 1, Default: property.String(def)})
}

// NewChoice describes a choice parameter over options, defaulting to the
// option at index def.
func NewChoice(name string, options []string, def int, opts ...DescriptorOption) (*Descriptor, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("param %q: choice needs at least one option", name)
	}
	if def < 0 || def >= len(options) {
		return nil, fmt.Errorf("param %q: default index %d is outside [0, %d)", name, def, len(options))
	}
	cfg := configure(KindChoice, opts)
	d, err := newDescriptor(name, KindChoice, TypeChoice, 1, cfg,
		property.Spec{Name: PropDefault, Type: property.TypeInt, Dimension: 1, Default: property.Int(def)},
		property.Spec{Name: PropChoiceOption, Type: property.TypeString, Dimension: len(options), Default: property.String("")},
	)
	if err != nil {
		return nil, err
	}
	vals := make([]property.Value, len(options))
	for i, o := range options {
		vals[i] = property.String(o)
	}
	if err := d.Properties().SetAllInternal(PropChoiceOption, vals); err != nil {
		return nil, err
	}
	return d, nil
}

// NewComposite describes a multi-component double parameter. Each component
// is itself a double descriptor named "<name>.<label>", e.g. "tint.r".
func NewComposite(name string, layout Layout, def []float64, opts ...DescriptorOption) (*Descriptor, error) {
	info, ok := layouts[layout]
	if !ok {
		return nil, fmt.Errorf("param %q: unknown composite layout %q", name, layout)
	}
	dim := len(info.labels)
	if len(def) != dim {
		return nil, fmt.Errorf("param %q: %s default needs %d components, got %d", name, layout, dim, len(def))
	}
	cfg := configure(KindComposite, opts)
	ranges, err := rangeSpecs(name, property.TypeDouble, dim, cfg, -math.MaxFloat64, math.MaxFloat64, def...)
	if err != nil {
		return nil, err
	}
	d, err := newDescriptor(name, KindComposite, info.ofxType, dim, cfg, append([]property.Spec{
		{Name: PropDefault, Type: property.TypeDouble, Dimension: dim, Default: property.Double(0)},
		{Name: PropDimensionLabel, Type: property.TypeString, Dimension: dim, Default: property.String("")},
	}, ranges...)...)
	if err != nil {
		return nil, err
	}
	d.layout = layout

	defs := make([]property.Value, dim)
	labels := make([]property.Value, dim)
	for i := 0; i < dim; i++ {
		defs[i] = property.Double(def[i])
		labels[i] = property.String(info.labels[i])
	}
	if err := d.Properties().SetAllInternal(PropDefault, defs); err != nil {
		return nil, err
	}
	if err := d.Properties().SetAllInternal(PropDimensionLabel, labels); err != nil {
		return nil, err
	}

	for i, label := range info.labels {
		child, err := NewDouble(name+"."+label, def[i], append(slices.Clone(opts), WithLabels(label, label, label))...)
		if err != nil {
			return nil, err
		}
		d.components = append(d.components, child)
	}
	return d, nil
}

// Kind returns the parameter variant.
func (d *Descriptor) Kind() Kind { return d.kind }

// Layout returns the composite layout, or "" for scalar kinds.
func (d *Descriptor) Layout() Layout { return d.layout }

// Dimension is 1 for scalars and the component count for composites.
func (d *Descriptor) Dimension() int { return d.dim }

// Components returns the per-component descriptors of a composite.
func (d *Descriptor) Components() []*Descriptor { return d.components }

// Animates reports whether the parameter accepts keyframes.
func (d *Descriptor) Animates() bool {
	b, _ := d.Properties().Bool(PropAnimates, 0)
	return b
}

// Hint returns the tooltip text.
func (d *Descriptor) Hint() string {
	s, _ := d.Properties().String(PropHint, 0)
	return s
}

// Options returns the choice options, or nil for other kinds.
func (d *Descriptor) Options() []string {
	if d.kind != KindChoice {
		return nil
	}
	vals, _ := d.Properties().Values(PropChoiceOption)
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v.(property.String))
	}
	return out
}

// DimensionLabels returns the component labels of a composite.
func (d *Descriptor) DimensionLabels() []string {
	if d.kind != KindComposite {
		return nil
	}
	vals, _ := d.Properties().Values(PropDimensionLabel)
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v.(property.String))
	}
	return out
}

// Default returns the declared default as a typed envelope.
func (d *Descriptor) Default() Value {
	p := d.Properties()
	switch d.kind {
	case KindInteger:
		n, _ := p.Int(PropDefault, 0)
		return IntValue(n)
	case KindDouble:
		f, _ := p.Double(PropDefault, 0)
		return DoubleValue(f)
	case KindBoolean:
		b, _ := p.Bool(PropDefault, 0)
		return BoolValue(b)
	case KindString:
		s, _ := p.String(PropDefault, 0)
		return StringValue(s)
	case KindChoice:
		n, _ := p.Int(PropDefault, 0)
		return ChoiceValue{Index: int(n), Option: d.Options()[n]}
	case KindComposite:
		t := make(TupleValue, d.dim)
		for i := range t {
			t[i] = numberAt(p, PropDefault, i)
		}
		return t
	}
	return nil
}

// HardRange returns the clamp range of component i. Non-numeric kinds
// report an unbounded range.
func (d *Descriptor) HardRange(i int) (lo, hi float64) {
	if !d.kind.Numeric() {
		return math.Inf(-1), math.Inf(1)
	}
	return numberAt(d.Properties(), PropMin, i), numberAt(d.Properties(), PropMax, i)
}

// DisplayRange returns the slider range of component i.
func (d *Descriptor) DisplayRange(i int) (lo, hi float64) {
	if !d.kind.Numeric() {
		return math.Inf(-1), math.Inf(1)
	}
	return numberAt(d.Properties(), PropDisplayMin, i), numberAt(d.Properties(), PropDisplayMax, i)
}

// Freeze publishes the descriptor and its components.
func (d *Descriptor) Freeze() {
	d.Descriptor.Freeze()
	for _, c := range d.components {
		c.Freeze()
	}
}

// Equal compares kinds and property sets, including components.
func (d *Descriptor) Equal(o *Descriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.kind != o.kind || len(d.components) != len(o.components) || !d.Descriptor.Equal(o.Descriptor) {
		return false
	}
	for i := range d.components {
		if !d.components[i].Equal(o.components[i]) {
			return false
		}
	}
	return true
}
