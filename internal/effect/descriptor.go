package effect

import (
	"fmt"

	"github.com/roach88/ofxhost/internal/attribute"
	"github.com/roach88/ofxhost/internal/param"
	"github.com/roach88/ofxhost/internal/property"
	"github.com/roach88/ofxhost/internal/status"
)

// Well-known clip names.
const (
	OutputClip = "Output"
	SourceClip = "Source"
)

// Effect property names.
const (
	PropGrouping     = "OfxImageEffectPluginPropGrouping"
	PropVersion      = "OfxPropVersion"
	PropVersionLabel = "OfxPropVersionLabel"
)

type descConfig struct {
	label, short, long string
	grouping           string
	major, minor       int
}

// DescriptorOption configures a Descriptor.
type DescriptorOption func(*descConfig)

// WithLabels sets the plugin labels.
func WithLabels(label, short, long string) DescriptorOption {
	return func(c *descConfig) { c.label, c.short, c.long = label, short, long }
}

// WithGrouping sets the menu grouping, e.g. "Color/Correct".
func WithGrouping(grouping string) DescriptorOption {
	return func(c *descConfig) { c.grouping = grouping }
}

// WithVersion sets the plugin version.
func WithVersion(major, minor int) DescriptorOption {
	return func(c *descConfig) { c.major, c.minor = major, minor }
}

// Descriptor is the schema of one plugin: its identity, its clips and its
// parameters in declaration order. It is populated by the schema loader and
// frozen by Publish before any instance exists.
type Descriptor struct {
	*attribute.Descriptor
	clips      []*attribute.ClipDescriptor
	params     []*param.Descriptor
	clipIndex  map[string]int
	paramIndex map[string]int
	published  bool
}

// NewDescriptor creates an empty plugin descriptor named id.
func NewDescriptor(id string, opts ...DescriptorOption) (*Descriptor, error) {
	cfg := descConfig{major: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	ad, err := attribute.NewDescriptor(id,
		property.Spec{Name: PropGrouping, Type: property.TypeString, Dimension: 1, Default: property.String(cfg.grouping)},
		property.Spec{Name: PropVersion, Type: property.TypeInt, Dimension: 2, Default: property.Int(0)},
		property.Spec{Name: PropVersionLabel, Type: property.TypeString, Dimension: 1, Default: property.String(fmt.Sprintf("%d.%d", cfg.major, cfg.minor))},
	)
	if err != nil {
		return nil, err
	}
	err = ad.Properties().SetAllInternal(PropVersion, []property.Value{property.Int(cfg.major), property.Int(cfg.minor)})
	if err != nil {
		return nil, err
	}
	if err := ad.SetLabels(cfg.label, cfg.short, cfg.long); err != nil {
		return nil, err
	}
	return &Descriptor{
		Descriptor: ad,
		clipIndex:  make(map[string]int),
		paramIndex: make(map[string]int),
	}, nil
}

// ID returns the plugin identifier.
func (d *Descriptor) ID() string { return d.Name() }

// Grouping returns the menu grouping.
func (d *Descriptor) Grouping() string {
	s, _ := d.Properties().String(PropGrouping, 0)
	return s
}

// Version returns the major and minor version.
func (d *Descriptor) Version() (major, minor int) {
	ma, _ := d.Properties().Int(PropVersion, 0)
	mi, _ := d.Properties().Int(PropVersion, 1)
	return int(ma), int(mi)
}

// DefineClip adds a clip. Names must be unique among clips.
func (d *Descriptor) DefineClip(c *attribute.ClipDescriptor) error {
	if d.published {
		return status.NotSettable(c.Name(), "effect descriptor is published")
	}
	if _, dup := d.clipIndex[c.Name()]; dup {
		return status.New(status.CodeDuplicateAttribute, c.Name(), "clip defined twice on %s", d.ID())
	}
	d.clipIndex[c.Name()] = len(d.clips)
	d.clips = append(d.clips, c)
	return nil
}

// DefineParam adds a parameter. Names must be unique among parameters.
func (d *Descriptor) DefineParam(p *param.Descriptor) error {
	if d.published {
		return status.NotSettable(p.Name(), "effect descriptor is published")
	}
	if _, dup := d.paramIndex[p.Name()]; dup {
		return status.New(status.CodeDuplicateAttribute, p.Name(), "parameter defined twice on %s", d.ID())
	}
	d.paramIndex[p.Name()] = len(d.params)
	d.params = append(d.params, p)
	return nil
}

// Clip returns the clip descriptor called name.
func (d *Descriptor) Clip(name string) (*attribute.ClipDescriptor, error) {
	i, ok := d.clipIndex[name]
	if !ok {
		return nil, status.UnknownClip(name)
	}
	return d.clips[i], nil
}

// Param returns the parameter descriptor called name.
func (d *Descriptor) Param(name string) (*param.Descriptor, error) {
	i, ok := d.paramIndex[name]
	if !ok {
		return nil, status.UnknownParameter(name)
	}
	return d.params[i], nil
}

// Clips returns the clip descriptors in declaration order.
func (d *Descriptor) Clips() []*attribute.ClipDescriptor {
	return append([]*attribute.ClipDescriptor(nil), d.clips...)
}

// Params returns the parameter descriptors in declaration order.
func (d *Descriptor) Params() []*param.Descriptor {
	return append([]*param.Descriptor(nil), d.params...)
}

// Publish freezes the descriptor, its clips and its parameters.
// Publishing twice is a no-op.
func (d *Descriptor) Publish() {
	if d.published {
		return
	}
	d.published = true
	d.Freeze()
	for _, c := range d.clips {
		c.Freeze()
	}
	for _, p := range d.params {
		p.Freeze()
	}
}

// Published reports whether Publish was called.
func (d *Descriptor) Published() bool { return d.published }
