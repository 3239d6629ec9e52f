package attribute

import (
	"fmt"
	"strings"

	"github.com/roach88/ofxhost/internal/identity"
	"github.com/roach88/ofxhost/internal/property"
	"github.com/roach88/ofxhost/internal/status"
)

// Clip property names.
const (
	PropOptional            = "OfxImageClipPropOptional"
	PropSupportedComponents = "OfxImageEffectPropSupportedComponents"
	PropSupportsTiles       = "OfxImageEffectPropSupportsTiles"
	PropIsMask              = "OfxImageClipPropIsMask"
	PropConnected           = "OfxImageClipPropConnected"
)

// Component is a pixel component layout a clip can carry.
type Component string

const (
	ComponentNone  Component = "OfxImageComponentNone"
	ComponentRGBA  Component = "OfxImageComponentRGBA"
	ComponentRGB   Component = "OfxImageComponentRGB"
	ComponentAlpha Component = "OfxImageComponentAlpha"
)

const componentPrefix = "OfxImageComponent"

// Short returns the component name without its prefix, e.g. "RGBA".
func (c Component) Short() string {
	return strings.TrimPrefix(string(c), componentPrefix)
}

// ParseComponent accepts full ("OfxImageComponentRGBA") or short ("RGBA") names.
func ParseComponent(s string) (Component, error) {
	c := Component(s)
	if !strings.HasPrefix(s, componentPrefix) {
		c = Component(componentPrefix + s)
	}
	switch c {
	case ComponentNone, ComponentRGBA, ComponentRGB, ComponentAlpha:
		return c, nil
	default:
		return "", fmt.Errorf("unknown pixel component %q", s)
	}
}

type clipConfig struct {
	optional   bool
	mask       bool
	tiles      bool
	components []Component
	label      string
	short      string
	long       string
}

// ClipOption configures a ClipDescriptor.
type ClipOption func(*clipConfig)

// Optional marks the clip as optional. Clips are required by default.
func Optional(optional bool) ClipOption {
	return func(c *clipConfig) { c.optional = optional }
}

// Components sets the supported components in order of preference.
func Components(components ...Component) ClipOption {
	return func(c *clipConfig) { c.components = components }
}

// SupportsTiles declares whether the clip accepts tiled images.
func SupportsTiles(tiles bool) ClipOption {
	return func(c *clipConfig) { c.tiles = tiles }
}

// Mask marks the clip as a mask input.
func Mask(mask bool) ClipOption {
	return func(c *clipConfig) { c.mask = mask }
}

// Labels sets the clip labels.
func Labels(label, short, long string) ClipOption {
	return func(c *clipConfig) { c.label, c.short, c.long = label, short, long }
}

// ClipDescriptor declares an input or output port of an effect.
// A ClipDescriptor has no connection state.
type ClipDescriptor struct {
	*Descriptor
}

// NewClipDescriptor creates a clip descriptor. Without Components the clip
// supports RGBA only.
func NewClipDescriptor(name string, opts ...ClipOption) (*ClipDescriptor, error) {
	cfg := clipConfig{tiles: true, components: []Component{ComponentRGBA}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.components) == 0 {
		return nil, fmt.Errorf("clip %q: at least one supported component is required", name)
	}

	comps := make([]property.Value, len(cfg.components))
	for i, c := range cfg.components {
		comps[i] = property.String(c)
	}

	d, err := NewDescriptor(name,
		property.Spec{Name: PropOptional, Type: property.TypeInt, Dimension: 1, Default: property.Int(0)},
		property.Spec{Name: PropSupportedComponents, Type: property.TypeString, Dimension: len(comps), Default: property.String(ComponentNone)},
		property.Spec{Name: PropSupportsTiles, Type: property.TypeInt, Dimension: 1, Default: property.Int(1)},
		property.Spec{Name: PropIsMask, Type: property.TypeInt, Dimension: 1, Default: property.Int(0)},
	)
	if err != nil {
		return nil, err
	}

	p := d.props
	if err := p.SetAllInternal(PropSupportedComponents, comps); err != nil {
		return nil, err
	}
	if err := p.SetInternal(PropOptional, 0, property.Bool(cfg.optional)); err != nil {
		return nil, err
	}
	if err := p.SetInternal(PropSupportsTiles, 0, property.Bool(cfg.tiles)); err != nil {
		return nil, err
	}
	if err := p.SetInternal(PropIsMask, 0, property.Bool(cfg.mask)); err != nil {
		return nil, err
	}
	if err := d.SetLabels(cfg.label, cfg.short, cfg.long); err != nil {
		return nil, err
	}
	return &ClipDescriptor{Descriptor: d}, nil
}

// IsOptional reports whether the effect may render with the clip unconnected.
func (d *ClipDescriptor) IsOptional() bool {
	b, _ := d.props.Bool(PropOptional, 0)
	return b
}

// SupportsTiles reports whether the clip accepts tiled images.
func (d *ClipDescriptor) SupportsTiles() bool {
	b, _ := d.props.Bool(PropSupportsTiles, 0)
	return b
}

// IsMask reports whether the clip is a mask input.
func (d *ClipDescriptor) IsMask() bool {
	b, _ := d.props.Bool(PropIsMask, 0)
	return b
}

// SupportedComponents returns the components in order of preference.
func (d *ClipDescriptor) SupportedComponents() []Component {
	vals, _ := d.props.Values(PropSupportedComponents)
	out := make([]Component, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(property.String); ok {
			out = append(out, Component(s))
		}
	}
	return out
}

// SupportsComponent reports whether c is among the supported components.
func (d *ClipDescriptor) SupportsComponent(c Component) bool {
	for _, s := range d.SupportedComponents() {
		if s == c {
			return true
		}
	}
	return false
}

// Negotiate picks the first supported component that upstream offers.
func (d *ClipDescriptor) Negotiate(offered []Component) (Component, error) {
	for _, want := range d.SupportedComponents() {
		for _, o := range offered {
			if o == want {
				return want, nil
			}
		}
	}
	return "", status.Unsupported(d.Name(), "component negotiation")
}

// Equal compares the underlying property sets.
func (d *ClipDescriptor) Equal(o *ClipDescriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.Descriptor.Equal(o.Descriptor)
}

// Clip is the per-effect instance of a ClipDescriptor.
//
// Only the wiring step writes the connection state, through Connect, and
// never while a render session holds the clip (LockConnection).
type Clip struct {
	*Instance
	desc      *ClipDescriptor
	connected bool
	locked    bool
}

// NewClip creates an unconnected clip instance.
func NewClip(desc *ClipDescriptor, ids identity.Generator) (*Clip, error) {
	c := &Clip{Instance: NewInstance(desc.Descriptor, ids), desc: desc}
	err := c.props.Declare(property.Spec{
		Name: PropConnected, Type: property.TypeInt, Dimension: 1, Default: property.Int(0),
	})
	if err != nil {
		return nil, err
	}
	if err := c.hookConnected(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Clip) hookConnected() error {
	return c.props.AddGetHook(PropConnected, property.GetFunc(func(string, int) (property.Value, error) {
		return property.Bool(c.connected), nil
	}))
}

// ClipDescriptor returns the clip's descriptor.
func (c *Clip) ClipDescriptor() *ClipDescriptor { return c.desc }

// IsOptional reads the descriptor-level flag.
func (c *Clip) IsOptional() bool { return c.desc.IsOptional() }

// SupportedComponents reads the descriptor-level component list.
func (c *Clip) SupportedComponents() []Component { return c.desc.SupportedComponents() }

// Negotiate delegates to the descriptor.
func (c *Clip) Negotiate(offered []Component) (Component, error) {
	return c.desc.Negotiate(offered)
}

// Connected reports whether the clip is wired to upstream data.
func (c *Clip) Connected() bool { return c.connected }

// Connect is the wiring writer. It fails with NotSettable while a render
// session holds the clip.
func (c *Clip) Connect(connected bool) error {
	if c.locked {
		return status.NotSettable(c.Name(), "connection state is fixed during a render session")
	}
	c.connected = connected
	return nil
}

// LockConnection pins the connection state for a render session.
func (c *Clip) LockConnection() { c.locked = true }

// UnlockConnection releases the pin taken by LockConnection.
func (c *Clip) UnlockConnection() { c.locked = false }

// Clone returns a new, unconnected clip with the same descriptor and a copy
// of the property state.
func (c *Clip) Clone() (*Clip, error) {
	clone := &Clip{Instance: c.Fork(), desc: c.desc}
	if err := clone.hookConnected(); err != nil {
		return nil, fmt.Errorf("clip %s: clone: %w", c.Name(), err)
	}
	return clone, nil
}

// Notify reports MissingHostFeature: clips have no dynamic overrides.
func (c *Clip) Notify(name string, single bool, index int) error {
	return status.MissingHostFeature(name, "clip notify")
}

// Reset reports MissingHostFeature: clips have no dynamic overrides.
func (c *Clip) Reset(name string) error {
	return status.MissingHostFeature(name, "clip reset")
}
