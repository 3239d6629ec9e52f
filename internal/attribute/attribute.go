package attribute

import (
	"fmt"

	"github.com/roach88/ofxhost/internal/identity"
	"github.com/roach88/ofxhost/internal/property"
	"github.com/roach88/ofxhost/internal/status"
)

// Property names common to every descriptor and instance.
const (
	PropName       = "OfxPropName"
	PropLabel      = "OfxPropLabel"
	PropShortLabel = "OfxPropShortLabel"
	PropLongLabel  = "OfxPropLongLabel"
)

// commonSpecs are declared on every attribute. The host assigns the name;
// labels belong to the plugin and are read-only to the host.
var commonSpecs = []property.Spec{
	{Name: PropName, Type: property.TypeString, Dimension: 1, HostSettable: true, Default: property.String("")},
	{Name: PropLabel, Type: property.TypeString, Dimension: 1, Default: property.String("")},
	{Name: PropShortLabel, Type: property.TypeString, Dimension: 1, Default: property.String("")},
	{Name: PropLongLabel, Type: property.TypeString, Dimension: 1, Default: property.String("")},
}

// Accessor is the capability shared by descriptors and instances.
type Accessor interface {
	Name() string
	Label() string
	ShortLabel() string
	LongLabel() string
	Properties() *property.Set
}

// Overrider is implemented by instances that accept host-driven property
// overrides. Implementations without override support return
// MissingHostFeature instead of silently succeeding.
type Overrider interface {
	Notify(name string, single bool, index int) error
	Reset(name string) error
}

type accessor struct {
	props *property.Set
}

// Name returns the attribute name.
func (a accessor) Name() string { return a.str(PropName) }

// Label returns the label, or the name when no label was declared.
func (a accessor) Label() string {
	if l := a.str(PropLabel); l != "" {
		return l
	}
	return a.Name()
}

// ShortLabel returns the short label, falling back to Label.
func (a accessor) ShortLabel() string {
	if l := a.str(PropShortLabel); l != "" {
		return l
	}
	return a.Label()
}

// LongLabel returns the long label, falling back to Label.
func (a accessor) LongLabel() string {
	if l := a.str(PropLongLabel); l != "" {
		return l
	}
	return a.Label()
}

// Properties exposes the underlying property set.
func (a accessor) Properties() *property.Set { return a.props }

func (a accessor) str(name string) string {
	s, _ := a.props.String(name, 0)
	return s
}

// Descriptor is the static schema of an attribute. It is built by the
// schema loader, frozen on publish and shared read-only by every instance.
type Descriptor struct {
	accessor
}

// NewDescriptor creates a descriptor with the common properties plus extra.
func NewDescriptor(name string, extra ...property.Spec) (*Descriptor, error) {
	if name == "" {
		return nil, fmt.Errorf("attribute descriptor: name is empty")
	}
	props, err := property.NewSet(commonSpecs...)
	if err != nil {
		return nil, err
	}
	if err := props.DeclareAll(extra...); err != nil {
		return nil, fmt.Errorf("attribute descriptor %q: %w", name, err)
	}
	if err := props.SetInternal(PropName, 0, property.String(name)); err != nil {
		return nil, err
	}
	return &Descriptor{accessor{props: props}}, nil
}

// SetLabels assigns the three labels. Fails once the descriptor is frozen.
func (d *Descriptor) SetLabels(label, short, long string) error {
	for _, kv := range []struct {
		name, value string
	}{{PropLabel, label}, {PropShortLabel, short}, {PropLongLabel, long}} {
		if err := d.props.SetInternal(kv.name, 0, property.String(kv.value)); err != nil {
			return err
		}
	}
	return nil
}

// Freeze publishes the descriptor. Its properties become read-only.
func (d *Descriptor) Freeze() { d.props.Freeze() }

// Frozen reports whether the descriptor has been published.
func (d *Descriptor) Frozen() bool { return d.props.Frozen() }

// Equal compares property sets only.
func (d *Descriptor) Equal(o *Descriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.props.Equal(o.props)
}

// Instance is a live attribute bound to a descriptor. It owns a private copy
// of the descriptor's properties for runtime state.
//
// Instance has no Clone: copying depends on state only concrete variants
// know about. Variants build their Clone on Fork.
type Instance struct {
	accessor
	id   string
	desc *Descriptor
	ids  identity.Generator
}

// NewInstance binds a new instance to desc. A nil generator uses identity.Default.
func NewInstance(desc *Descriptor, ids identity.Generator) *Instance {
	if ids == nil {
		ids = identity.Default
	}
	return &Instance{
		accessor: accessor{props: desc.props.Clone()},
		id:       ids.Generate(),
		desc:     desc,
		ids:      ids,
	}
}

// ID returns the unique identity of this instance.
func (i *Instance) ID() string { return i.id }

// Descriptor returns the descriptor the instance was created from.
func (i *Instance) Descriptor() *Descriptor { return i.desc }

// Fork returns a new instance over the same descriptor with a copy of the
// current property values and a fresh identity. Hooks are not carried over.
func (i *Instance) Fork() *Instance {
	return &Instance{
		accessor: accessor{props: i.props.Clone()},
		id:       i.ids.Generate(),
		desc:     i.desc,
		ids:      i.ids,
	}
}

// Notify is the default override handler; it reports MissingHostFeature.
func (i *Instance) Notify(name string, single bool, index int) error {
	return status.MissingHostFeature(name, "notify")
}

// Reset is the default reset handler; it reports MissingHostFeature.
func (i *Instance) Reset(name string) error {
	return status.MissingHostFeature(name, "reset")
}

// HookOverrides routes writes of the named properties on props to o.Notify.
func HookOverrides(props *property.Set, o Overrider, names ...string) error {
	hook := property.NotifyFunc(o.Notify)
	for _, name := range names {
		if err := props.AddNotifyHook(name, hook); err != nil {
			return err
		}
	}
	return nil
}
