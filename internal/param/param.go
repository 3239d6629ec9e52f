package param

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/roach88/ofxhost/internal/attribute"
	"github.com/roach88/ofxhost/internal/identity"
	"github.com/roach88/ofxhost/internal/status"
)

// Param is a live parameter. The set of implementations is closed:
// *Integer, *Double, *Boolean, *String, *Choice and *Composite.
type Param interface {
	attribute.Accessor
	attribute.Overrider

	ID() string
	Kind() Kind
	Descriptor() *Descriptor

	Animated() bool
	KeyframeTimes() []Time
	DeleteKeyframe(t Time) error
	DeleteAllKeyframes() error

	Snapshot() Snapshot
	Restore(s Snapshot) error
	Copy(src Param) error
	Clone() (Param, error)

	core() *base
	attach(s *Set)
	valueAt(t Time) Value
	storeValue(v Value) error
	storeKey(t Time, v Value) error
	deriveAt(t Time) (Value, error)
	integrateOver(t1, t2 Time) (Value, error)
}

// Snapshot is the value state of a parameter: its static value and its
// keyframes. Property overrides are not part of it.
type Snapshot struct {
	Kind      Kind
	Value     Value
	Keyframes []Keyframe[Value]
}

// overridable lists the properties numeric parameters validate on write and
// the host may observe through Set.AddNotifyHook.
var overridable = []string{PropDisplayMin, PropDisplayMax, PropMin, PropMax}

type base struct {
	*attribute.Instance
	desc   *Descriptor
	mu     *sync.RWMutex
	policy Policy
	owner  *Set
	self   Param
	parent *base // composite owning a component; nil otherwise
}

func (b *base) core() *base { return b }

// Kind returns the parameter variant.
func (b *base) Kind() Kind { return b.desc.kind }

// Descriptor returns the parameter descriptor.
func (b *base) Descriptor() *Descriptor { return b.desc }

func (b *base) attach(s *Set) { b.owner = s }

// key is the stable name used by the owning set. The host may rename the
// instance through OfxPropName; the key does not follow.
func (b *base) key() string { return b.desc.Name() }

func (b *base) now() Time {
	if b.owner == nil {
		return 0
	}
	return b.owner.Time()
}

// guard fails with Reentrant while an observer of the parameter, or of the
// composite it is a component of, is running.
func (b *base) guard() error {
	if b.owner == nil {
		return nil
	}
	for p := b; p != nil; p = p.parent {
		if b.owner.notifying(p.key()) {
			return status.Reentrant(p.key())
		}
	}
	return nil
}

// checkTime rejects NaN and infinite times. Keyframe tracks are ordered by
// time and such values have no place in that order.
func (b *base) checkTime(t Time) error {
	if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
		return status.New(status.CodeIndexOutOfRange, b.key(), "time %g is not finite", float64(t))
	}
	return nil
}

func (b *base) changed(t Time, keyframe bool) {
	if b.owner != nil {
		b.owner.publish(Change{Param: b.self, Time: t, Keyframe: keyframe})
	}
}

func (b *base) requireAnimates() error {
	if !b.desc.Animates() {
		return status.NotSettable(b.key(), "parameter does not animate")
	}
	return nil
}

func (b *base) noKeyframe(t Time) error {
	return status.New(status.CodeIndexOutOfRange, b.key(), "no keyframe at time %g", float64(t))
}

// clampAt clamps v to the instance's hard range of component i.
func (b *base) clampAt(i int, v float64) float64 {
	props := b.Properties()
	lo, hi := numberAt(props, PropMin, i), numberAt(props, PropMax, i)
	return math.Max(lo, math.Min(hi, v))
}

// Notify validates range overrides on numeric parameters: min must not
// exceed max and the display range must stay inside the hard range.
// A failure rolls the property write back.
func (b *base) Notify(name string, single bool, index int) error {
	if !b.desc.kind.Numeric() || !slices.Contains(overridable, name) {
		return status.MissingHostFeature(name, "notify")
	}
	props := b.Properties()
	for i := 0; i < b.desc.dim; i++ {
		lo, hi := numberAt(props, PropMin, i), numberAt(props, PropMax, i)
		dlo, dhi := numberAt(props, PropDisplayMin, i), numberAt(props, PropDisplayMax, i)
		if lo > hi {
			return status.New(status.CodeNotSettable, name, "min %g is greater than max %g", lo, hi)
		}
		if dlo > dhi || dlo < lo || dhi > hi {
			return status.New(status.CodeNotSettable, name,
				"display range [%g, %g] is outside hard range [%g, %g]", dlo, dhi, lo, hi)
		}
	}
	return nil
}

// Reset restores a property of a numeric parameter to the descriptor value.
func (b *base) Reset(name string) error {
	if !b.desc.kind.Numeric() {
		return status.MissingHostFeature(name, "reset")
	}
	vals, err := b.desc.Properties().Values(name)
	if err != nil {
		return err
	}
	return b.Properties().SetAllInternal(name, vals)
}

// Copy copies src into the parameter. Parameters of another variant, or
// composites of another dimension, fail with InvalidCast. When both share a
// descriptor the full value state including keyframes is copied; otherwise
// only src's value at its current time.
func (b *base) Copy(src Param) error {
	dst := b.self
	if src.Kind() != dst.Kind() || src.Descriptor().Dimension() != b.desc.Dimension() {
		return status.InvalidCast(b.key(), describe(dst), describe(src))
	}
	if src == dst {
		return nil
	}
	if src.Descriptor() == b.desc {
		return dst.Restore(src.Snapshot())
	}
	return dst.storeValue(src.valueAt(src.core().now()))
}

// Clone returns a new instance with a fresh identity, a copy of the
// property state and the same value state. The clone belongs to no set.
func (b *base) Clone() (Param, error) {
	var kids []*attribute.Instance
	if c, ok := b.self.(*Composite); ok {
		for _, ch := range c.children {
			kids = append(kids, ch.Instance.Fork())
		}
	}
	clone, err := newParam(b.desc, b.Instance.Fork(), kids, b.policy, nil, nil)
	if err != nil {
		return nil, err
	}
	if err := clone.Restore(b.self.Snapshot()); err != nil {
		return nil, err
	}
	return clone, nil
}

func describe(p Param) string {
	if l := p.Descriptor().Layout(); l != "" {
		return fmt.Sprintf("%s(%s)", p.Kind(), l)
	}
	return p.Kind().String()
}

func mismatch(name string, want Kind, got Value) error {
	actual := "nil"
	if got != nil {
		actual = got.Kind().String()
	}
	return status.TypeMismatch(name, want.String(), actual)
}

// Instantiate creates a parameter instance from desc that belongs to no
// set. Its current time is always zero. A nil generator uses identity.Default.
func Instantiate(desc *Descriptor, policy Policy, ids identity.Generator) (Param, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = identity.Default
	}
	return newParam(desc, attribute.NewInstance(desc.Descriptor, ids), nil, policy, ids, nil)
}

// newParam builds the variant for desc over inst. Composite components are
// built over kids when given, fresh instances from ids otherwise. A nil mu
// gives the parameter its own lock.
func newParam(desc *Descriptor, inst *attribute.Instance, kids []*attribute.Instance, policy Policy, ids identity.Generator, mu *sync.RWMutex) (Param, error) {
	if mu == nil {
		mu = new(sync.RWMutex)
	}
	b := base{Instance: inst, desc: desc, mu: mu, policy: policy}

	var p Param
	switch desc.kind {
	case KindInteger:
		p = newInteger(b)
	case KindDouble:
		p = newDouble(b)
	case KindBoolean:
		p = newBoolean(b)
	case KindString:
		p = newString(b)
	case KindChoice:
		p = newChoice(b)
	case KindComposite:
		c := &Composite{base: b}
		for i, cd := range desc.components {
			var ki *attribute.Instance
			if i < len(kids) {
				ki = kids[i]
			} else {
				ki = attribute.NewInstance(cd.Descriptor, ids)
			}
			child, err := newParam(cd, ki, nil, policy, ids, mu)
			if err != nil {
				return nil, err
			}
			ch := child.(*Double)
			ch.parent = &c.base
			// Components clamp against the composite's range so overrides
			// and hooks on the composite apply to every write.
			idx := i
			ch.clamp = func(v float64) float64 { return c.clampAt(idx, v) }
			c.children = append(c.children, ch)
		}
		p = c
	default:
		return nil, fmt.Errorf("param %q: unknown kind %v", desc.Name(), desc.kind)
	}
	p.core().self = p

	if desc.kind.Numeric() {
		if err := attribute.HookOverrides(inst.Properties(), p, overridable...); err != nil {
			return nil, err
		}
	}
	return p, nil
}
