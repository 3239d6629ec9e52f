package property

import (
	"fmt"
	"slices"

	"github.com/roach88/ofxhost/internal/status"
)

// Spec declares one property. Specs are immutable once declared.
type Spec struct {
	Name         string
	Type         Type
	Dimension    int
	HostSettable bool
	Default      Value
}

// NotifyHook observes writes to a property. It runs after the new value is
// stored, so Get from inside the hook sees the post-state. Returning an error
// rolls the write back.
type NotifyHook interface {
	Notify(name string, single bool, index int) error
}

// NotifyFunc adapts a function to NotifyHook.
type NotifyFunc func(name string, single bool, index int) error

// Notify implements NotifyHook.
func (f NotifyFunc) Notify(name string, single bool, index int) error {
	return f(name, single, index)
}

// GetHook computes a property value lazily. When registered its result is
// authoritative and the stored value is ignored.
type GetHook interface {
	GetValue(name string, index int) (Value, error)
}

// GetFunc adapts a function to GetHook.
type GetFunc func(name string, index int) (Value, error)

// GetValue implements GetHook.
func (f GetFunc) GetValue(name string, index int) (Value, error) {
	return f(name, index)
}

// Set is a typed, ordered store of named fixed-dimension properties.
//
// Set does no internal locking. It is owned by exactly one descriptor or
// instance and follows that owner's single-writer discipline; a frozen Set
// may be read from any goroutine.
type Set struct {
	specs  map[string]Spec
	order  []string
	values map[string][]Value
	notify map[string]NotifyHook
	get    map[string]GetHook
	active map[string]bool // names whose notify hook is running
	frozen bool
}

// NewSet creates a Set with the given properties declared in order.
func NewSet(specs ...Spec) (*Set, error) {
	s := &Set{
		specs:  make(map[string]Spec),
		values: make(map[string][]Value),
		notify: make(map[string]NotifyHook),
		get:    make(map[string]GetHook),
		active: make(map[string]bool),
	}
	if err := s.DeclareAll(specs...); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNewSet is NewSet for static spec tables. It panics on error.
func MustNewSet(specs ...Spec) *Set {
	s, err := NewSet(specs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Declare registers a property. Redeclaring an identical spec is a no-op;
// redeclaring a name with a different spec fails with DuplicateProperty.
func (s *Set) Declare(spec Spec) error {
	if s.frozen {
		return status.NotSettable(spec.Name, "property set is frozen")
	}
	if spec.Name == "" {
		return fmt.Errorf("declare: property name is empty")
	}
	if spec.Dimension < 1 {
		return status.New(status.CodeIndexOutOfRange, spec.Name, "dimension %d must be at least 1", spec.Dimension)
	}
	if spec.Default == nil {
		spec.Default = Zero(spec.Type)
	}
	if spec.Default == nil || spec.Default.Type() != spec.Type {
		return status.TypeMismatch(spec.Name, spec.Type.String(), typeName(spec.Default))
	}

	if existing, ok := s.specs[spec.Name]; ok {
		if existing == spec {
			return nil
		}
		return status.New(status.CodeDuplicateProperty, spec.Name, "already declared with a different spec")
	}

	vals := make([]Value, spec.Dimension)
	for i := range vals {
		vals[i] = spec.Default
	}
	s.specs[spec.Name] = spec
	s.values[spec.Name] = vals
	s.order = append(s.order, spec.Name)
	return nil
}

// DeclareAll declares every spec in order, stopping at the first error.
func (s *Set) DeclareAll(specs ...Spec) error {
	for _, spec := range specs {
		if err := s.Declare(spec); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether name is declared.
func (s *Set) Has(name string) bool {
	_, ok := s.specs[name]
	return ok
}

// Spec returns the declaration of name.
func (s *Set) Spec(name string) (Spec, bool) {
	spec, ok := s.specs[name]
	return spec, ok
}

// Names returns every declared name in declaration order.
func (s *Set) Names() []string {
	return slices.Clone(s.order)
}

// Len returns the number of declared properties.
func (s *Set) Len() int {
	return len(s.order)
}

// Dimension returns the declared dimension of name.
func (s *Set) Dimension(name string) (int, error) {
	spec, ok := s.specs[name]
	if !ok {
		return 0, status.UnknownProperty(name)
	}
	return spec.Dimension, nil
}

// Get returns the value of name at index.
func (s *Set) Get(name string, index int) (Value, error) {
	spec, err := s.lookup(name, index)
	if err != nil {
		return nil, err
	}
	if hook := s.get[name]; hook != nil {
		v, err := hook.GetValue(name, index)
		if err != nil {
			return nil, err
		}
		if v == nil || v.Type() != spec.Type {
			return nil, status.TypeMismatch(name, spec.Type.String(), typeName(v))
		}
		return v, nil
	}
	return s.values[name][index], nil
}

// Values returns all values of name, honouring a registered get hook.
func (s *Set) Values(name string) ([]Value, error) {
	spec, ok := s.specs[name]
	if !ok {
		return nil, status.UnknownProperty(name)
	}
	out := make([]Value, spec.Dimension)
	for i := range out {
		v, err := s.Get(name, i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// String returns a string property value.
func (s *Set) String(name string, index int) (string, error) {
	v, err := s.Get(name, index)
	if err != nil {
		return "", err
	}
	sv, ok := v.(String)
	if !ok {
		return "", status.TypeMismatch(name, TypeString.String(), v.Type().String())
	}
	return string(sv), nil
}

// Int returns an integer property value.
func (s *Set) Int(name string, index int) (int64, error) {
	v, err := s.Get(name, index)
	if err != nil {
		return 0, err
	}
	iv, ok := v.(Int)
	if !ok {
		return 0, status.TypeMismatch(name, TypeInt.String(), v.Type().String())
	}
	return int64(iv), nil
}

// Bool returns an integer property value interpreted as a flag.
func (s *Set) Bool(name string, index int) (bool, error) {
	n, err := s.Int(name, index)
	return n != 0, err
}

// Double returns a floating point property value.
func (s *Set) Double(name string, index int) (float64, error) {
	v, err := s.Get(name, index)
	if err != nil {
		return 0, err
	}
	dv, ok := v.(Double)
	if !ok {
		return 0, status.TypeMismatch(name, TypeDouble.String(), v.Type().String())
	}
	return float64(dv), nil
}

// Pointer returns a pointer property value.
func (s *Set) Pointer(name string, index int) (uintptr, error) {
	v, err := s.Get(name, index)
	if err != nil {
		return 0, err
	}
	pv, ok := v.(Pointer)
	if !ok {
		return 0, status.TypeMismatch(name, TypePointer.String(), v.Type().String())
	}
	return uintptr(pv), nil
}

// Set writes one value through the host-facing path. Properties not marked
// HostSettable fail with NotSettable.
func (s *Set) Set(name string, index int, v Value) error {
	if spec, ok := s.specs[name]; ok && !spec.HostSettable {
		return status.NotSettable(name, "property is read-only to the host")
	}
	return s.SetInternal(name, index, v)
}

// SetInternal writes one value without the HostSettable check. It is the
// writer used by descriptors, schema loaders and instances themselves.
func (s *Set) SetInternal(name string, index int, v Value) error {
	if s.frozen {
		return status.NotSettable(name, "property set is frozen")
	}
	spec, err := s.lookup(name, index)
	if err != nil {
		return err
	}
	if v == nil || v.Type() != spec.Type {
		return status.TypeMismatch(name, spec.Type.String(), typeName(v))
	}
	if s.active[name] {
		return status.Reentrant(name)
	}

	vals := s.values[name]
	prev := vals[index]
	vals[index] = v
	if err := s.fire(name, true, index); err != nil {
		vals[index] = prev
		return err
	}
	return nil
}

// SetAll replaces every value of name through the host-facing path.
func (s *Set) SetAll(name string, vals []Value) error {
	if spec, ok := s.specs[name]; ok && !spec.HostSettable {
		return status.NotSettable(name, "property is read-only to the host")
	}
	return s.SetAllInternal(name, vals)
}

// SetAllInternal replaces every value of name. The notify hook runs once
// with single=false and index equal to the dimension.
func (s *Set) SetAllInternal(name string, vals []Value) error {
	if s.frozen {
		return status.NotSettable(name, "property set is frozen")
	}
	spec, ok := s.specs[name]
	if !ok {
		return status.UnknownProperty(name)
	}
	if len(vals) != spec.Dimension {
		return status.New(status.CodeIndexOutOfRange, name, "got %d values for dimension %d", len(vals), spec.Dimension)
	}
	for _, v := range vals {
		if v == nil || v.Type() != spec.Type {
			return status.TypeMismatch(name, spec.Type.String(), typeName(v))
		}
	}
	if s.active[name] {
		return status.Reentrant(name)
	}

	prev := s.values[name]
	s.values[name] = slices.Clone(vals)
	if err := s.fire(name, false, spec.Dimension); err != nil {
		s.values[name] = prev
		return err
	}
	return nil
}

// Reset restores every value of name to its declared default.
func (s *Set) Reset(name string) error {
	spec, ok := s.specs[name]
	if !ok {
		return status.UnknownProperty(name)
	}
	vals := make([]Value, spec.Dimension)
	for i := range vals {
		vals[i] = spec.Default
	}
	return s.SetAllInternal(name, vals)
}

// AddNotifyHook registers the notify hook for name, replacing any previous
// one. A nil hook removes it.
func (s *Set) AddNotifyHook(name string, hook NotifyHook) error {
	if !s.Has(name) {
		return status.UnknownProperty(name)
	}
	if hook == nil {
		delete(s.notify, name)
		return nil
	}
	s.notify[name] = hook
	return nil
}

// AddGetHook registers the get hook for name, replacing any previous one.
// A nil hook removes it.
func (s *Set) AddGetHook(name string, hook GetHook) error {
	if !s.Has(name) {
		return status.UnknownProperty(name)
	}
	if hook == nil {
		delete(s.get, name)
		return nil
	}
	s.get[name] = hook
	return nil
}

// Freeze makes the set read-only. Every later Declare or write fails with
// NotSettable. Hooks may still be registered on a frozen set.
func (s *Set) Freeze() {
	s.frozen = true
}

// Frozen reports whether Freeze was called.
func (s *Set) Frozen() bool {
	return s.frozen
}

// Clone returns an unfrozen deep copy of specs and stored values.
// Hooks belong to the owner of the original and are not copied.
func (s *Set) Clone() *Set {
	c := &Set{
		specs:  make(map[string]Spec, len(s.specs)),
		order:  slices.Clone(s.order),
		values: make(map[string][]Value, len(s.values)),
		notify: make(map[string]NotifyHook),
		get:    make(map[string]GetHook),
		active: make(map[string]bool),
	}
	for name, spec := range s.specs {
		c.specs[name] = spec
		c.values[name] = slices.Clone(s.values[name])
	}
	return c
}

// Equal reports whether both sets declare the same specs and store the same
// values. Declaration order and hooks are not compared.
func (s *Set) Equal(o *Set) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil || len(s.specs) != len(o.specs) {
		return false
	}
	for name, spec := range s.specs {
		if ospec, ok := o.specs[name]; !ok || ospec != spec {
			return false
		}
		if !slices.Equal(s.values[name], o.values[name]) {
			return false
		}
	}
	return true
}

func (s *Set) lookup(name string, index int) (Spec, error) {
	spec, ok := s.specs[name]
	if !ok {
		return Spec{}, status.UnknownProperty(name)
	}
	if index < 0 || index >= spec.Dimension {
		return Spec{}, status.IndexOutOfRange(name, index, spec.Dimension)
	}
	return spec, nil
}

func (s *Set) fire(name string, single bool, index int) error {
	hook := s.notify[name]
	if hook == nil {
		return nil
	}
	s.active[name] = true
	defer delete(s.active, name)
	return hook.Notify(name, single, index)
}

func typeName(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.Type().String()
}
