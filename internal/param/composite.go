package param

import (
	"math"
	"slices"

	"github.com/roach88/ofxhost/internal/status"
)

// Composite is a multi-component double parameter such as an RGB colour or
// a 2D position. It owns exactly one Double per component and all of them
// share the composite's lock, so reads and writes of the whole tuple are
// atomic.
type Composite struct {
	base
	children []*Double
}

func (c *Composite) attach(s *Set) {
	c.base.attach(s)
	for _, ch := range c.children {
		ch.attach(s)
	}
}

// Dimension returns the number of components.
func (c *Composite) Dimension() int { return len(c.children) }

// Component returns the parameter of component i. Writes through it are
// atomic per component only.
func (c *Composite) Component(i int) (*Double, error) {
	if i < 0 || i >= len(c.children) {
		return nil, status.IndexOutOfRange(c.key(), i, len(c.children))
	}
	return c.children[i], nil
}

// Get returns every component at the current time.
func (c *Composite) Get() []float64 { return c.GetAt(c.now()) }

// GetAt returns every component at t.
func (c *Composite) GetAt(t Time) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.evalLocked(t)
}

func (c *Composite) evalLocked(t Time) []float64 {
	out := make([]float64, len(c.children))
	for i, ch := range c.children {
		out[i] = ch.evalLocked(t)
	}
	return out
}

// Set writes all components at the current time in one step.
func (c *Composite) Set(vals ...float64) error {
	return c.write(c.now(), false, vals)
}

// SetAt writes a keyframe for all components at t in one step.
func (c *Composite) SetAt(t Time, vals ...float64) error {
	return c.write(t, true, vals)
}

func (c *Composite) write(t Time, timed bool, vals []float64) error {
	if len(vals) != len(c.children) {
		return status.New(status.CodeIndexOutOfRange, c.key(),
			"got %d components for dimension %d", len(vals), len(c.children))
	}
	if err := c.guard(); err != nil {
		return err
	}
	if timed {
		if err := c.requireAnimates(); err != nil {
			return err
		}
	}
	if err := c.checkTime(t); err != nil {
		return err
	}
	if slices.ContainsFunc(vals, math.IsNaN) {
		return status.New(status.CodeTypeMismatch, c.key(), "value is NaN")
	}

	c.mu.Lock()
	keyed := timed
	for i, ch := range c.children {
		switch {
		case timed:
			ch.keys.set(t, ch.clamped(vals[i]))
		case ch.setLocked(t, vals[i]):
			keyed = true
		}
	}
	c.mu.Unlock()
	c.changed(t, keyed)
	return nil
}

// Derive returns the per-component rate of change at t.
func (c *Composite) Derive(t Time) ([]float64, error) {
	v, err := c.deriveAt(t)
	if err != nil {
		return nil, err
	}
	return v.(TupleValue), nil
}

// Integrate returns the per-component integral over [t1, t2].
func (c *Composite) Integrate(t1, t2 Time) ([]float64, error) {
	v, err := c.integrateOver(t1, t2)
	if err != nil {
		return nil, err
	}
	return v.(TupleValue), nil
}

// Animated reports whether any component has keyframes.
func (c *Composite) Animated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.children {
		if ch.keys.len() > 0 {
			return true
		}
	}
	return false
}

// KeyframeTimes returns the union of the component keyframe times.
func (c *Composite) KeyframeTimes() []Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timesLocked()
}

func (c *Composite) timesLocked() []Time {
	lists := make([][]Time, len(c.children))
	for i, ch := range c.children {
		lists[i] = ch.keys.times()
	}
	return mergeTimes(lists...)
}

// DeleteKeyframe removes the keyframe at t from every component.
func (c *Composite) DeleteKeyframe(t Time) error {
	if err := c.guard(); err != nil {
		return err
	}
	c.mu.Lock()
	found := false
	for _, ch := range c.children {
		if ch.keys.delete(t) {
			found = true
		}
	}
	c.mu.Unlock()
	if !found {
		return c.noKeyframe(t)
	}
	c.changed(t, true)
	return nil
}

// DeleteAllKeyframes removes every keyframe. The tuple at the current time
// becomes the static value.
func (c *Composite) DeleteAllKeyframes() error {
	if err := c.guard(); err != nil {
		return err
	}
	t := c.now()
	c.mu.Lock()
	for _, ch := range c.children {
		if ch.keys.len() > 0 {
			ch.value = ch.evalLocked(t)
			ch.keys.clear()
		}
	}
	c.mu.Unlock()
	c.changed(t, false)
	return nil
}

// Snapshot captures the static tuple and one tuple keyframe per time any
// component is keyed at.
func (c *Composite) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	static := make(TupleValue, len(c.children))
	for i, ch := range c.children {
		static[i] = ch.value
	}
	snap := Snapshot{Kind: KindComposite, Value: static}
	for _, t := range c.timesLocked() {
		snap.Keyframes = append(snap.Keyframes, Keyframe[Value]{Time: t, Value: TupleValue(c.evalLocked(t))})
	}
	return snap
}

// Restore replaces the value state of every component with snap.
func (c *Composite) Restore(snap Snapshot) error {
	if snap.Kind != KindComposite {
		return status.TypeMismatch(c.key(), KindComposite.String(), snap.Kind.String())
	}
	static, err := c.unwrap(snap.Value)
	if err != nil {
		return err
	}
	keys := make([]Keyframe[TupleValue], 0, len(snap.Keyframes))
	for _, k := range snap.Keyframes {
		if err := c.checkTime(k.Time); err != nil {
			return err
		}
		v, err := c.unwrap(k.Value)
		if err != nil {
			return err
		}
		keys = append(keys, Keyframe[TupleValue]{Time: k.Time, Value: v})
	}
	if err := c.guard(); err != nil {
		return err
	}

	c.mu.Lock()
	for i, ch := range c.children {
		ch.value = ch.clamped(static[i])
		ch.keys.clear()
		for _, k := range keys {
			ch.keys.set(k.Time, ch.clamped(k.Value[i]))
		}
	}
	c.mu.Unlock()
	c.changed(c.now(), len(keys) > 0)
	return nil
}

func (c *Composite) unwrap(v Value) (TupleValue, error) {
	tv, ok := v.(TupleValue)
	if !ok {
		return nil, mismatch(c.key(), KindComposite, v)
	}
	if len(tv) != len(c.children) {
		return nil, status.New(status.CodeIndexOutOfRange, c.key(),
			"got %d components for dimension %d", len(tv), len(c.children))
	}
	if slices.ContainsFunc(tv, math.IsNaN) {
		return nil, status.New(status.CodeTypeMismatch, c.key(), "value is NaN")
	}
	return tv, nil
}

func (c *Composite) valueAt(t Time) Value { return TupleValue(c.GetAt(t)) }

func (c *Composite) storeValue(v Value) error {
	tv, err := c.unwrap(v)
	if err != nil {
		return err
	}
	return c.write(c.now(), false, tv)
}

func (c *Composite) storeKey(t Time, v Value) error {
	tv, err := c.unwrap(v)
	if err != nil {
		return err
	}
	return c.write(t, true, tv)
}

func (c *Composite) deriveAt(t Time) (Value, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return TupleValue(derive(c.evalLocked, t, c.policy.DeriveStep)), nil
}

func (c *Composite) integrateOver(t1, t2 Time) (Value, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return TupleValue(integrate(c.evalLocked, t1, t2, c.policy.IntegrateSamples, c.timesLocked())), nil
}
