package param

import (
	"math"

	"github.com/roach88/ofxhost/internal/status"
)

// Integer is an integer parameter. Values are clamped to the hard range and
// interpolate to the nearest integer between keyframes.
type Integer struct {
	scalar[int64]
}

func newInteger(b base) *Integer {
	p := &Integer{scalar[int64]{
		base:    b,
		lerp:    lerpInt,
		toFloat: func(v int64) float64 { return float64(v) },
		wrap:    func(v int64) Value { return IntValue(v) },
	}}
	p.value = int64(b.desc.Default().(IntValue))
	p.clamp = func(v int64) int64 {
		props := p.Properties()
		if lo, ok := intAt(props, PropMin, 0); ok && v < lo {
			v = lo
		}
		if hi, ok := intAt(props, PropMax, 0); ok && v > hi {
			v = hi
		}
		return v
	}
	p.unwrap = func(v Value) (int64, error) {
		iv, ok := v.(IntValue)
		if !ok {
			return 0, mismatch(p.key(), KindInteger, v)
		}
		return int64(iv), nil
	}
	return p
}

// Get returns the value at the current time.
func (p *Integer) Get() int64 { return p.getAt(p.now()) }

// GetAt returns the value at t.
func (p *Integer) GetAt(t Time) int64 { return p.getAt(t) }

// Set writes the value at the current time.
func (p *Integer) Set(v int64) error { return p.set(v) }

// SetAt inserts or replaces the keyframe at t.
func (p *Integer) SetAt(t Time, v int64) error { return p.setAt(t, v) }

// Derive returns the rate of change at t in units per frame.
func (p *Integer) Derive(t Time) (float64, error) {
	v, err := p.deriveAt(t)
	if err != nil {
		return 0, err
	}
	return float64(v.(DoubleValue)), nil
}

// Integrate returns the integral of the value over [t1, t2].
func (p *Integer) Integrate(t1, t2 Time) (float64, error) {
	v, err := p.integrateOver(t1, t2)
	if err != nil {
		return 0, err
	}
	return float64(v.(DoubleValue)), nil
}

// Double is a floating point parameter.
type Double struct {
	scalar[float64]
}

func newDouble(b base) *Double {
	p := &Double{scalar[float64]{
		base:    b,
		lerp:    lerpFloat,
		toFloat: func(v float64) float64 { return v },
		wrap:    func(v float64) Value { return DoubleValue(v) },
	}}
	p.value = float64(b.desc.Default().(DoubleValue))
	p.clamp = func(v float64) float64 { return p.clampAt(0, v) }
	p.unwrap = func(v Value) (float64, error) {
		dv, ok := v.(DoubleValue)
		if !ok {
			return 0, mismatch(p.key(), KindDouble, v)
		}
		if math.IsNaN(float64(dv)) {
			return 0, status.New(status.CodeTypeMismatch, p.key(), "value is NaN")
		}
		return float64(dv), nil
	}
	return p
}

// Get returns the value at the current time.
func (p *Double) Get() float64 { return p.getAt(p.now()) }

// GetAt returns the value at t.
func (p *Double) GetAt(t Time) float64 { return p.getAt(t) }

// Set writes the value at the current time.
func (p *Double) Set(v float64) error { return p.storeValue(DoubleValue(v)) }

// SetAt inserts or replaces the keyframe at t.
func (p *Double) SetAt(t Time, v float64) error { return p.storeKey(t, DoubleValue(v)) }

// Derive returns the rate of change at t in units per frame.
func (p *Double) Derive(t Time) (float64, error) {
	v, err := p.deriveAt(t)
	if err != nil {
		return 0, err
	}
	return float64(v.(DoubleValue)), nil
}

// Integrate returns the integral of the value over [t1, t2].
func (p *Double) Integrate(t1, t2 Time) (float64, error) {
	v, err := p.integrateOver(t1, t2)
	if err != nil {
		return 0, err
	}
	return float64(v.(DoubleValue)), nil
}

// Boolean is an on/off parameter. It steps between keyframes.
type Boolean struct {
	scalar[bool]
}

func newBoolean(b base) *Boolean {
	p := &Boolean{scalar[bool]{
		base: b,
		wrap: func(v bool) Value { return BoolValue(v) },
	}}
	p.value = bool(b.desc.Default().(BoolValue))
	p.unwrap = func(v Value) (bool, error) {
		bv, ok := v.(BoolValue)
		if !ok {
			return false, mismatch(p.key(), KindBoolean, v)
		}
		return bool(bv), nil
	}
	return p
}

// Get returns the value at the current time.
func (p *Boolean) Get() bool { return p.getAt(p.now()) }

// GetAt returns the value at t.
func (p *Boolean) GetAt(t Time) bool { return p.getAt(t) }

// Set writes the value at the current time.
func (p *Boolean) Set(v bool) error { return p.set(v) }

// SetAt inserts or replaces the keyframe at t.
func (p *Boolean) SetAt(t Time, v bool) error { return p.setAt(t, v) }

// String is a text parameter. It steps between keyframes.
type String struct {
	scalar[string]
}

func newString(b base) *String {
	p := &String{scalar[string]{
		base: b,
		wrap: func(v string) Value { return StringValue(v) },
	}}
	p.value = string(b.desc.Default().(StringValue))
	p.unwrap = func(v Value) (string, error) {
		sv, ok := v.(StringValue)
		if !ok {
			return "", mismatch(p.key(), KindString, v)
		}
		return string(sv), nil
	}
	return p
}

// Get returns the value at the current time.
func (p *String) Get() string { return p.getAt(p.now()) }

// GetAt returns the value at t.
func (p *String) GetAt(t Time) string { return p.getAt(t) }

// Set writes the value at the current time.
func (p *String) Set(v string) error { return p.set(v) }

// SetAt inserts or replaces the keyframe at t.
func (p *String) SetAt(t Time, v string) error { return p.setAt(t, v) }

// Choice selects one of a fixed list of options. The stored value is the
// option index; Get returns the option label.
type Choice struct {
	scalar[int]
	options []string
}

func newChoice(b base) *Choice {
	p := &Choice{options: b.desc.Options()}
	p.scalar = scalar[int]{
		base: b,
		wrap: func(i int) Value { return ChoiceValue{Index: i, Option: p.options[i]} },
	}
	p.value = b.desc.Default().(ChoiceValue).Index
	p.unwrap = func(v Value) (int, error) {
		cv, ok := v.(ChoiceValue)
		if !ok {
			return 0, mismatch(p.key(), KindChoice, v)
		}
		return cv.Index, p.checkIndex(cv.Index)
	}
	return p
}

func (p *Choice) checkIndex(i int) error {
	if i < 0 || i >= len(p.options) {
		return status.IndexOutOfRange(p.key(), i, len(p.options))
	}
	return nil
}

// Options returns the option labels in index order.
func (p *Choice) Options() []string { return append([]string(nil), p.options...) }

// Get returns the selected option label at the current time.
func (p *Choice) Get() string { return p.options[p.Index()] }

// GetAt returns the selected option label at t.
func (p *Choice) GetAt(t Time) string { return p.options[p.IndexAt(t)] }

// Index returns the selected index at the current time.
func (p *Choice) Index() int { return p.getAt(p.now()) }

// IndexAt returns the selected index at t.
func (p *Choice) IndexAt(t Time) int { return p.getAt(t) }

// Set selects option i. An index outside the options fails with
// IndexOutOfRange and leaves the selection unchanged.
func (p *Choice) Set(i int) error {
	if err := p.checkIndex(i); err != nil {
		return err
	}
	return p.set(i)
}

// SetAt selects option i from the keyframe at t.
func (p *Choice) SetAt(t Time, i int) error {
	if err := p.checkIndex(i); err != nil {
		return err
	}
	return p.setAt(t, i)
}
