package param

import (
	"github.com/roach88/ofxhost/internal/status"
)

// scalar holds the value state shared by the single-valued variants. All
// fields below base are guarded by base.mu.
type scalar[T any] struct {
	base
	value T
	keys  track[T]

	lerp    lerpFunc[T]     // nil: step between keyframes
	toFloat func(T) float64 // nil: not numeric
	clamp   func(T) T       // nil: no hard range
	wrap    func(T) Value
	unwrap  func(Value) (T, error)
}

func (s *scalar[T]) getAt(t Time) T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evalLocked(t)
}

func (s *scalar[T]) evalLocked(t Time) T {
	if s.keys.len() == 0 {
		return s.value
	}
	return s.keys.eval(t, s.policy.Interpolation, s.lerp)
}

func (s *scalar[T]) clamped(v T) T {
	if s.clamp == nil {
		return v
	}
	return s.clamp(v)
}

// setLocked writes v at t. An animated parameter gets a keyframe at t;
// otherwise the static value changes. It reports whether a keyframe was
// written.
func (s *scalar[T]) setLocked(t Time, v T) bool {
	v = s.clamped(v)
	if s.keys.len() > 0 {
		s.keys.set(t, v)
		return true
	}
	s.value = v
	return false
}

func (s *scalar[T]) set(v T) error {
	if err := s.guard(); err != nil {
		return err
	}
	t := s.now()
	if err := s.checkTime(t); err != nil {
		return err
	}
	s.mu.Lock()
	keyed := s.setLocked(t, v)
	s.mu.Unlock()
	s.changed(t, keyed)
	return nil
}

func (s *scalar[T]) setAt(t Time, v T) error {
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.requireAnimates(); err != nil {
		return err
	}
	if err := s.checkTime(t); err != nil {
		return err
	}
	s.mu.Lock()
	s.keys.set(t, s.clamped(v))
	s.mu.Unlock()
	s.changed(t, true)
	return nil
}

// Animated reports whether the parameter has keyframes.
func (s *scalar[T]) Animated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.len() > 0
}

// KeyframeTimes returns the keyframe times in ascending order.
func (s *scalar[T]) KeyframeTimes() []Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.times()
}

// DeleteKeyframe removes the keyframe at exactly t.
func (s *scalar[T]) DeleteKeyframe(t Time) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.mu.Lock()
	ok := s.keys.delete(t)
	s.mu.Unlock()
	if !ok {
		return s.noKeyframe(t)
	}
	s.changed(t, true)
	return nil
}

// DeleteAllKeyframes removes every keyframe. The value at the current time
// becomes the static value.
func (s *scalar[T]) DeleteAllKeyframes() error {
	if err := s.guard(); err != nil {
		return err
	}
	t := s.now()
	s.mu.Lock()
	if s.keys.len() > 0 {
		s.value = s.evalLocked(t)
		s.keys.clear()
	}
	s.mu.Unlock()
	s.changed(t, false)
	return nil
}

// Snapshot captures the static value and keyframes.
func (s *scalar[T]) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Kind: s.Kind(), Value: s.wrap(s.value)}
	for _, k := range s.keys.keys {
		snap.Keyframes = append(snap.Keyframes, Keyframe[Value]{Time: k.Time, Value: s.wrap(k.Value)})
	}
	return snap
}

// Restore replaces the value state with snap. Values are clamped to the
// current hard range. Nothing changes if any value fails to convert.
func (s *scalar[T]) Restore(snap Snapshot) error {
	if snap.Kind != s.Kind() {
		return status.TypeMismatch(s.key(), s.Kind().String(), snap.Kind.String())
	}
	value, err := s.unwrap(snap.Value)
	if err != nil {
		return err
	}
	keys := make([]Keyframe[T], 0, len(snap.Keyframes))
	for _, k := range snap.Keyframes {
		if err := s.checkTime(k.Time); err != nil {
			return err
		}
		v, err := s.unwrap(k.Value)
		if err != nil {
			return err
		}
		keys = append(keys, Keyframe[T]{Time: k.Time, Value: v})
	}
	if err := s.guard(); err != nil {
		return err
	}

	s.mu.Lock()
	s.value = s.clamped(value)
	s.keys.clear()
	for _, k := range keys {
		s.keys.set(k.Time, s.clamped(k.Value))
	}
	s.mu.Unlock()
	s.changed(s.now(), len(keys) > 0)
	return nil
}

func (s *scalar[T]) valueAt(t Time) Value { return s.wrap(s.getAt(t)) }

func (s *scalar[T]) storeValue(v Value) error {
	x, err := s.unwrap(v)
	if err != nil {
		return err
	}
	return s.set(x)
}

func (s *scalar[T]) storeKey(t Time, v Value) error {
	x, err := s.unwrap(v)
	if err != nil {
		return err
	}
	return s.setAt(t, x)
}

func (s *scalar[T]) sample(t Time) []float64 {
	return []float64{s.toFloat(s.evalLocked(t))}
}

func (s *scalar[T]) deriveAt(t Time) (Value, error) {
	if s.toFloat == nil {
		return nil, status.Unsupported(s.key(), "derive")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return DoubleValue(derive(s.sample, t, s.policy.DeriveStep)[0]), nil
}

func (s *scalar[T]) integrateOver(t1, t2 Time) (Value, error) {
	if s.toFloat == nil {
		return nil, status.Unsupported(s.key(), "integrate")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := integrate(s.sample, t1, t2, s.policy.IntegrateSamples, s.keys.times())
	return DoubleValue(sum[0]), nil
}
