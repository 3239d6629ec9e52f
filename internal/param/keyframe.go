package param

import (
	"math"
	"slices"
	"sort"
)

// Keyframe is a (time, value) sample.
type Keyframe[T any] struct {
	Time  Time
	Value T
}

// lerpFunc blends a toward b by u in [0, 1]. A nil lerpFunc means the
// variant steps between keyframes.
type lerpFunc[T any] func(a, b T, u float64) T

// track is a keyframe list kept sorted by time with unique times.
type track[T any] struct {
	keys []Keyframe[T]
}

func (tr *track[T]) len() int { return len(tr.keys) }

func (tr *track[T]) search(t Time) (int, bool) {
	i := sort.Search(len(tr.keys), func(i int) bool { return tr.keys[i].Time >= t })
	return i, i < len(tr.keys) && tr.keys[i].Time == t
}

// set inserts a keyframe or replaces the value of an existing one.
func (tr *track[T]) set(t Time, v T) {
	i, found := tr.search(t)
	if found {
		tr.keys[i].Value = v
		return
	}
	tr.keys = slices.Insert(tr.keys, i, Keyframe[T]{Time: t, Value: v})
}

func (tr *track[T]) delete(t Time) bool {
	i, found := tr.search(t)
	if !found {
		return false
	}
	tr.keys = slices.Delete(tr.keys, i, i+1)
	return true
}

func (tr *track[T]) clear() { tr.keys = nil }

func (tr *track[T]) times() []Time {
	out := make([]Time, len(tr.keys))
	for i, k := range tr.keys {
		out[i] = k.Time
	}
	return out
}

func (tr *track[T]) snapshot() []Keyframe[T] { return slices.Clone(tr.keys) }

// eval returns the value at t. The caller ensures the track is not empty.
// At an exact keyframe time the stored value is returned untouched.
func (tr *track[T]) eval(t Time, mode Interpolation, lerp lerpFunc[T]) T {
	i, found := tr.search(t)
	switch {
	case found:
		return tr.keys[i].Value
	case i == 0:
		return tr.keys[0].Value
	case i == len(tr.keys):
		return tr.keys[len(tr.keys)-1].Value
	}

	a, b := tr.keys[i-1], tr.keys[i]
	if lerp == nil || mode == Step {
		return a.Value
	}
	u := float64(t-a.Time) / float64(b.Time-a.Time)
	if mode == Smooth {
		u = u * u * (3 - 2*u)
	}
	return lerp(a.Value, b.Value, u)
}

func lerpFloat(a, b, u float64) float64 { return a + (b-a)*u }

func lerpInt(a, b int64, u float64) int64 {
	return int64(math.Round(lerpFloat(float64(a), float64(b), u)))
}

// mergeTimes returns the sorted union of the given time lists.
func mergeTimes(lists ...[]Time) []Time {
	var out []Time
	for _, l := range lists {
		out = append(out, l...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
