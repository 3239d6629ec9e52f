package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTrack(keys ...Keyframe[float64]) *track[float64] {
	tr := &track[float64]{}
	for _, k := range keys {
		tr.set(k.Time, k.Value)
	}
	return tr
}

func TestTrack_KeepsTimesSortedAndUnique(t *testing.T) {
	tr := newTrack(
		Keyframe[float64]{Time: 10, Value: 1},
		Keyframe[float64]{Time: 0, Value: 0},
		Keyframe[float64]{Time: 5, Value: 3},
	)
	tr.set(5, 4)

	assert.Equal(t, []Time{0, 5, 10}, tr.times())
	assert.Equal(t, 4.0, tr.eval(5, Linear, lerpFloat))
}

func TestTrack_Eval(t *testing.T) {
	tr := newTrack(Keyframe[float64]{Time: 0, Value: 0}, Keyframe[float64]{Time: 4, Value: 1})

	tests := []struct {
		name string
		at   Time
		mode Interpolation
		want float64
	}{
		{"before first", -3, Linear, 0},
		{"after last", 9, Linear, 1},
		{"exact", 4, Smooth, 1},
		{"linear", 1, Linear, 0.25},
		{"step", 3, Step, 0},
		{"smooth", 1, Smooth, 0.15625},
		{"smooth midpoint", 2, Smooth, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.eval(tt.at, tt.mode, lerpFloat))
		})
	}
}

func TestTrack_NilLerpSteps(t *testing.T) {
	tr := &track[string]{}
	tr.set(0, "a")
	tr.set(10, "b")

	assert.Equal(t, "a", tr.eval(9.9, Linear, nil))
	assert.Equal(t, "b", tr.eval(10, Linear, nil))
}

func TestTrack_Delete(t *testing.T) {
	tr := newTrack(Keyframe[float64]{Time: 1, Value: 1})

	assert.False(t, tr.delete(2))
	assert.True(t, tr.delete(1))
	assert.Equal(t, 0, tr.len())
}

func TestLerpInt_Rounds(t *testing.T) {
	assert.Equal(t, int64(3), lerpInt(0, 10, 0.25))
	assert.Equal(t, int64(-3), lerpInt(0, -10, 0.25))
}

func TestIntegrate_ReversedBoundsNegate(t *testing.T) {
	f := func(t Time) []float64 { return []float64{float64(t)} }

	fwd := integrate(f, 0, 4, 4, nil)
	rev := integrate(f, 4, 0, 4, nil)
	assert.InDelta(t, 8, fwd[0], 1e-12)
	assert.InDelta(t, -8, rev[0], 1e-12)
	assert.Equal(t, []float64{0}, integrate(f, 2, 2, 4, nil))
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())
	assert.Error(t, Policy{DeriveStep: 0, IntegrateSamples: 4}.Validate())
	assert.Error(t, Policy{DeriveStep: 1, IntegrateSamples: 0}.Validate())

	mode, err := ParseInterpolation("smooth")
	assert.NoError(t, err)
	assert.Equal(t, Smooth, mode)
	_, err = ParseInterpolation("cubic")
	assert.Error(t, err)
}
