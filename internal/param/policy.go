package param

import "fmt"

// Interpolation selects how values between two keyframes are computed.
type Interpolation int

const (
	// Linear interpolates numeric values along a straight line.
	Linear Interpolation = iota
	// Step holds the earlier keyframe's value until the next keyframe.
	Step
	// Smooth eases in and out of each keyframe (smoothstep).
	Smooth
)

func (i Interpolation) String() string {
	switch i {
	case Linear:
		return "linear"
	case Step:
		return "step"
	case Smooth:
		return "smooth"
	default:
		return fmt.Sprintf("Interpolation(%d)", int(i))
	}
}

// ParseInterpolation is the inverse of Interpolation.String.
func ParseInterpolation(s string) (Interpolation, error) {
	switch s {
	case "linear", "":
		return Linear, nil
	case "step":
		return Step, nil
	case "smooth":
		return Smooth, nil
	default:
		return 0, fmt.Errorf("unknown interpolation %q", s)
	}
}

// Policy fixes the numeric behaviour of keyframed parameters.
//
// Non-numeric variants (boolean, string, choice) always step between
// keyframes regardless of Interpolation.
type Policy struct {
	Interpolation Interpolation
	// DeriveStep is h in the symmetric difference (f(t+h) - f(t-h)) / 2h.
	DeriveStep float64
	// IntegrateSamples is the number of uniform trapezoid intervals.
	// Keyframe times inside the interval are always added as extra samples.
	IntegrateSamples int
}

// DefaultPolicy returns linear interpolation, a half-frame derivative step
// and 16 integration samples.
func DefaultPolicy() Policy {
	return Policy{Interpolation: Linear, DeriveStep: 0.5, IntegrateSamples: 16}
}

// Validate rejects non-positive steps and sample counts.
func (p Policy) Validate() error {
	if p.DeriveStep <= 0 {
		return fmt.Errorf("policy: derive step must be positive, got %g", p.DeriveStep)
	}
	if p.IntegrateSamples < 1 {
		return fmt.Errorf("policy: integrate samples must be at least 1, got %d", p.IntegrateSamples)
	}
	if p.Interpolation < Linear || p.Interpolation > Smooth {
		return fmt.Errorf("policy: unknown interpolation %d", int(p.Interpolation))
	}
	return nil
}
