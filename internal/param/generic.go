package param

import (
	"github.com/roach88/ofxhost/internal/status"
)

// The generic accessor serves callers that know a parameter only by its
// runtime kind tag. Every read takes the kind the caller expects and fails
// with TypeMismatch when the parameter is of another kind; writes take the
// kind from the envelope.

func expectKind(p Param, expect Kind) error {
	if p.Kind() != expect {
		return status.TypeMismatch(p.Descriptor().Name(), expect.String(), p.Kind().String())
	}
	return nil
}

// GetV returns the value of p at its current time.
func GetV(p Param, expect Kind) (Value, error) {
	if err := expectKind(p, expect); err != nil {
		return nil, err
	}
	return p.valueAt(p.core().now()), nil
}

// GetAtV returns the value of p at t.
func GetAtV(p Param, expect Kind, t Time) (Value, error) {
	if err := expectKind(p, expect); err != nil {
		return nil, err
	}
	return p.valueAt(t), nil
}

// SetV writes v to p at its current time.
func SetV(p Param, v Value) error {
	if v == nil {
		return mismatch(p.Descriptor().Name(), p.Kind(), nil)
	}
	if err := expectKind(p, v.Kind()); err != nil {
		return err
	}
	return p.storeValue(v)
}

// SetAtV writes v as the keyframe of p at t.
func SetAtV(p Param, t Time, v Value) error {
	if v == nil {
		return mismatch(p.Descriptor().Name(), p.Kind(), nil)
	}
	if err := expectKind(p, v.Kind()); err != nil {
		return err
	}
	return p.storeKey(t, v)
}

// DeriveV returns the rate of change of p at t. Integer and double
// parameters yield a DoubleValue, composites a TupleValue. Boolean, string
// and choice parameters fail with Unsupported.
func DeriveV(p Param, expect Kind, t Time) (Value, error) {
	if err := expectKind(p, expect); err != nil {
		return nil, err
	}
	return p.deriveAt(t)
}

// IntegrateV returns the integral of p over [t1, t2], with the same result
// kinds and failures as DeriveV.
func IntegrateV(p Param, expect Kind, t1, t2 Time) (Value, error) {
	if err := expectKind(p, expect); err != nil {
		return nil, err
	}
	return p.integrateOver(t1, t2)
}
