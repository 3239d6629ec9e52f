// Package param implements effect parameters: descriptors, the closed set of
// parameter variants, keyframes, and the ParamSet that owns the instances of
// one effect.
//
// # Variants
//
// Integer, Double, Boolean, String, Choice and Composite implement the
// sealed Param interface. Each has typed Get/GetAt/Set/SetAt methods;
// callers that only know a kind tag at runtime go through GetV, SetV,
// DeriveV and friends, which check the expected kind and fail with
// TypeMismatch on disagreement.
//
// # Time
//
// Get and Set act at the owning Set's current time. On a parameter with
// keyframes Set writes a keyframe at that time; without keyframes it
// changes the static value. GetAt is pure: a fixed (time, keyframes) pair
// always yields the same value, and at an exact keyframe time the stored
// value is returned without interpolation.
//
// # Numeric policy
//
// Policy fixes the interpolation between keyframes, the derivative step and
// the integration sample count. Derive and integrate are only defined for
// integer, double and composite parameters.
//
// # Concurrency
//
// Every parameter guards its value state with a RWMutex; a Composite and its
// components share one, so a reader never sees a partially written tuple.
// Property sets follow the single-writer discipline of the owning effect.
package param
