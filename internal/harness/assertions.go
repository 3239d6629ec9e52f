package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/ofxhost/internal/effect"
	"github.com/roach88/ofxhost/internal/param"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s", ev.Step, ev.Effect, ev.Op, ev.Target)
			if ev.Value != "" {
				fmt.Fprintf(&buf, " = %s", ev.Value)
			}
			if ev.Error != "" {
				fmt.Fprintf(&buf, " (%s)", ev.Error)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

func effectOf(alias string) string {
	if alias == "" {
		return MainEffect
	}
	return alias
}

// assertTraceContains checks if the trace contains a successful step with
// the given op, and optionally effect, param and value text.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Op != a.Op || ev.Error != "" {
			continue
		}
		if a.Effect != "" && ev.Effect != a.Effect {
			continue
		}
		if a.Param != "" && ev.Target != a.Param {
			continue
		}
		if a.Value != "" && ev.Value != a.Value {
			continue
		}
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s on %s %s with value %q", a.Op, effectOf(a.Effect), a.Param, a.Value),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if ops appear in the specified order.
// Ops don't need to be consecutive (intervening steps are allowed).
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Ops) && ev.Op == a.Ops[next] {
			next++
		}
	}
	if next == len(a.Ops) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("ops in order: %v", a.Ops),
		Actual:   fmt.Sprintf("missing %s after %v", a.Ops[next], a.Ops[:next]),
		Trace:    trace,
	}
}

// assertTraceCount checks if the op appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Op == a.Op {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState restores the saved effect into a fresh instance and
// checks one parameter value.
func assertFinalState(actx *AssertionContext, a Assertion) error {
	alias := effectOf(a.Effect)
	id, ok := actx.Effects[alias]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("saved effect %q", alias),
			Actual:   "effect not saved",
		}
	}

	fx, err := actx.Restore(actx.Ctx, id)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("restore effect %q", alias),
			Actual:   fmt.Sprintf("restore error: %v", err),
		}
	}

	p, err := fx.Params().Fetch(a.Param)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("parameter %q", a.Param),
			Actual:   err.Error(),
		}
	}
	t := fx.Params().Time()
	if a.Time != nil {
		t = param.Time(*a.Time)
	}
	got, err := param.GetAtV(p, p.Kind(), t)
	if err != nil {
		return err
	}

	if msg := checkValue(fmt.Sprintf("%s.%s", alias, a.Param), a.Expect, got); msg != "" {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s.%s = %v at %g", alias, a.Param, a.Expect, float64(t)),
			Actual:   msg,
		}
	}
	return nil
}

// AssertionContext provides the saved state for final_state assertions.
type AssertionContext struct {
	Ctx context.Context

	// Effects maps scenario aliases to saved effect IDs.
	Effects map[string]string

	// Restore loads a saved effect into a fresh instance.
	Restore func(ctx context.Context, id string) (*effect.Instance, error)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides saved state for final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Restore == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires saved state", i)
			} else {
				err = assertFinalState(actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
