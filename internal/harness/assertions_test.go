package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ofxhost/internal/effect"
)

func sampleTrace() []TraceEvent {
	five := 5.0
	return []TraceEvent{
		{Step: 1, Op: OpConnect, Effect: MainEffect, Target: "Source", Value: "true"},
		{Step: 2, Op: OpSetAt, Effect: MainEffect, Target: "radius", Time: &five, Value: "20"},
		{Step: 3, Op: OpGet, Effect: MainEffect, Target: "size", Error: "UNKNOWN_PARAMETER"},
		{Step: 4, Op: OpClone, Effect: MainEffect, Target: "copy"},
		{Step: 5, Op: OpRender, Effect: "copy", Time: &five, Value: "radius=20"},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Op: OpSetAt, Param: "radius", Value: "20"}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Op: OpRender, Effect: "copy"}))

	err := assertTraceContains(trace, Assertion{Op: OpRender, Effect: MainEffect})
	require.Error(t, err)

	var aerr *AssertionError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, AssertTraceContains, aerr.Type)
	assert.Contains(t, err.Error(), "Full trace:")
	assert.Contains(t, err.Error(), "[3] main get size (UNKNOWN_PARAMETER)")

	assert.Error(t, assertTraceContains(trace, Assertion{Op: OpGet, Param: "size"}), "failed steps do not count")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Ops: []string{OpConnect, OpClone, OpRender}}))

	err := assertTraceOrder(trace, Assertion{Ops: []string{OpRender, OpConnect}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing connect after [render]")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpGet, Count: 1}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpDerive, Count: 0}))

	err := assertTraceCount(trace, Assertion{Op: OpRender, Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 occurrences")
}

func TestEvaluateAssertions(t *testing.T) {
	result := &Result{Trace: sampleTrace()}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Op: OpConnect, Count: 1},
		{Type: AssertTraceCount, Op: OpConnect, Count: 3},
		{Type: AssertFinalState, Param: "radius", Expect: 1},
		{Type: "trace_sum"},
	}, nil)

	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "3 occurrences of connect")
	assert.Contains(t, errs[1], "final_state requires saved state")
	assert.Contains(t, errs[2], `unknown assertion type "trace_sum"`)
}

func TestAssertFinalState_RestoreFailure(t *testing.T) {
	actx := &AssertionContext{
		Ctx:     context.Background(),
		Effects: map[string]string{MainEffect: "fx-1"},
		Restore: func(context.Context, string) (*effect.Instance, error) {
			return nil, errors.New("disk on fire")
		},
	}

	err := assertFinalState(actx, Assertion{Param: "radius", Expect: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "restore error: disk on fire")

	err = assertFinalState(actx, Assertion{Effect: "copy", Param: "radius", Expect: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "effect not saved")
}
