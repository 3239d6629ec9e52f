package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/roach88/ofxhost/internal/effect"
	"github.com/roach88/ofxhost/internal/engine"
	"github.com/roach88/ofxhost/internal/param"
	"github.com/roach88/ofxhost/internal/schema"
	"github.com/roach88/ofxhost/internal/status"
	"github.com/roach88/ofxhost/internal/store"
	"github.com/roach88/ofxhost/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs scenarios with sequential identities, a single render worker and
// a fresh in-memory store, so traces are reproducible.
type Harness struct {
	desc       *effect.Descriptor
	schemaHash string
	store      *store.Store
	scheduler  *engine.Scheduler
	ids        *testutil.SequentialIDs
	logger     *slog.Logger

	effects map[string]*effect.Instance
	aliases []string // creation order
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Load the schema directory and pick the plugin
// 2. Create the "main" instance, a render scheduler and an in-memory store
// 3. Execute steps, recording a trace event for each
// 4. Save every instance to the store
// 5. Evaluate assertions against the trace and the restored state
//
// The returned error reports a scenario that could not run at all; step
// and assertion failures are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	loaded, errs := schema.LoadDir(scenario.Schemas, schema.LoadModeCollectAll)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load schemas: %w", errors.Join(errs...))
	}
	desc := loaded.Plugin(scenario.Plugin)
	if desc == nil {
		return nil, fmt.Errorf("plugin %q not found in %s", scenario.Plugin, scenario.Schemas)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		desc:       desc,
		schemaHash: loaded.Hash,
		store:      st,
		scheduler:  engine.New(engine.WithWorkers(1)),
		ids:        testutil.NewSequentialIDs("fx"),
		logger:     testutil.DiscardLogger(),
		effects:    make(map[string]*effect.Instance),
	}

	fx, err := h.newInstance(h.ids)
	if err != nil {
		return nil, err
	}
	h.add(MainEffect, fx)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopped := make(chan error, 1)
	go func() { stopped <- h.scheduler.Run(runCtx) }()
	defer func() {
		h.scheduler.Stop()
		<-stopped
	}()

	result := NewResult()
	for i, step := range scenario.Steps {
		h.runStep(ctx, i+1, step, result)
	}

	saved, err := h.saveAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to save effects: %w", err)
	}

	actx := &AssertionContext{
		Ctx:     ctx,
		Effects: saved,
		Restore: h.restore,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) newInstance(ids *testutil.SequentialIDs) (*effect.Instance, error) {
	return effect.NewInstance(h.desc,
		effect.WithIDGenerator(ids),
		effect.WithLogger(h.logger),
	)
}

func (h *Harness) add(alias string, fx *effect.Instance) {
	h.effects[alias] = fx
	h.aliases = append(h.aliases, alias)
}

// saveAll writes every instance to the store and returns alias -> ID.
func (h *Harness) saveAll(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(h.aliases))
	for _, alias := range h.aliases {
		fx := h.effects[alias]
		if _, err := h.store.SaveEffect(ctx, fx, h.schemaHash); err != nil {
			return nil, fmt.Errorf("%s: %w", alias, err)
		}
		out[alias] = fx.ID()
	}
	return out, nil
}

// restore loads a saved effect into a fresh instance.
func (h *Harness) restore(ctx context.Context, id string) (*effect.Instance, error) {
	fx, err := h.newInstance(testutil.NewSequentialIDs("restored"))
	if err != nil {
		return nil, err
	}
	if err := h.store.Restore(ctx, id, fx); err != nil {
		return nil, err
	}
	return fx, nil
}

// outcome is what a step produced, before expectations are checked.
type outcome struct {
	value  param.Value            // value read (get, derive, ...)
	values map[string]param.Value // render results
	names  []string               // render result order
	err    error
}

// runStep executes one step, records it and checks its expectations.
func (h *Harness) runStep(ctx context.Context, n int, step Step, result *Result) {
	alias := step.Effect
	if alias == "" {
		alias = MainEffect
	}
	ev := TraceEvent{Step: n, Op: step.Op, Effect: alias, Time: step.Time, Until: step.Until}

	fx, ok := h.effects[alias]
	if !ok {
		result.AddTrace(ev)
		result.AddError(fmt.Sprintf("step %d (%s): unknown effect %q", n, step.Op, alias))
		return
	}

	out := h.execute(ctx, fx, step, &ev)
	if out.err != nil {
		ev.Error = string(status.CodeOf(out.err))
	}
	result.AddTrace(ev)

	if msg := checkStep(n, step, out); msg != "" {
		result.AddError(msg)
	}
	h.logger.Debug("scenario step", "step", n, "op", step.Op, "effect", alias, "error", ev.Error)
}

// execute performs the step on fx and fills in the trace event.
func (h *Harness) execute(ctx context.Context, fx *effect.Instance, step Step, ev *TraceEvent) outcome {
	switch step.Op {
	case OpConnect:
		connected := step.Connected == nil || *step.Connected
		ev.Target, ev.Value = step.Clip, strconv.FormatBool(connected)
		return outcome{err: fx.Connect(step.Clip, connected)}

	case OpClone:
		ev.Target = step.As
		clone, err := fx.Clone()
		if err != nil {
			return outcome{err: err}
		}
		h.add(step.As, clone)
		return outcome{}

	case OpRender:
		return h.render(ctx, fx, param.Time(*step.Time), ev)
	}

	ev.Target = step.Param
	p, err := fx.Params().Fetch(step.Param)
	if err != nil {
		return outcome{err: err}
	}
	kind := p.Kind()

	switch step.Op {
	case OpSet, OpSetAt:
		v, err := toValue(kind, p.Descriptor().Options(), step.Value)
		if err != nil {
			return outcome{err: fmt.Errorf("value: %w", err)}
		}
		ev.Value = formatValue(v)
		if step.Op == OpSetAt {
			return outcome{err: param.SetAtV(p, param.Time(*step.Time), v)}
		}
		return outcome{err: param.SetV(p, v)}

	case OpGet:
		return read(ev)(param.GetV(p, kind))

	case OpGetAt:
		return read(ev)(param.GetAtV(p, kind, param.Time(*step.Time)))

	case OpDerive:
		return read(ev)(param.DeriveV(p, kind, param.Time(*step.Time)))

	case OpIntegrate:
		return read(ev)(param.IntegrateV(p, kind, param.Time(*step.Time), param.Time(*step.Until)))

	case OpGetV:
		claimed, _ := param.ParseKind(step.Kind) // checked by validateStep
		if step.Time != nil {
			return read(ev)(param.GetAtV(p, claimed, param.Time(*step.Time)))
		}
		return read(ev)(param.GetV(p, claimed))

	case OpSetV:
		claimed, _ := param.ParseKind(step.Kind)
		v, err := toValue(claimed, p.Descriptor().Options(), step.Value)
		if err != nil {
			return outcome{err: fmt.Errorf("value: %w", err)}
		}
		ev.Value = formatValue(v)
		if step.Time != nil {
			return outcome{err: param.SetAtV(p, param.Time(*step.Time), v)}
		}
		return outcome{err: param.SetV(p, v)}

	case OpDeleteKeyframe:
		return outcome{err: p.DeleteKeyframe(param.Time(*step.Time))}
	}
	return outcome{err: fmt.Errorf("unknown op %q", step.Op)}
}

// read records the value of a successful read on ev.
func read(ev *TraceEvent) func(param.Value, error) outcome {
	return func(v param.Value, err error) outcome {
		if err != nil {
			return outcome{err: err}
		}
		ev.Value = formatValue(v)
		return outcome{value: v}
	}
}

func (h *Harness) render(ctx context.Context, fx *effect.Instance, t param.Time, ev *TraceEvent) outcome {
	job, err := h.scheduler.Submit(fx, t)
	if err != nil {
		return outcome{err: err}
	}
	res, err := job.Wait(ctx)
	if err != nil {
		return outcome{err: err}
	}

	out := outcome{values: make(map[string]param.Value, len(res.Values))}
	for _, nv := range res.Values {
		out.names = append(out.names, nv.Name)
		out.values[nv.Name] = nv.Value
	}
	ev.Value = formatNamed(out.names, out.values)
	return out
}

// checkStep compares the outcome with the step's expectations and returns
// a failure message, or "".
func checkStep(n int, step Step, out outcome) string {
	code := status.CodeOf(out.err)
	switch {
	case step.Error != "" && out.err == nil:
		return fmt.Sprintf("step %d (%s): expected error %s, got success", n, step.Op, step.Error)
	case step.Error != "" && string(code) != step.Error:
		return fmt.Sprintf("step %d (%s): expected error %s, got %v", n, step.Op, step.Error, out.err)
	case step.Error == "" && out.err != nil:
		return fmt.Sprintf("step %d (%s): unexpected error: %v", n, step.Op, out.err)
	case out.err != nil || step.Expect == nil:
		return ""
	}

	if out.values != nil {
		return checkRender(n, step, out)
	}
	if out.value == nil {
		return fmt.Sprintf("step %d (%s): expect given but the op reads no value", n, step.Op)
	}
	return checkValue(fmt.Sprintf("step %d (%s)", n, step.Op), step.Expect, out.value)
}

func checkRender(n int, step Step, out outcome) string {
	want, ok := step.Expect.(map[string]any)
	if !ok {
		return fmt.Sprintf("step %d (render): expect must map parameter names to values", n)
	}
	for _, name := range sortedKeys(want) {
		got, ok := out.values[name]
		if !ok {
			return fmt.Sprintf("step %d (render): no value for parameter %q", n, name)
		}
		if msg := checkValue(fmt.Sprintf("step %d (render) %s", n, name), want[name], got); msg != "" {
			return msg
		}
	}
	return ""
}

// checkValue converts raw to the kind of got and compares.
func checkValue(where string, raw any, got param.Value) string {
	// A label expectation compares against the selected option directly.
	if cv, ok := got.(param.ChoiceValue); ok {
		if s, ok := raw.(string); ok {
			if s != cv.Option {
				return fmt.Sprintf("%s: expected %q, got %q", where, s, cv.Option)
			}
			return ""
		}
	}
	want, err := toValue(got.Kind(), nil, raw)
	if err != nil {
		return fmt.Sprintf("%s: bad expectation: %v", where, err)
	}
	if !valuesMatch(want, got) {
		return fmt.Sprintf("%s: expected %s, got %s", where, formatValue(want), formatValue(got))
	}
	return ""
}
