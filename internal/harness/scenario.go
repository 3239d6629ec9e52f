package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ofxhost/internal/param"
)

// Scenario defines a conformance scenario.
// A scenario instantiates one plugin from a schema directory, drives it
// through a list of steps and asserts on the recorded trace and on the
// state that survives a save/restore round trip.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schemas is the directory of CUE plugin schemas.
	// Relative paths are resolved against the scenario file location.
	Schemas string `yaml:"schemas"`

	// Plugin is the identifier of the plugin to instantiate.
	Plugin string `yaml:"plugin"`

	// Steps are executed in order against the effect instances.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state. Optional.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation on an effect instance.
type Step struct {
	// Op is the operation name, one of the Op* constants.
	Op string `yaml:"op"`

	// Effect names the target instance. Defaults to "main".
	Effect string `yaml:"effect,omitempty"`

	// Param is the target parameter (all ops except connect, clone, render).
	Param string `yaml:"param,omitempty"`

	// Clip and Connected drive the connect op. Connected defaults to true.
	Clip      string `yaml:"clip,omitempty"`
	Connected *bool  `yaml:"connected,omitempty"`

	// Kind is the kind the caller claims for get_v/set_v.
	Kind string `yaml:"kind,omitempty"`

	// Time is the evaluation or keyframe time. Until is the upper bound of
	// integrate.
	Time  *float64 `yaml:"time,omitempty"`
	Until *float64 `yaml:"until,omitempty"`

	// Value is written by set, set_at and set_v.
	Value any `yaml:"value,omitempty"`

	// As names the instance produced by clone.
	As string `yaml:"as,omitempty"`

	// Expect is the expected value of a read. Numbers compare with a small
	// tolerance; choices may be given by label or index.
	Expect any `yaml:"expect,omitempty"`

	// Error is the expected status code, e.g. TYPE_MISMATCH. When set the
	// step must fail with exactly this code.
	Error string `yaml:"error,omitempty"`
}

// Step operations.
const (
	OpConnect        = "connect"
	OpSet            = "set"
	OpSetAt          = "set_at"
	OpGet            = "get"
	OpGetAt          = "get_at"
	OpDerive         = "derive"
	OpIntegrate      = "integrate"
	OpGetV           = "get_v"
	OpSetV           = "set_v"
	OpDeleteKeyframe = "delete_keyframe"
	OpClone          = "clone"
	OpRender         = "render"
)

// MainEffect is the alias of the instance every scenario starts with.
const MainEffect = "main"

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an op on a param appears in the trace, optionally with a value
	// - "trace_order": ops appear in order
	// - "trace_count": an op appears exactly N times
	// - "final_state": after save and restore, a param has the expected value
	Type string `yaml:"type"`

	// Op is the step operation (trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Ops is the expected op order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Effect and Param select the target (trace_contains, final_state).
	Effect string `yaml:"effect,omitempty"`
	Param  string `yaml:"param,omitempty"`

	// Value is the expected trace value text (trace_contains).
	Value string `yaml:"value,omitempty"`

	// Time is the evaluation time for final_state. Defaults to the
	// restored effect's current time.
	Time *float64 `yaml:"time,omitempty"`

	// Expect is the expected restored value (final_state).
	Expect any `yaml:"expect,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve the schema directory relative to the scenario BEFORE validation
	if scenario.Schemas != "" && !filepath.IsAbs(scenario.Schemas) {
		scenario.Schemas = filepath.Join(filepath.Dir(path), scenario.Schemas)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if _, err := os.Stat(scenario.Schemas); os.IsNotExist(err) {
		return nil, fmt.Errorf("invalid scenario: schema directory not found: %s", scenario.Schemas)
	}
	return scenario, nil
}

// ParseScenario decodes a scenario from YAML without resolving paths or
// validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// DiscoverScenarios expands paths into scenario files. Directories
// contribute their *.yaml and *.yml files in name order.
func DiscoverScenarios(paths ...string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("scenario path %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		var found []string
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(p, pattern))
			if err != nil {
				return nil, err
			}
			found = append(found, matches...)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schemas == "" {
		return fmt.Errorf("schemas directory is required")
	}
	if s.Plugin == "" {
		return fmt.Errorf("plugin is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	aliases := map[string]bool{MainEffect: true}
	for i, step := range s.Steps {
		if err := validateStep(i, &step, aliases); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks the fields each op needs. aliases collects clone
// names so later steps may only target instances that exist.
func validateStep(i int, st *Step, aliases map[string]bool) error {
	effect := st.Effect
	if effect == "" {
		effect = MainEffect
	}
	if !aliases[effect] {
		return fmt.Errorf("steps[%d]: unknown effect %q", i, effect)
	}

	needParam := func() error {
		if st.Param == "" {
			return fmt.Errorf("steps[%d]: param is required for %s", i, st.Op)
		}
		return nil
	}
	needTime := func() error {
		if st.Time == nil {
			return fmt.Errorf("steps[%d]: time is required for %s", i, st.Op)
		}
		return nil
	}
	needValue := func() error {
		if st.Value == nil {
			return fmt.Errorf("steps[%d]: value is required for %s", i, st.Op)
		}
		return nil
	}

	switch st.Op {
	case OpConnect:
		if st.Clip == "" {
			return fmt.Errorf("steps[%d]: clip is required for connect", i)
		}
	case OpSet:
		return firstErr(needParam(), needValue())
	case OpSetAt:
		return firstErr(needParam(), needTime(), needValue())
	case OpGet:
		return needParam()
	case OpGetAt, OpDerive, OpDeleteKeyframe:
		return firstErr(needParam(), needTime())
	case OpIntegrate:
		if st.Until == nil {
			return fmt.Errorf("steps[%d]: until is required for integrate", i)
		}
		return firstErr(needParam(), needTime())
	case OpGetV, OpSetV:
		if _, err := param.ParseKind(st.Kind); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if st.Op == OpSetV {
			return firstErr(needParam(), needValue())
		}
		return needParam()
	case OpClone:
		if st.As == "" {
			return fmt.Errorf("steps[%d]: as is required for clone", i)
		}
		if aliases[st.As] {
			return fmt.Errorf("steps[%d]: effect %q already exists", i, st.As)
		}
		aliases[st.As] = true
	case OpRender:
		return needTime()
	case "":
		return fmt.Errorf("steps[%d]: op is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", i, st.Op)
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Param == "" {
			return fmt.Errorf("assertions[%d]: param is required for final_state", index)
		}
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
