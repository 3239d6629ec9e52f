// Package harness runs conformance scenarios against plugin schemas.
//
// A scenario instantiates one plugin from a directory of CUE schemas,
// drives it through parameter, clip and render operations, and records a
// trace that is compared against a golden file.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schemas: ../plugins            # relative to the scenario file
//	plugin: com.example.Blur
//	steps:
//	  - op: connect
//	    clip: Source
//	  - op: set_at
//	    param: radius
//	    time: 10
//	    value: 20
//	  - op: get_at
//	    param: radius
//	    time: 5
//	    expect: 10
//	  - op: get_v
//	    param: radius
//	    kind: integer
//	    error: TYPE_MISMATCH
//	  - op: clone
//	    as: copy
//	  - op: render
//	    effect: copy
//	    time: 5
//	    expect: { radius: 10 }
//	assertions:
//	  - type: trace_count
//	    op: set_at
//	    count: 1
//	  - type: final_state
//	    param: radius
//	    time: 10
//	    expect: 20
//
// # Operations
//
//   - connect: wire or unwire a clip (connected defaults to true)
//   - set, set_at: write a value, or a keyframe at time
//   - get, get_at: read at the current time, or at time
//   - derive, integrate: rate of change at time; integral over [time, until]
//   - get_v, set_v: generic access claiming the given kind
//   - delete_keyframe: remove the keyframe at time
//   - clone: copy the effect under a new alias
//   - render: submit a render job at time and wait for it
//
// A step with error must fail with that status code. A step without error
// must succeed and, when expect is given, read the expected value.
//
// # Assertion Types
//
//   - trace_contains: a successful step with the given op, param and value text
//   - trace_order: ops appear in the specified order
//   - trace_count: an op appears exactly N times
//   - final_state: after save and restore, a parameter has the expected value
//
// # Deterministic Testing
//
// Each run uses sequential instance identifiers, a single render worker and
// a fresh in-memory store. Floating point trace values are rounded to ten
// significant digits, so traces are identical across runs and platforms.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/blur_keyframes.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
