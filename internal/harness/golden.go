package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot captures the complete trace for a scenario execution.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Plugin       string       `json:"plugin,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// NewTraceSnapshot builds the snapshot of a finished run.
func NewTraceSnapshot(scenario *Scenario, result *Result) *TraceSnapshot {
	return &TraceSnapshot{
		ScenarioName: scenario.Name,
		Plugin:       scenario.Plugin,
		Trace:        result.Trace,
	}
}

// MarshalTrace renders the snapshot as indented JSON with a trailing
// newline. Field order is fixed by the struct, so output is deterministic.
func (s *TraceSnapshot) MarshalTrace() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}

	if err := assertSnapshot(t, scenario.Name, NewTraceSnapshot(scenario, result)); err != nil {
		return nil, err
	}
	return result, nil
}

func assertSnapshot(t *testing.T, name string, snapshot *TraceSnapshot) error {
	t.Helper()

	data, err := snapshot.MarshalTrace()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
