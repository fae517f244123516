package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/brainplus/internal/ir"
)

// TraceSnapshot captures the observable result of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	State        string
	Cycles       int64
	Output       []byte
	Trace        []ir.TraceStep
}

// toCanonicalMap converts a TraceSnapshot to a map for canonical JSON.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"state":         s.State,
		"cycles":        s.Cycles,
		"output":        s.Output,
		"trace":         ir.CanonicalTrace(s.Trace),
	}
}

// Snapshot renders result as the canonical JSON stored in golden files.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	if result.Run != nil {
		snapshot.State = result.Run.State
		snapshot.Cycles = result.Run.Cycles
		snapshot.Output = result.Run.Output
	}
	m := snapshot.toCanonicalMap()
	return ir.MarshalCanonical(m)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass. Returns an error if
// the scenario could not be executed.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
