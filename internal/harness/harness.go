package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/brainplus/internal/engine"
	"github.com/roach88/brainplus/internal/ir"
	"github.com/roach88/brainplus/internal/program"
	"github.com/roach88/brainplus/internal/session"
	"github.com/roach88/brainplus/internal/store"
	"github.com/roach88/brainplus/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Build the program (a configuration error may be the expected outcome)
// 2. Execute one session with a fixed run ID and trace capture
// 3. Store the program and run, then read the run back
// 4. Check expect and assertions against the stored run
//
// A returned error means the scenario could not be executed at all.
// Failed expectations are reported through Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	result := NewResult()

	prog, err := program.Build(scenario.Source)
	if err != nil {
		var cfgErr *program.ConfigurationError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("failed to build program: %w", err)
		}
		checkBuildError(scenario.Expect, cfgErr, result)
		return result, nil
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	s := &session.Session{
		Program:      prog,
		Config:       scenario.Config(),
		Input:        scenario.InputBytes(),
		StartPointer: scenario.StartPointer,
		CaptureTrace: true,
		IDs:          testutil.NewFixedIDGenerator(scenario.RunID),
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	run, runErr := s.Execute()
	if run == nil {
		return nil, fmt.Errorf("failed to execute: %w", runErr)
	}

	ctx := context.Background()
	if _, err := st.WriteProgram(ctx, ir.ProgramRecord{
		ID:        run.ProgramID,
		Source:    prog.Source(),
		Functions: prog.Functions(),
	}); err != nil {
		return nil, fmt.Errorf("failed to store program: %w", err)
	}
	if err := st.WriteRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to store run: %w", err)
	}
	stored, err := st.GetRun(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read run back: %w", err)
	}

	result.Run = stored
	if stored.Trace != nil {
		result.Trace = stored.Trace
	}

	if scenario.Expect != nil {
		checkExpect(scenario.Expect, prog, stored, result)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// checkBuildError compares a configuration error with expect.error.
func checkBuildError(want *Expect, cfgErr *program.ConfigurationError, result *Result) {
	if want == nil || want.Error == "" {
		result.AddError(fmt.Sprintf("program build failed: %v", cfgErr))
		return
	}
	if want.Error != string(cfgErr.Code) {
		result.AddError(fmt.Sprintf("error: expected %s, got %s", want.Error, cfgErr.Code))
	}
	if want.State != "" {
		result.AddError(fmt.Sprintf("state: expected %s, but the program was rejected before running", want.State))
	}
}

// checkExpect compares the stored run with the expect clause.
func checkExpect(want *Expect, prog *program.Program, run *ir.Run, result *Result) {
	if want.State != "" && want.State != run.State {
		result.AddError(fmt.Sprintf("state: expected %s, got %s", want.State, run.State))
	}

	switch {
	case want.Error != "" && want.Error != run.ErrorCode:
		result.AddError(fmt.Sprintf("error: expected %s, got %q", want.Error, run.ErrorCode))
	case want.Error == "" && run.ErrorCode != "" && want.State != engine.Faulted.String():
		result.AddError(fmt.Sprintf("unexpected fault: %s", run.ErrorMessage))
	}

	if want.Output != nil && *want.Output != string(run.Output) {
		result.AddError(fmt.Sprintf("output: expected %q, got %q", *want.Output, run.Output))
	}
	if want.OutputBytes != nil && !equalBytes(want.OutputBytes, run.Output) {
		result.AddError(fmt.Sprintf("output_bytes: expected %v, got %v", want.OutputBytes, toInts(run.Output)))
	}

	for i, v := range want.Cells {
		if got := cellAt(run.Cells, i); got != v {
			result.AddError(fmt.Sprintf("cells[%d]: expected %d, got %d", i, v, got))
		}
	}

	if want.Pointer != nil && *want.Pointer != run.Pointer {
		result.AddError(fmt.Sprintf("pointer: expected %d, got %d", *want.Pointer, run.Pointer))
	}
	if want.IP != nil && *want.IP != run.IP {
		result.AddError(fmt.Sprintf("ip: expected %d, got %d", *want.IP, run.IP))
	}
	if want.Cycles != nil && *want.Cycles != run.Cycles {
		result.AddError(fmt.Sprintf("cycles: expected %d, got %d", *want.Cycles, run.Cycles))
	}

	if want.Functions != nil {
		got := prog.Functions()
		if !equalInts(want.Functions, got) {
			result.AddError(fmt.Sprintf("functions: expected %v, got %v", want.Functions, got))
		}
	}
}

// cellAt reads cell i from a compact tape copy; cells past its end are zero.
func cellAt(cells []byte, i int) int {
	if i < len(cells) {
		return int(cells[i])
	}
	return 0
}

func equalBytes(want []int, got []byte) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != int(got[i]) {
			return false
		}
	}
	return true
}

func equalInts(want, got []int) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

func toInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}
