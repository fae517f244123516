package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/brainplus/internal/ir"
)

func sampleResult() *Result {
	r := NewResult()
	r.Run = &ir.Run{TapeSize: 4, Cells: []byte{3, 0, 7}}
	r.Trace = []ir.TraceStep{
		{Cycle: 0, IP: 1, Op: "+", Pointer: 0, Cell: 1},
		{Cycle: 1, IP: 2, Op: ">", Pointer: 1, Cell: 0},
		{Cycle: 2, IP: 3, Op: "+", Pointer: 1, Cell: 1},
	}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertTraceIPs, Values: []int{1, 2, 3}},
		{Type: AssertTracePointers, Values: []int{0, 1, 1}},
		{Type: AssertTraceCount, Count: 3},
		{Type: AssertTraceCount, Op: "+", Count: 2},
		{Type: AssertTraceCount, Op: "@", Count: 0},
		{Type: AssertCell, Index: 2, Value: 7},
		{Type: AssertCell, Index: 3, Value: 0},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertTraceIPs, Values: []int{1, 2}},
		{Type: AssertTraceCount, Op: ">", Count: 2},
		{Type: AssertCell, Index: 0, Value: 4},
		{Type: AssertCell, Index: 9, Value: 0},
		{Type: "bogus"},
	})
	require.Len(t, errs, 5)

	assert.Contains(t, errs[0], "assertions[0]")
	assert.Contains(t, errs[0], "Expected: [1 2]")
	assert.Contains(t, errs[0], "Actual: [1 2 3]")
	assert.Contains(t, errs[1], `2 ">" steps`)
	assert.Contains(t, errs[2], "cell 0 = 3")
	assert.Contains(t, errs[3], "tape has 4 cells")
	assert.Contains(t, errs[4], "unknown assertion type")
}

func TestEvaluateAssertions_NoRun(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertCell, Index: 0, Value: 0}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "no run")
}

func TestAssertionError_TruncatesTrace(t *testing.T) {
	trace := make([]ir.TraceStep, 25)
	err := &AssertionError{Type: "trace_count", Expected: "1", Actual: "25", Trace: trace}
	assert.Contains(t, err.Error(), "... 5 more steps")
}
