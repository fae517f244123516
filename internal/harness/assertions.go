package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/brainplus/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string         // Assertion type for categorization
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Trace    []ir.TraceStep // Full trace for debugging context
}

// maxTraceLines bounds the trace printed with an assertion failure.
const maxTraceLines = 20

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace:\n")
		for i, step := range e.Trace {
			if i == maxTraceLines {
				fmt.Fprintf(&buf, "  ... %d more steps\n", len(e.Trace)-maxTraceLines)
				break
			}
			fmt.Fprintf(&buf, "  [%d] %s ip=%d ptr=%d cell=%d\n", step.Cycle, step.Op, step.IP, step.Pointer, step.Cell)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceIPs:
		return assertTraceSequence(result.Trace, a, "trace_ips", func(s ir.TraceStep) int { return s.IP })
	case AssertTracePointers:
		return assertTraceSequence(result.Trace, a, "trace_pointers", func(s ir.TraceStep) int { return s.Pointer })
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertCell:
		return assertCell(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceSequence compares one field of every trace step with Values.
func assertTraceSequence(trace []ir.TraceStep, a Assertion, name string, field func(ir.TraceStep) int) error {
	got := make([]int, len(trace))
	for i, step := range trace {
		got[i] = field(step)
	}
	if equalInts(a.Values, got) {
		return nil
	}
	return &AssertionError{
		Type:     name,
		Expected: fmt.Sprintf("%v", a.Values),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    trace,
	}
}

// assertTraceCount checks the number of steps, optionally only those
// executing a.Op.
func assertTraceCount(trace []ir.TraceStep, a Assertion) error {
	count := 0
	for _, step := range trace {
		if a.Op == "" || step.Op == a.Op {
			count++
		}
	}
	if count == a.Count {
		return nil
	}

	what := "steps"
	if a.Op != "" {
		what = fmt.Sprintf("%q steps", a.Op)
	}
	return &AssertionError{
		Type:     "trace_count",
		Expected: fmt.Sprintf("%d %s", a.Count, what),
		Actual:   fmt.Sprintf("%d %s", count, what),
		Trace:    trace,
	}
}

// assertCell checks one cell of the final tape.
func assertCell(result *Result, a Assertion) error {
	if result.Run == nil {
		return &AssertionError{
			Type:     "cell",
			Expected: fmt.Sprintf("cell %d = %d", a.Index, a.Value),
			Actual:   "no run",
		}
	}
	if a.Index >= result.Run.TapeSize {
		return &AssertionError{
			Type:     "cell",
			Expected: fmt.Sprintf("cell %d = %d", a.Index, a.Value),
			Actual:   fmt.Sprintf("tape has %d cells", result.Run.TapeSize),
		}
	}
	if got := cellAt(result.Run.Cells, a.Index); got != a.Value {
		return &AssertionError{
			Type:     "cell",
			Expected: fmt.Sprintf("cell %d = %d", a.Index, a.Value),
			Actual:   fmt.Sprintf("cell %d = %d", a.Index, got),
		}
	}
	return nil
}
