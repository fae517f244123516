package ir

// TraceStep is one executed instruction as seen by the trace hook.
// Cycle is the number of instructions executed before this one.
type TraceStep struct {
	Cycle   int64  `json:"cycle"`
	IP      int    `json:"ip"`
	Op      string `json:"op"`
	Pointer int    `json:"pointer"`
	Cell    int    `json:"cell"`
}

// Canonical returns the step as a map for canonical JSON.
func (s TraceStep) Canonical() map[string]any {
	return map[string]any{
		"cycle":   s.Cycle,
		"ip":      s.IP,
		"op":      s.Op,
		"pointer": s.Pointer,
		"cell":    s.Cell,
	}
}

// CanonicalTrace converts a trace into a value for canonical JSON.
func CanonicalTrace(trace []TraceStep) []any {
	out := make([]any, len(trace))
	for i, step := range trace {
		out[i] = step.Canonical()
	}
	return out
}

// ProgramRecord is a stored program.
type ProgramRecord struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Functions []int  `json:"functions"`
	Seq       int64  `json:"seq"`
}

// Run is the complete record of one execution.
//
// A faulted run is still a Run: the fault is kept in ErrorCode and
// ErrorMessage together with the state the engine stopped in.
type Run struct {
	ID        string `json:"id"`
	ProgramID string `json:"program_id"`
	Seq       int64  `json:"seq"`
	Source    string `json:"source"`

	Input  []byte `json:"input"`
	Output []byte `json:"output"`

	State      string `json:"state"`
	Cycles     int64  `json:"cycles"`
	IP         int    `json:"ip"`
	Pointer    int    `json:"pointer"`
	StackDepth int    `json:"stack_depth"`
	Cells      []byte `json:"cells,omitempty"`

	CycleLimit int64  `json:"cycle_limit"`
	TapeSize   int    `json:"tape_size"`
	Strict     bool   `json:"strict"`
	EOF        string `json:"eof,omitempty"`

	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	Trace []TraceStep `json:"trace,omitempty"`
}

// Faulted reports whether the run stopped on a runtime error.
func (r *Run) Faulted() bool {
	return r.ErrorCode != ""
}

// Outcome returns the observable result of the run as a canonical map.
func (r *Run) Outcome() map[string]any {
	out := map[string]any{
		"state":       r.State,
		"output":      r.Output,
		"cycles":      r.Cycles,
		"ip":          r.IP,
		"pointer":     r.Pointer,
		"stack_depth": r.StackDepth,
		"trace":       CanonicalTrace(r.Trace),
	}
	if r.ErrorCode != "" {
		out["error_code"] = r.ErrorCode
	}
	return out
}
