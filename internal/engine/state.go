package engine

// State is the lifecycle state of an Engine.
type State uint8

const (
	// Running is the initial state; the engine can still step.
	Running State = iota
	// Halted means '@' ran with an empty control stack.
	Halted
	// Exhausted means the instruction pointer ran past the end of source.
	Exhausted
	// CycleLimited means the configured cycle limit was reached.
	CycleLimited
	// Faulted means a RuntimeError stopped the run.
	Faulted
)

var stateNames = [...]string{
	Running:      "running",
	Halted:       "halted",
	Exhausted:    "exhausted",
	CycleLimited: "cycle_limited",
	Faulted:      "faulted",
}

// String returns the snake_case name used in logs, records and JSON output.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether the engine has stopped.
func (s State) Terminal() bool {
	return s != Running
}

// ParseState converts a name produced by String back into a State.
func ParseState(name string) (State, bool) {
	for i, n := range stateNames {
		if n == name {
			return State(i), true
		}
	}
	return 0, false
}
