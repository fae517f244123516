package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/brainplus/internal/config"
	"github.com/roach88/brainplus/internal/engine"
)

// Scenario defines a conformance test: one program, its input and
// configuration, and what the run must look like.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source is the program text.
	Source string `yaml:"source"`

	// Input is fed to ',' as raw byte values. Mutually exclusive with InputText.
	Input []int `yaml:"input,omitempty"`

	// InputText is fed to ',' as UTF-8 bytes.
	InputText string `yaml:"input_text,omitempty"`

	// Engine configuration. Zero values select the defaults; a zero
	// cycle limit means unlimited.
	CycleLimit   int64  `yaml:"cycle_limit,omitempty"`
	TapeSize     int    `yaml:"tape_size,omitempty"`
	StrictFrames bool   `yaml:"strict_frames,omitempty"`
	EOF          string `yaml:"eof,omitempty"`

	// StartPointer places the data pointer before the first instruction.
	StartPointer int `yaml:"start_pointer,omitempty"`

	// RunID is the fixed run ID. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Expect validates the terminal run.
	Expect *Expect `yaml:"expect,omitempty"`

	// Assertions validate the trace and tape.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect specifies the expected terminal run. Nil or empty fields are
// not checked.
type Expect struct {
	// State is the terminal state name (halted, exhausted, cycle_limited, faulted).
	State string `yaml:"state,omitempty"`

	// Output is the expected output as text.
	Output *string `yaml:"output,omitempty"`

	// OutputBytes is the expected output as byte values.
	OutputBytes []int `yaml:"output_bytes,omitempty"`

	// Cells are the expected values of cells 0..len(Cells)-1.
	Cells []int `yaml:"cells,omitempty"`

	Pointer *int   `yaml:"pointer,omitempty"`
	IP      *int   `yaml:"ip,omitempty"`
	Cycles  *int64 `yaml:"cycles,omitempty"`

	// Functions are the expected function start offsets.
	Functions []int `yaml:"functions,omitempty"`

	// Error is the expected error code, e.g. STACK_UNDERFLOW or
	// TOO_MANY_FUNCTIONS.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or final tape.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_ips": instruction pointer after each step equals Values
	// - "trace_pointers": data pointer after each step equals Values
	// - "trace_count": number of steps (executing Op, if set) equals Count
	// - "cell": tape cell Index holds Value
	Type string `yaml:"type"`

	// Values is the expected sequence (trace_ips, trace_pointers).
	Values []int `yaml:"values,omitempty"`

	// Op restricts trace_count to one instruction character.
	Op string `yaml:"op,omitempty"`

	// Count is the expected number of steps (trace_count).
	Count int `yaml:"count,omitempty"`

	// Index and Value select a tape cell and its expected value (cell).
	Index int `yaml:"index,omitempty"`
	Value int `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceIPs      = "trace_ips"
	AssertTracePointers = "trace_pointers"
	AssertTraceCount    = "trace_count"
	AssertCell          = "cell"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// InputBytes returns the bytes fed to ','.
func (s *Scenario) InputBytes() []byte {
	if s.InputText != "" {
		return []byte(s.InputText)
	}
	out := make([]byte, len(s.Input))
	for i, v := range s.Input {
		out[i] = byte(v)
	}
	return out
}

// Config returns the engine configuration the scenario asks for.
func (s *Scenario) Config() config.Config {
	cfg := config.Default()
	cfg.CycleLimit = s.CycleLimit
	cfg.StrictFrames = s.StrictFrames
	if s.TapeSize != 0 {
		cfg.TapeSize = s.TapeSize
	}
	if s.EOF != "" {
		cfg.EOF = s.EOF
	}
	return cfg
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}

	if len(s.Input) > 0 && s.InputText != "" {
		return fmt.Errorf("input and input_text are mutually exclusive")
	}
	for i, v := range s.Input {
		if v < 0 || v > 255 {
			return fmt.Errorf("input[%d]: %d is not a byte", i, v)
		}
	}

	if err := s.Config().Validate(); err != nil {
		return err
	}
	if s.StartPointer < 0 {
		return fmt.Errorf("start_pointer must be non-negative")
	}

	if s.Expect != nil {
		if err := validateExpect(s.Expect); err != nil {
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

func validateExpect(e *Expect) error {
	if e.State != "" {
		if _, ok := engine.ParseState(e.State); !ok {
			return fmt.Errorf("expect.state: unknown state %q", e.State)
		}
	}
	if e.Output != nil && e.OutputBytes != nil {
		return fmt.Errorf("expect.output and expect.output_bytes are mutually exclusive")
	}
	for i, v := range e.OutputBytes {
		if v < 0 || v > 255 {
			return fmt.Errorf("expect.output_bytes[%d]: %d is not a byte", i, v)
		}
	}
	for i, v := range e.Cells {
		if v < 0 || v > 255 {
			return fmt.Errorf("expect.cells[%d]: %d is not a byte", i, v)
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
	case AssertTraceIPs, AssertTracePointers:
		if a.Values == nil {
			return fmt.Errorf("assertions[%d]: values is required for %s", index, a.Type)
		}
	case AssertTraceCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
		if len(a.Op) > 1 {
			return fmt.Errorf("assertions[%d]: op must be a single character", index)
		}
	case AssertCell:
		if a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative for cell", index)
		}
		if a.Value < 0 || a.Value > 255 {
			return fmt.Errorf("assertions[%d]: value must be a byte for cell", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
