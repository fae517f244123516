package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/brainplus/internal/program"
	"github.com/roach88/brainplus/internal/tape"
)

// InputFunc supplies the byte stored by ','.
type InputFunc func(e *Engine) byte

// OutputFunc receives the byte emitted by '.'.
type OutputFunc func(e *Engine, b byte)

// TraceFunc is called after every executed instruction, before the cycle
// counter advances. The engine state it observes is post-dispatch.
type TraceFunc func(e *Engine, in Instruction)

// settings is the immutable configuration an Engine was built with.
// Clone copies it and applies overrides.
type settings struct {
	cycleLimit int64 // 0 means unlimited
	tapeSize   int
	strict     bool
	input      InputFunc
	output     OutputFunc
	trace      TraceFunc
	logger     *slog.Logger
}

// Engine executes one Program against its own tape and control stack.
//
// Thread-safety model:
//   - An Engine must be driven by exactly one goroutine
//   - Callbacks run synchronously on that goroutine
//   - Separate Engines share nothing but the immutable Program
type Engine struct {
	prog  *program.Program
	cfg   settings
	tape  *tape.Tape
	stack *ControlStack

	ip     int
	cycles int64
	state  State
	err    error
}

// Option allows configuration of engine parameters.
type Option func(*settings)

// WithCycleLimit caps the number of executed instructions.
//
// Default: 0 (unlimited)
// Use WithCycleLimit(10000) to guarantee termination of untrusted programs.
func WithCycleLimit(limit int64) Option {
	return func(s *settings) {
		if limit < 0 {
			limit = 0
		}
		s.cycleLimit = limit
	}
}

// WithTapeSize sets the number of cells on the tape.
// Default: tape.DefaultSize (30000).
func WithTapeSize(size int) Option {
	return func(s *settings) {
		s.tapeSize = size
	}
}

// WithStrictFrames makes the engine reject a pop that finds the wrong
// frame kind ('@' popping a loop frame, ']' popping a call frame).
func WithStrictFrames(strict bool) Option {
	return func(s *settings) {
		s.strict = strict
	}
}

// WithInput sets the callback that supplies bytes for ','.
// Without it ',' leaves the cell unchanged.
func WithInput(fn InputFunc) Option {
	return func(s *settings) {
		s.input = fn
	}
}

// WithOutput sets the callback that receives bytes from '.'.
// Without it '.' has no effect.
func WithOutput(fn OutputFunc) Option {
	return func(s *settings) {
		s.output = fn
	}
}

// WithTrace sets the per-instruction trace hook.
func WithTrace(fn TraceFunc) Option {
	return func(s *settings) {
		s.trace = fn
	}
}

// WithLogger sets the logger for run lifecycle events.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// New creates an Engine for prog. The tape is zero-initialized, the stack
// is empty and the instruction pointer is at offset 0.
func New(prog *program.Program, opts ...Option) *Engine {
	cfg := settings{tapeSize: tape.DefaultSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return newEngine(prog, cfg)
}

// NewFromSource builds the Program for source and creates an Engine for it.
// Returns the program's ConfigurationError if the source is unusable.
func NewFromSource(source string, opts ...Option) (*Engine, error) {
	prog, err := program.Build(source)
	if err != nil {
		return nil, fmt.Errorf("build program: %w", err)
	}
	return New(prog, opts...), nil
}

func newEngine(prog *program.Program, cfg settings) *Engine {
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Engine{
		prog:  prog,
		cfg:   cfg,
		tape:  tape.New(cfg.tapeSize),
		stack: NewControlStack(),
		state: Running,
	}
}

// Run steps the engine until it reaches a terminal state.
//
// Returns the terminal state and, for Faulted, the RuntimeError that
// stopped the run. Halted, Exhausted and CycleLimited return a nil error.
// Calling Run on a stopped engine returns the same result again.
func (e *Engine) Run() (State, error) {
	return e.RunContext(context.Background())
}

// cancelCheckInterval is how many steps RunContext executes between
// context checks.
const cancelCheckInterval = 4096

// RunContext is Run with cancellation. The context is checked every
// cancelCheckInterval steps. A cancelled engine stays Running, returns
// ctx.Err() and can be resumed by calling Run again.
func (e *Engine) RunContext(ctx context.Context) (State, error) {
	if e.state.Terminal() {
		return e.state, e.err
	}

	e.cfg.logger.Debug("engine starting",
		"program_len", e.prog.Len(),
		"functions", e.prog.FunctionCount(),
		"cycle_limit", e.cfg.cycleLimit,
		"strict", e.cfg.strict,
	)

	for n := 1; e.state == Running; n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				e.cfg.logger.Debug("engine interrupted",
					"ip", e.ip,
					"cycles", e.cycles,
				)
				return e.state, err
			}
		}
		e.Step()
	}

	if e.state == Faulted {
		e.cfg.logger.Warn("engine faulted",
			"error", e.err,
			"ip", e.ip,
			"cycles", e.cycles,
		)
	} else {
		e.cfg.logger.Debug("engine stopped",
			"state", e.state.String(),
			"ip", e.ip,
			"cycles", e.cycles,
			"pointer", e.tape.Pointer(),
		)
	}
	return e.state, e.err
}

// Step executes at most one instruction and returns the resulting state.
//
// The stop checks happen before the fetch: an instruction pointer at or
// past the end of source makes the engine Exhausted, then a reached cycle
// limit makes it CycleLimited.
func (e *Engine) Step() State {
	if e.state.Terminal() {
		return e.state
	}
	if e.ip >= e.prog.Len() {
		e.state = Exhausted
		return e.state
	}
	if e.cfg.cycleLimit != 0 && e.cycles >= e.cfg.cycleLimit {
		e.state = CycleLimited
		return e.state
	}

	offset := e.ip
	c := e.prog.At(offset)
	in, ok := Decode(c)
	if !ok {
		e.fault(NewUnknownInstructionError(offset, c))
		return e.state
	}

	if err := e.execute(in); err != nil {
		e.fault(err)
		return e.state
	}

	if e.cfg.trace != nil {
		e.cfg.trace(e, in)
	}
	e.cycles++
	return e.state
}

// execute dispatches one decoded instruction.
func (e *Engine) execute(in Instruction) error {
	switch in.Kind {
	case OpRight:
		e.tape.MoveRight()
		e.ip++
	case OpLeft:
		e.tape.MoveLeft()
		e.ip++
	case OpInc:
		e.tape.Increment()
		e.ip++
	case OpDec:
		e.tape.Decrement()
		e.ip++
	case OpOutput:
		if e.cfg.output != nil {
			e.cfg.output(e, e.tape.Read())
		}
		e.ip++
	case OpInput:
		if e.cfg.input != nil {
			e.tape.Write(e.cfg.input(e))
		}
		e.ip++
	case OpLoopStart:
		if e.tape.Read() == 0 {
			e.ip = e.matchingClose(e.ip) + 1
		} else {
			e.stack.Push(Frame{Kind: LoopFrame, Offset: e.ip})
			e.ip++
		}
	case OpLoopEnd:
		frame, err := e.stack.Pop()
		if err != nil {
			return NewStackUnderflowError(e.ip, in.Char)
		}
		if e.cfg.strict && frame.Kind != LoopFrame {
			return NewFrameMismatchError(e.ip, in.Char, frame, LoopFrame)
		}
		if e.tape.Read() != 0 {
			e.ip = frame.Offset
		} else {
			e.ip++
		}
	case OpCall:
		if in.Func < e.prog.FunctionCount() {
			e.stack.Push(Frame{Kind: CallFrame, Offset: e.ip + 1})
			e.ip = e.prog.FunctionStart(in.Func)
		} else {
			// calls to undeclared functions are ignored
			e.ip++
		}
	case OpReturn:
		if e.stack.IsEmpty() {
			e.state = Halted
			return nil
		}
		frame, _ := e.stack.Pop()
		if e.cfg.strict && frame.Kind != CallFrame {
			return NewFrameMismatchError(e.ip, in.Char, frame, CallFrame)
		}
		e.ip = frame.Offset
	default:
		return NewUnknownInstructionError(e.ip, in.Char)
	}
	return nil
}

// matchingClose returns the offset of the ']' matching the '[' at open.
// An unmatched '[' yields the last offset, so the engine runs off the end.
func (e *Engine) matchingClose(open int) int {
	depth := 1
	for i := open + 1; i < e.prog.Len(); i++ {
		switch e.prog.At(i) {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return e.prog.Len() - 1
}

func (e *Engine) fault(err error) {
	e.state = Faulted
	e.err = err
}

// Extend raises the cycle limit by n and resumes a CycleLimited engine.
// It has no effect on an engine without a cycle limit.
func (e *Engine) Extend(n int64) {
	if e.cfg.cycleLimit == 0 || n <= 0 {
		return
	}
	e.cfg.cycleLimit += n
	if e.state == CycleLimited {
		e.state = Running
	}
}

// Program returns the program being executed.
func (e *Engine) Program() *program.Program { return e.prog }

// Tape returns the engine's memory tape.
func (e *Engine) Tape() *tape.Tape { return e.tape }

// Stack returns the engine's control stack.
func (e *Engine) Stack() *ControlStack { return e.stack }

// IP returns the instruction pointer.
func (e *Engine) IP() int { return e.ip }

// Cycles returns the number of executed instructions.
func (e *Engine) Cycles() int64 { return e.cycles }

// State returns the current lifecycle state.
func (e *Engine) State() State { return e.state }

// Halted reports whether '@' ended the run with an empty stack.
func (e *Engine) Halted() bool { return e.state == Halted }

// Err returns the RuntimeError that faulted the engine, if any.
func (e *Engine) Err() error { return e.err }

// CycleLimit returns the configured cycle limit (0 means unlimited).
func (e *Engine) CycleLimit() int64 { return e.cfg.cycleLimit }

// Strict reports whether frame kinds are checked on pop.
func (e *Engine) Strict() bool { return e.cfg.strict }
