// Package session runs a program once and records the result as an ir.Run.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/brainplus/internal/config"
	"github.com/roach88/brainplus/internal/engine"
	"github.com/roach88/brainplus/internal/ir"
	"github.com/roach88/brainplus/internal/program"
)

// Session describes one execution: a program, its configuration and the
// bytes fed to ','.
type Session struct {
	Program *program.Program
	Config  config.Config
	Input   []byte

	// StartPointer moves the data pointer before the first instruction.
	StartPointer int

	// CaptureTrace records one TraceStep per executed instruction.
	CaptureTrace bool

	// IDs generates the run ID. Default: UUIDv7Generator.
	IDs IDGenerator

	// Logger is handed to the engine. Default: slog.Default().
	Logger *slog.Logger
}

// ErrNoProgram is returned by Execute when the session has no program.
var ErrNoProgram = errors.New("session has no program")

// Execute runs the program to a terminal state and returns its record.
//
// A faulted run still produces a record with ErrorCode and ErrorMessage
// set. The runtime error is returned alongside it.
func (s *Session) Execute() (*ir.Run, error) {
	return s.ExecuteContext(context.Background())
}

// ExecuteContext is Execute with cancellation. A cancelled session
// produces no record.
func (s *Session) ExecuteContext(ctx context.Context) (*ir.Run, error) {
	if s.Program == nil {
		return nil, ErrNoProgram
	}

	cfg := s.Config
	if cfg.EOF == "" {
		cfg.EOF = config.EOFZero
	}
	if cfg.TapeSize == 0 {
		cfg.TapeSize = config.Default().TapeSize
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}

	ids := s.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	input := append([]byte(nil), s.Input...)
	var (
		pos    int
		output []byte
		trace  []ir.TraceStep
	)

	opts := cfg.EngineOptions()
	opts = append(opts,
		engine.WithLogger(logger),
		engine.WithInput(func(e *engine.Engine) byte {
			if pos < len(input) {
				b := input[pos]
				pos++
				return b
			}
			if cfg.EOF == config.EOFKeep {
				return e.Tape().Read()
			}
			return 0
		}),
		engine.WithOutput(func(_ *engine.Engine, b byte) {
			output = append(output, b)
		}),
	)
	if s.CaptureTrace {
		opts = append(opts, engine.WithTrace(func(e *engine.Engine, in engine.Instruction) {
			trace = append(trace, ir.TraceStep{
				Cycle:   e.Cycles(),
				IP:      e.IP(),
				Op:      string(in.Char),
				Pointer: e.Tape().Pointer(),
				Cell:    int(e.Tape().Read()),
			})
		}))
	}

	e := engine.New(s.Program, opts...)
	if s.StartPointer != 0 {
		e.Tape().Seek(s.StartPointer)
	}
	state, runErr := e.RunContext(ctx)
	if !state.Terminal() {
		return nil, fmt.Errorf("execute: %w", runErr)
	}

	run := &ir.Run{
		ID:         ids.Generate(),
		ProgramID:  ir.ProgramID(s.Program.Source()),
		Source:     s.Program.Source(),
		Input:      input,
		Output:     output,
		State:      state.String(),
		Cycles:     e.Cycles(),
		IP:         e.IP(),
		Pointer:    e.Tape().Pointer(),
		StackDepth: e.Stack().Len(),
		Cells:      e.Tape().Used(),
		CycleLimit: cfg.CycleLimit,
		TapeSize:   cfg.TapeSize,
		Strict:     cfg.StrictFrames,
		EOF:        cfg.EOF,
		Trace:      trace,
	}

	if runErr != nil {
		run.ErrorMessage = runErr.Error()
		var rtErr *engine.RuntimeError
		if errors.As(runErr, &rtErr) {
			run.ErrorCode = string(rtErr.Code)
		}
		return run, fmt.Errorf("execute: %w", runErr)
	}
	return run, nil
}

// FromRun rebuilds the session that produced a stored run, for replay.
// The trace is captured only when the stored run carries one.
func FromRun(rec *ir.Run) (*Session, error) {
	prog, err := program.Build(rec.Source)
	if err != nil {
		return nil, fmt.Errorf("rebuild program: %w", err)
	}
	eof := rec.EOF
	if eof == "" {
		eof = config.EOFZero
	}
	return &Session{
		Program: prog,
		Config: config.Config{
			CycleLimit:   rec.CycleLimit,
			TapeSize:     rec.TapeSize,
			StrictFrames: rec.Strict,
			EOF:          eof,
		},
		Input:        rec.Input,
		CaptureTrace: len(rec.Trace) > 0,
		IDs:          NewFixedGenerator(rec.ID),
	}, nil
}
