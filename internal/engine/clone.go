package engine

import (
	"log/slog"

	"github.com/roach88/brainplus/internal/program"
)

// Overrides selects what a clone changes. Nil fields keep the value of the
// engine being cloned.
type Overrides struct {
	Program    *program.Program
	CycleLimit *int64
	TapeSize   *int
	Strict     *bool
	Input      InputFunc
	Output     OutputFunc
	Trace      TraceFunc
	Logger     *slog.Logger
}

// Clone creates a fresh engine from e's configuration with overrides
// applied. The clone shares e's Program unless one is given, and starts
// with a zeroed tape, an empty stack, ip 0 and no cycles. e is unchanged.
func (e *Engine) Clone(o Overrides) *Engine {
	cfg := e.cfg
	prog := e.prog

	if o.Program != nil {
		prog = o.Program
	}
	if o.CycleLimit != nil {
		WithCycleLimit(*o.CycleLimit)(&cfg)
	}
	if o.TapeSize != nil {
		cfg.tapeSize = *o.TapeSize
	}
	if o.Strict != nil {
		cfg.strict = *o.Strict
	}
	if o.Input != nil {
		cfg.input = o.Input
	}
	if o.Output != nil {
		cfg.output = o.Output
	}
	if o.Trace != nil {
		cfg.trace = o.Trace
	}
	if o.Logger != nil {
		cfg.logger = o.Logger
	}

	return newEngine(prog, cfg)
}

// Reset returns a fresh engine with the same configuration and program.
func (e *Engine) Reset() *Engine {
	return e.Clone(Overrides{})
}
