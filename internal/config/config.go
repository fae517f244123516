// Package config loads engine configuration from CUE files.
//
// A configuration file is plain CUE with top-level fields:
//
//	cycle_limit:   100000
//	tape_size:     30000
//	strict_frames: true
//	eof:           "keep"
//
// The file is unified with an embedded schema that supplies defaults and
// rejects unknown fields.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/brainplus/internal/engine"
	"github.com/roach88/brainplus/internal/tape"
)

//go:embed schema.cue
var schemaSource string

// EOF policies for ',' once the host input is exhausted.
const (
	EOFZero = "zero" // store 0
	EOFKeep = "keep" // leave the cell unchanged
)

// MaxTapeSize is the largest tape a configuration may request.
const MaxTapeSize = 1 << 20

// Config is the engine configuration.
type Config struct {
	CycleLimit   int64  `json:"cycle_limit"`
	TapeSize     int    `json:"tape_size"`
	StrictFrames bool   `json:"strict_frames"`
	EOF          string `json:"eof"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		TapeSize: tape.DefaultSize,
		EOF:      EOFZero,
	}
}

// Error is a configuration validation failure.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads and validates the CUE file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates CUE source against the schema. name is used in error
// positions.
func Parse(name string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration assembled outside CUE, e.g. after
// command-line overrides.
func (c Config) Validate() error {
	if c.CycleLimit < 0 {
		return &Error{Field: "cycle_limit", Message: fmt.Sprintf("must be >= 0, got %d", c.CycleLimit)}
	}
	if c.TapeSize < 1 || c.TapeSize > MaxTapeSize {
		return &Error{Field: "tape_size", Message: fmt.Sprintf("must be in 1..%d, got %d", MaxTapeSize, c.TapeSize)}
	}
	switch c.EOF {
	case EOFZero, EOFKeep:
	default:
		return &Error{Field: "eof", Message: fmt.Sprintf("must be %q or %q, got %q", EOFZero, EOFKeep, c.EOF)}
	}
	return nil
}

// EngineOptions renders the configuration as engine options.
// The EOF policy is applied by whoever supplies input.
func (c Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithCycleLimit(c.CycleLimit),
		engine.WithTapeSize(c.TapeSize),
		engine.WithStrictFrames(c.StrictFrames),
	}
}

// formatCUEError extracts the field path and position of the first
// CUE error.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := strings.Join(first.Path(), ".")
	if field == "" {
		field = "config"
	}

	cfgErr := &Error{Field: field, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		cfgErr.Pos = positions[0]
	}
	return cfgErr
}
