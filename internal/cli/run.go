package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/brainplus/internal/config"
	"github.com/roach88/brainplus/internal/engine"
	"github.com/roach88/brainplus/internal/ir"
	"github.com/roach88/brainplus/internal/program"
	"github.com/roach88/brainplus/internal/session"
	"github.com/roach88/brainplus/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	SourceOptions

	Input      string
	ConfigPath string
	CycleLimit int64
	TapeSize   int
	Strict     bool
	Database   string
	Trace      bool

	// IDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs session.IDGenerator
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	RunID        string         `json:"run_id"`
	ProgramID    string         `json:"program_id"`
	State        string         `json:"state"`
	Output       string         `json:"output"`
	OutputBytes  []int          `json:"output_bytes"`
	Cycles       int64          `json:"cycles"`
	IP           int            `json:"ip"`
	Pointer      int            `json:"pointer"`
	StackDepth   int            `json:"stack_depth"`
	ErrorCode    string         `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Recorded     bool           `json:"recorded"`
	Trace        []ir.TraceStep `json:"trace,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run a BrainPlus program",
		Long: `Run a BrainPlus program and write its output to stdout.

The program is read from a file, from stdin ("-"), or given inline with -e.
Input for ',' comes from --input or, when stdin is not a terminal, from stdin.

Exit codes:
  0 - Program halted, ran off the end, or reached the cycle limit
  1 - Program faulted (unknown instruction, stack underflow, frame mismatch)
  2 - Command error (unreadable file, bad configuration, too many functions)

Examples:
  brainplus run hello.bp
  brainplus run -e ',[.,]' --input "echo"
  brainplus run loop.bp --cycle-limit 10000 --trace
  brainplus run prog.bp --config engine.cue --db ./runs.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(opts, cmd, args)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Input, "input", "", "bytes fed to ','")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "engine configuration (.cue)")
	cmd.Flags().Int64Var(&opts.CycleLimit, "cycle-limit", 0, "maximum executed instructions (0 = unlimited)")
	cmd.Flags().IntVar(&opts.TapeSize, "tape-size", config.Default().TapeSize, "number of tape cells")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "reject pops that find the wrong frame kind")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print every executed instruction")

	return cmd
}

func runProgram(opts *RunOptions, cmd *cobra.Command, args []string) error {
	out := newFormatter(opts.RootOptions, cmd)

	source, name, err := readSource(&opts.SourceOptions, cmd, args)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		return err
	}

	prog, err := program.Build(source)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid program %s", name), err)
	}

	input, err := resolveInput(opts, cmd, args, source)
	if err != nil {
		return err
	}

	ids := opts.IDs
	if ids == nil {
		ids = session.UUIDv7Generator{}
	}
	s := &session.Session{
		Program:      prog,
		Config:       cfg,
		Input:        input,
		CaptureTrace: opts.Trace,
		IDs:          ids,
		Logger:       slog.Default(),
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	slog.Debug("running program", "name", name, "functions", prog.FunctionCount())
	run, runErr := s.ExecuteContext(ctx)
	if run == nil {
		if errors.Is(runErr, context.Canceled) {
			return WrapExitError(ExitFailure, "interrupted", runErr)
		}
		return WrapExitError(ExitCommandError, "failed to run program", runErr)
	}

	recorded := false
	if opts.Database != "" {
		if err := recordRun(ctx, opts.Database, prog, run); err != nil {
			return err
		}
		recorded = true
		out.VerboseLog("recorded run %s (seq %d)", run.ID, run.Seq)
	}

	if out.JSON() {
		return respondRun(out, run, recorded, opts.Trace)
	}
	return printRun(out, cmd, run, opts.Trace)
}

// resolveConfig loads --config and applies flag overrides.
func resolveConfig(opts *RunOptions, cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return cfg, WrapExitError(ExitCommandError, "invalid configuration", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("cycle-limit") {
		cfg.CycleLimit = opts.CycleLimit
	}
	if flags.Changed("tape-size") {
		cfg.TapeSize = opts.TapeSize
	}
	if flags.Changed("strict") {
		cfg.StrictFrames = opts.Strict
	}

	if err := cfg.Validate(); err != nil {
		return cfg, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// resolveInput returns --input, or stdin when the program reads input
// and stdin is not a terminal.
func resolveInput(opts *RunOptions, cmd *cobra.Command, args []string, source string) ([]byte, error) {
	if cmd.Flags().Changed("input") {
		return []byte(opts.Input), nil
	}
	if !strings.ContainsRune(source, ',') {
		return nil, nil
	}
	// the source itself came from stdin
	if len(args) > 0 && args[0] == "-" {
		return nil, nil
	}
	in := cmd.InOrStdin()
	if isTerminal(in) {
		return nil, nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read input", err)
	}
	return data, nil
}

// signalContext cancels on SIGINT/SIGTERM so an endless program can be
// stopped from the terminal.
func signalContext(cmd *cobra.Command) (context.Context, func()) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// recordRun stores the program and run.
func recordRun(ctx context.Context, dbPath string, prog *program.Program, run *ir.Run) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeDatabase(st)

	if _, err := st.WriteProgram(ctx, ir.ProgramRecord{
		ID:        run.ProgramID,
		Source:    prog.Source(),
		Functions: prog.Functions(),
	}); err != nil {
		return WrapExitError(ExitCommandError, "failed to record program", err)
	}
	if err := st.WriteRun(ctx, run); err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}
	return nil
}

func respondRun(out *OutputFormatter, run *ir.Run, recorded, withTrace bool) error {
	data := RunOutput{
		RunID:        run.ID,
		ProgramID:    run.ProgramID,
		State:        run.State,
		Output:       string(run.Output),
		OutputBytes:  bytesToInts(run.Output),
		Cycles:       run.Cycles,
		IP:           run.IP,
		Pointer:      run.Pointer,
		StackDepth:   run.StackDepth,
		ErrorCode:    run.ErrorCode,
		ErrorMessage: run.ErrorMessage,
		Recorded:     recorded,
	}
	if withTrace {
		data.Trace = run.Trace
	}

	var errInfo *CLIError
	if run.Faulted() {
		errInfo = &CLIError{Code: "E_FAULT", Message: run.ErrorMessage}
	}
	if err := out.Respond(data, errInfo); err != nil {
		return err
	}
	if run.Faulted() {
		return NewExitError(ExitFailure, run.ErrorMessage)
	}
	return nil
}

func printRun(out *OutputFormatter, cmd *cobra.Command, run *ir.Run, withTrace bool) error {
	if _, err := out.Writer.Write(run.Output); err != nil {
		return err
	}
	// keep the shell prompt on its own line
	if len(run.Output) > 0 && run.Output[len(run.Output)-1] != '\n' && isTerminal(cmd.OutOrStdout()) {
		fmt.Fprintln(out.Writer)
	}

	errw := out.GetErrWriter()
	if withTrace {
		writeTrace(errw, run.Trace)
	}

	switch run.State {
	case engine.CycleLimited.String():
		fmt.Fprintf(errw, "stopped: cycle limit reached after %d cycles (ip=%d)\n", run.Cycles, run.IP)
	case engine.Faulted.String():
		fmt.Fprintf(errw, "fault: %s\n", run.ErrorMessage)
		return NewExitError(ExitFailure, run.ErrorMessage)
	}
	out.VerboseLog("%s after %s (ip=%d, pointer=%d)", run.State, plural(int(run.Cycles), "cycle"), run.IP, run.Pointer)
	return nil
}

// writeTrace prints one line per executed instruction.
func writeTrace(w io.Writer, trace []ir.TraceStep) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CYCLE\tOP\tIP\tPTR\tCELL")
	for _, step := range trace {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n", step.Cycle, step.Op, step.IP, step.Pointer, step.Cell)
	}
	tw.Flush()
}

func bytesToInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}
