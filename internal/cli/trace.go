package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/brainplus/internal/ir"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// TraceResult is the JSON payload of the trace command.
type TraceResult struct {
	RunID     string         `json:"run_id"`
	ProgramID string         `json:"program_id"`
	Source    string         `json:"source"`
	State     string         `json:"state"`
	Cycles    int64          `json:"cycles"`
	Trace     []ir.TraceStep `json:"trace"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the instruction trace of a recorded run",
		Long: `Show the instruction trace of a recorded run.

Only runs recorded with 'brainplus run --db --trace' carry a trace.
Each step shows the cycle count before the instruction, the instruction,
and the instruction pointer, data pointer and current cell after it.

Examples:
  brainplus trace --db ./runs.db --run 0192...
  brainplus trace --db ./runs.db --run 0192... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show (required)")
	_ = cmd.MarkFlagRequired("run")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := newFormatter(opts.RootOptions, cmd)

	st, err := openDatabase(opts.Database)
	if err != nil {
		return err
	}
	defer closeDatabase(st)

	run, err := st.GetRun(ctx, opts.RunID)
	if err != nil {
		return notFound("run", opts.RunID, err)
	}

	result := TraceResult{
		RunID:     run.ID,
		ProgramID: run.ProgramID,
		Source:    run.Source,
		State:     run.State,
		Cycles:    run.Cycles,
		Trace:     run.Trace,
	}
	if result.Trace == nil {
		result.Trace = []ir.TraceStep{}
	}

	if out.JSON() {
		return out.Respond(result, nil)
	}

	out.Printf("Trace for Run: %s\n", result.RunID)
	out.Printf("Program: %s\n", sourceLabel(result.Source))
	out.Printf("State: %s after %s\n\n", result.State, plural(int(result.Cycles), "cycle"))
	if len(result.Trace) == 0 {
		out.Printf("  (no trace recorded; run with --trace)\n")
		return nil
	}
	writeTrace(out.Writer, result.Trace)
	if run.Faulted() {
		fmt.Fprintf(out.Writer, "\nfault: %s\n", run.ErrorMessage)
	}
	return nil
}
