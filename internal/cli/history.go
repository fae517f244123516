package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/brainplus/internal/ir"
	"github.com/roach88/brainplus/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database  string
	ProgramID string // optional - one program only
	Limit     int
}

// RunSummary is one line of run history.
type RunSummary struct {
	Seq       int64  `json:"seq"`
	ID        string `json:"id"`
	ProgramID string `json:"program_id"`
	State     string `json:"state"`
	Cycles    int64  `json:"cycles"`
	Output    string `json:"output"`
	ErrorCode string `json:"error_code,omitempty"`
}

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	Runs  []RunSummary        `json:"runs"`
	Stats *store.ProgramStats `json:"stats,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List the runs recorded with 'brainplus run --db'.

Runs are listed oldest first. With --program, only that program's runs
are listed, followed by a per-state summary.

Examples:
  brainplus history --db ./runs.db
  brainplus history --db ./runs.db --limit 10
  brainplus history --db ./runs.db --program 8xJ2...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.ProgramID, "program", "", "only runs of this program ID")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the most recent N runs (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := newFormatter(opts.RootOptions, cmd)

	st, err := openDatabase(opts.Database)
	if err != nil {
		return err
	}
	defer closeDatabase(st)

	if opts.ProgramID != "" {
		if _, err := st.GetProgram(ctx, opts.ProgramID); err != nil {
			return notFound("program", opts.ProgramID, err)
		}
	}

	runs, err := st.ListRuns(ctx, opts.ProgramID, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	result := HistoryResult{Runs: make([]RunSummary, 0, len(runs))}
	for _, run := range runs {
		result.Runs = append(result.Runs, summarizeRun(run))
	}

	if opts.ProgramID != "" {
		stats, err := st.GetProgramStats(ctx, opts.ProgramID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read program stats", err)
		}
		result.Stats = &stats
	}

	if out.JSON() {
		return out.Respond(result, nil)
	}
	return outputHistoryText(out, result)
}

func summarizeRun(run *ir.Run) RunSummary {
	return RunSummary{
		Seq:       run.Seq,
		ID:        run.ID,
		ProgramID: run.ProgramID,
		State:     run.State,
		Cycles:    run.Cycles,
		Output:    string(run.Output),
		ErrorCode: run.ErrorCode,
	}
}

func outputHistoryText(out *OutputFormatter, result HistoryResult) error {
	if len(result.Runs) == 0 {
		out.Printf("No runs recorded.\n")
	} else {
		tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tRUN\tPROGRAM\tSTATE\tCYCLES\tOUTPUT")
		for _, r := range result.Runs {
			state := r.State
			if r.ErrorCode != "" {
				state += " (" + r.ErrorCode + ")"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
				r.Seq, r.ID, truncateID(r.ProgramID), state, r.Cycles, quoteOutput(r.Output))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if result.Stats == nil {
		return nil
	}
	stats := result.Stats
	out.Printf("\n=== Program %s ===\n", stats.ProgramID)
	out.Printf("  Runs:    %d\n", stats.Runs)
	out.Printf("  Faulted: %d\n", stats.Faulted)
	states := make([]string, 0, len(stats.ByState))
	for state := range stats.ByState {
		states = append(states, state)
	}
	slices.Sort(states)
	for _, state := range states {
		out.Printf("  %-14s %d\n", state+":", stats.ByState[state])
	}
	return nil
}

// truncateID shortens an ID for display.
func truncateID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12] + "..."
}

// quoteOutput renders program output on one line.
func quoteOutput(s string) string {
	q := strconv.Quote(s)
	const maxOutput = 32
	if len(q) > maxOutput {
		return q[:maxOutput-3] + "..."
	}
	return q
}
