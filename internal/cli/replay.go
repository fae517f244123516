package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/brainplus/internal/ir"
	"github.com/roach88/brainplus/internal/session"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string `json:"run_id"`
	State         string `json:"state"`
	Cycles        int64  `json:"cycles"`
	StoredDigest  string `json:"stored_digest"`
	ReplayDigest  string `json:"replay_digest"`
	Deterministic bool   `json:"deterministic"`
	Reason        string `json:"reason,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run recorded runs and verify determinism",
		Long: `Re-run recorded runs and verify determinism.

Every run is executed twice from its stored program, input and
configuration. Both executions must reproduce the stored outcome: state,
output, counters, error code and trace.

Exit codes:
  0 - All runs are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  brainplus replay --db ./runs.db
  brainplus replay --db ./runs.db --run 0192...
  brainplus replay --db ./runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	out := newFormatter(opts.RootOptions, cmd)

	st, err := openDatabase(opts.Database)
	if err != nil {
		return err
	}
	defer closeDatabase(st)

	var runs []*ir.Run
	if opts.RunID != "" {
		run, err := st.GetRun(ctx, opts.RunID)
		if err != nil {
			return notFound("run", opts.RunID, err)
		}
		runs = []*ir.Run{run}
	} else {
		runs, err = st.ListRuns(ctx, "", 0)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}

	if len(runs) == 0 {
		if out.JSON() {
			return out.Respond(result, nil)
		}
		out.Printf("No runs found in database.\n")
		return nil
	}

	for _, run := range runs {
		runResult, err := replayAndVerifyRun(ctx, run)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		out.VerboseLog("replayed %s: %s", run.ID, runResult.ReplayDigest)

		result.Runs = append(result.Runs, runResult)
		if !runResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if out.JSON() {
		return outputReplayJSON(out, result)
	}
	return outputReplayText(out, result)
}

// replayAndVerifyRun executes a stored run twice and compares both
// outcomes with the stored one.
func replayAndVerifyRun(ctx context.Context, stored *ir.Run) (ReplayRunResult, error) {
	result := ReplayRunResult{
		RunID:  stored.ID,
		State:  stored.State,
		Cycles: stored.Cycles,
	}

	storedDigest, err := ir.RunDigest(stored)
	if err != nil {
		return result, err
	}
	result.StoredDigest = storedDigest

	digests := make([]string, 2)
	for i := range digests {
		s, err := session.FromRun(stored)
		if err != nil {
			return result, err
		}
		s.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

		// a faulted run comes back with its runtime error
		replayed, err := s.ExecuteContext(ctx)
		if replayed == nil {
			return result, fmt.Errorf("replay %d: %w", i+1, err)
		}
		digests[i], err = ir.RunDigest(replayed)
		if err != nil {
			return result, err
		}
	}
	result.ReplayDigest = digests[0]

	switch {
	case digests[0] != digests[1]:
		result.Reason = "replays differ from each other"
	case digests[0] != storedDigest:
		result.Reason = "replay differs from recorded outcome"
	default:
		result.Deterministic = true
	}
	return result, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(out *OutputFormatter, result ReplayResult) error {
	var errInfo *CLIError
	if !result.AllDeterministic {
		errInfo = &CLIError{
			Code:    "E_NONDETERMINISTIC",
			Message: "replay produced different results",
		}
	}
	if err := out.Respond(result, errInfo); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(out *OutputFormatter, result ReplayResult) error {
	out.Printf("Replay Results\n")
	out.Printf("==============\n\n")

	for _, r := range result.Runs {
		mark := "✓"
		if !r.Deterministic {
			mark = "✗"
		}
		out.Printf("%s %s  %s after %s\n", mark, r.RunID, r.State, plural(int(r.Cycles), "cycle"))
		if r.Reason != "" {
			out.Printf("  %s\n", r.Reason)
		}
		if out.Verbose {
			out.Printf("  stored: %s\n  replay: %s\n", r.StoredDigest, r.ReplayDigest)
		}
	}

	out.Printf("\nTotal: %s\n", plural(result.TotalRuns, "run"))
	if !result.AllDeterministic {
		out.Printf("✗ Determinism check FAILED\n")
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	out.Printf("✓ All runs deterministic\n")
	return nil
}
