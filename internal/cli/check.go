package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/brainplus/internal/engine"
	"github.com/roach88/brainplus/internal/program"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	SourceOptions
}

// Issue severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue is a problem found in program text before running it.
type Issue struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Offset   int    `json:"offset"`
	Message  string `json:"message"`
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Valid     bool    `json:"valid"`
	Length    int     `json:"length"`
	Functions int     `json:"functions"`
	Issues    []Issue `json:"issues"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Check a program without running it",
		Long: `Check a BrainPlus program without running it.

Errors are conditions that stop every run that reaches them: characters
outside the instruction alphabet and too many functions. Warnings flag
code that runs but is probably wrong: unbalanced brackets and calls to
functions that are not declared.

Exit codes:
  0 - No errors (warnings may be reported)
  1 - One or more errors
  2 - Command error

Examples:
  brainplus check prog.bp
  brainplus check -e '+[>.' --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, cmd, args)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func runCheck(opts *CheckOptions, cmd *cobra.Command, args []string) error {
	out := newFormatter(opts.RootOptions, cmd)

	source, name, err := readSource(&opts.SourceOptions, cmd, args)
	if err != nil {
		return err
	}

	result := CheckSource(source)

	if out.JSON() {
		var errInfo *CLIError
		if !result.Valid {
			errInfo = &CLIError{
				Code:    "E_INVALID_PROGRAM",
				Message: fmt.Sprintf("%s has %s", name, plural(countErrors(result.Issues), "error")),
			}
		}
		if err := out.Respond(result, errInfo); err != nil {
			return err
		}
	} else {
		for _, issue := range result.Issues {
			out.Printf("%s:%d: %s: %s\n", name, issue.Offset, issue.Severity, issue.Message)
		}
		if result.Valid {
			out.Printf("✓ %s: %s, %s\n", name, plural(result.Length, "instruction"), plural(result.Functions, "function"))
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%s has %s", name, plural(countErrors(result.Issues), "error")))
	}
	return nil
}

// CheckSource scans source for problems. A too-many-functions error comes
// first, then issues in source order, then unclosed '['.
func CheckSource(source string) CheckResult {
	result := CheckResult{
		Length: len(source),
		Issues: []Issue{},
	}

	prog, err := program.Build(source)
	if err != nil {
		result.Issues = append(result.Issues, Issue{
			Severity: SeverityError,
			Code:     program.ErrCodeTooManyFunctions,
			Offset:   0,
			Message:  err.Error(),
		})
	} else {
		result.Functions = prog.FunctionCount()
	}

	var open []int
	for i := 0; i < len(source); i++ {
		in, ok := engine.Decode(source[i])
		if !ok {
			result.Issues = append(result.Issues, Issue{
				Severity: SeverityError,
				Code:     string(engine.ErrCodeUnknownInstruction),
				Offset:   i,
				Message:  fmt.Sprintf("unknown instruction %q", source[i]),
			})
			continue
		}
		switch in.Kind {
		case engine.OpLoopStart:
			open = append(open, i)
		case engine.OpLoopEnd:
			if len(open) == 0 {
				result.Issues = append(result.Issues, Issue{
					Severity: SeverityWarning,
					Code:     "UNMATCHED_CLOSE",
					Offset:   i,
					Message:  "']' has no matching '['",
				})
				continue
			}
			open = open[:len(open)-1]
		case engine.OpCall:
			if prog != nil && in.Func >= prog.FunctionCount() {
				result.Issues = append(result.Issues, Issue{
					Severity: SeverityWarning,
					Code:     "UNDECLARED_FUNCTION",
					Offset:   i,
					Message:  fmt.Sprintf("call to undeclared function %c is ignored", in.Char),
				})
			}
		}
	}
	for _, offset := range open {
		result.Issues = append(result.Issues, Issue{
			Severity: SeverityWarning,
			Code:     "UNMATCHED_OPEN",
			Offset:   offset,
			Message:  "'[' has no matching ']'",
		})
	}

	result.Valid = countErrors(result.Issues) == 0
	return result
}

func countErrors(issues []Issue) int {
	n := 0
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}
