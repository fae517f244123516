package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/brainplus/internal/program"
)

// FuncsOptions holds flags for the funcs command.
type FuncsOptions struct {
	*RootOptions
	SourceOptions

	Set []string // i=body, where i is a call letter or a 0-based index
}

// FunctionInfo describes one declared function.
type FunctionInfo struct {
	Letter string `json:"letter"`
	Index  int    `json:"index"`
	Start  int    `json:"start"`
	Body   string `json:"body"`
}

// FuncsResult is the JSON payload of the funcs command.
type FuncsResult struct {
	Source    string         `json:"source"`
	Prefix    string         `json:"prefix"`
	Functions []FunctionInfo `json:"functions"`
}

// NewFuncsCommand creates the funcs command.
func NewFuncsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FuncsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "funcs [file]",
		Short: "List or edit the functions of a program",
		Long: `List the function table of a BrainPlus program.

Function i starts right after the i-th '@' and is called with the i-th
letter. With --set, function bodies are replaced (missing functions in
between are added empty) and the rewritten source is printed.

Examples:
  brainplus funcs prog.bp
  brainplus funcs -e '+a@>@'
  brainplus funcs prog.bp --set a=++. --set c=-`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFuncs(opts, cmd, args)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "replace a function body (letter=body or index=body, repeatable)")

	return cmd
}

func runFuncs(opts *FuncsOptions, cmd *cobra.Command, args []string) error {
	out := newFormatter(opts.RootOptions, cmd)

	source, name, err := readSource(&opts.SourceOptions, cmd, args)
	if err != nil {
		return err
	}

	prog, err := program.Build(source)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid program %s", name), err)
	}

	for _, assignment := range opts.Set {
		index, body, err := parseAssignment(assignment)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --set", err)
		}
		prog, err = prog.WithFunction(index, body)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("cannot set function %d", index), err)
		}
		out.VerboseLog("set function %c (%d)", program.CallLetter(index), index)
	}

	result := describeProgram(prog)

	if out.JSON() {
		return out.Respond(result, nil)
	}

	if len(opts.Set) > 0 {
		out.Printf("%s\n", prog.Source())
		return nil
	}

	out.Printf("Program: %s (%s)\n", name, plural(len(result.Functions), "function"))
	out.Printf("Main: %s\n", displayBody(result.Prefix))
	if len(result.Functions) == 0 {
		return nil
	}
	out.Printf("\n")
	tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FUNC\tSTART\tBODY")
	for _, fn := range result.Functions {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", fn.Letter, fn.Start, displayBody(fn.Body))
	}
	return tw.Flush()
}

func describeProgram(prog *program.Program) FuncsResult {
	result := FuncsResult{
		Source:    prog.Source(),
		Prefix:    prog.Prefix(),
		Functions: make([]FunctionInfo, 0, prog.FunctionCount()),
	}
	for i := 0; i < prog.FunctionCount(); i++ {
		result.Functions = append(result.Functions, FunctionInfo{
			Letter: string(program.CallLetter(i)),
			Index:  i,
			Start:  prog.FunctionStart(i),
			Body:   prog.Body(i),
		})
	}
	return result
}

// parseAssignment splits "b=body" or "1=body" into an index and a body.
func parseAssignment(s string) (int, string, error) {
	key, body, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return 0, "", fmt.Errorf("expected <letter|index>=<body>, got %q", s)
	}
	if len(key) == 1 && key[0] >= 'a' && key[0] <= 'z' {
		return int(key[0] - 'a'), body, nil
	}
	index, err := strconv.Atoi(key)
	if err != nil {
		return 0, "", fmt.Errorf("function %q is neither a letter nor an index", key)
	}
	if index < 0 {
		return 0, "", fmt.Errorf("function index %d is negative", index)
	}
	return index, body, nil
}

func displayBody(body string) string {
	if body == "" {
		return "(empty)"
	}
	return sourceLabel(body)
}
