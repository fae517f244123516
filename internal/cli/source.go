package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// SourceOptions selects where program text comes from.
type SourceOptions struct {
	Expr string // -e: program text on the command line
}

func (o *SourceOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Expr, "expr", "e", "", "program source given inline instead of a file")
}

// readSource returns the program text and a display name. The source is
// the -e expression, the file named by args[0], or stdin for "-".
// Trailing line breaks are dropped; they are not instructions.
func readSource(o *SourceOptions, cmd *cobra.Command, args []string) (string, string, error) {
	switch {
	case o.Expr != "" && len(args) > 0:
		return "", "", NewExitError(ExitCommandError, "give either a file or -e, not both")
	case o.Expr != "":
		return o.Expr, "<expr>", nil
	case len(args) == 0:
		return "", "", NewExitError(ExitCommandError, "a program file or -e is required")
	}

	path := args[0]
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
		path = "<stdin>"
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", "", WrapExitError(ExitCommandError, "failed to read program", err)
	}
	return strings.TrimRight(string(data), "\r\n"), path, nil
}

// isTerminal reports whether r or w is an interactive terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// sourceLabel shortens long sources for display.
func sourceLabel(source string) string {
	const maxLabel = 40
	if len(source) <= maxLabel {
		return source
	}
	return source[:maxLabel-3] + "..."
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
