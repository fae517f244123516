// Command brainplus runs, inspects and tests BrainPlus programs.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/brainplus/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
