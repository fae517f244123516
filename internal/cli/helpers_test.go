package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// executeCommand runs cmd with args and an empty stdin.
func executeCommand(cmd *cobra.Command, args ...string) (string, string, error) {
	return executeWithInput(cmd, "", args...)
}

func executeWithInput(cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	if args == nil {
		// cobra falls back to os.Args for nil
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// decodeResponse parses a CLIResponse whose Data is decoded into data.
func decodeResponse(t *testing.T, raw string, data any) CLIResponse {
	t.Helper()
	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &envelope), "output: %s", raw)
	if data != nil && len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return CLIResponse{Status: envelope.Status, Error: envelope.Error}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// recordRuns records each source once in a fresh database and returns its path.
func recordRuns(t *testing.T, sources ...string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	for _, src := range sources {
		_, _, err := executeCommand(NewRunCommand(&RootOptions{Format: "text"}),
			"-e", src, "--db", dbPath, "--trace")
		if GetExitCode(err) == ExitCommandError {
			require.NoError(t, err)
		}
	}
	return dbPath
}
