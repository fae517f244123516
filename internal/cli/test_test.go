package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: plus_three
description: "Three increments and an output"
source: "+++."
expect:
  state: exhausted
  output_bytes: [3]
  cycles: 4
`

const failingScenario = `name: wrong_output
description: "Expects one more increment than the program does"
source: "++."
expect:
  output_bytes: [3]
`

func TestTestCommandMissingArgs(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	_, _, err := executeCommand(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	_, _, err := executeCommand(cmd, "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "json"})
	stdout, _, err := executeCommand(cmd, t.TempDir())
	require.NoError(t, err)

	var result TestResult
	resp := decodeResponse(t, stdout, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, result.Total)
	assert.Empty(t, result.Scenarios)
}

func TestTestCommandPassing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plus_three.yaml", passingScenario)

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ plus_three")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, stdout, "All scenarios passed")
}

func TestTestCommandFailing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plus_three.yaml", passingScenario)
	writeFile(t, dir, "wrong_output.yml", failingScenario)

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ wrong_output")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFailingJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wrong_output.yaml", failingScenario)

	cmd := NewTestCommand(&RootOptions{Format: "json"})
	stdout, _, err := executeCommand(cmd, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	resp := decodeResponse(t, stdout, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	require.Len(t, result.Scenarios, 1)
	assert.False(t, result.Scenarios[0].Pass)
	assert.NotEmpty(t, result.Scenarios[0].Errors)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "typo.yaml", "name: typo\nsource: \"+\"\nexpcet:\n  state: exhausted\n")

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ typo.yaml")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plus_three.yaml", passingScenario)
	writeFile(t, dir, "wrong_output.yaml", failingScenario)

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, dir, "--filter", "plus_*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 total")
	assert.NotContains(t, stdout, "wrong_output")
}

func TestTestCommandInvalidFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plus_three.yaml", passingScenario)

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	_, _, err := executeCommand(cmd, dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandGoldenFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plus_three.yaml", passingScenario)
	goldenPath := filepath.Join(dir, "golden", "plus_three.golden")

	// --update writes the golden file
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ plus_three (golden updated)")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t,
		`{"cycles":4,"output":[3],"scenario_name":"plus_three","state":"exhausted","trace":[`+
			`{"cell":1,"cycle":0,"ip":1,"op":"+","pointer":0},`+
			`{"cell":2,"cycle":1,"ip":2,"op":"+","pointer":0},`+
			`{"cell":3,"cycle":2,"ip":3,"op":"+","pointer":0},`+
			`{"cell":3,"cycle":3,"ip":4,"op":".","pointer":0}]}`,
		string(golden))

	// a matching golden file passes
	cmd = NewTestCommand(&RootOptions{Format: "text"})
	_, _, err = executeCommand(cmd, dir)
	require.NoError(t, err)

	// a stale golden file fails
	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"cycles":0}`), 0644))
	cmd = NewTestCommand(&RootOptions{Format: "text"})
	stdout, _, err = executeCommand(cmd, dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "trace does not match golden file")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "loop.golden"),
		goldenFilePath(filepath.Join("scenarios", "loop.yaml")))
}
