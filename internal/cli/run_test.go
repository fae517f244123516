package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/brainplus/internal/ir"
	"github.com/roach88/brainplus/internal/session"
)

func runJSON(t *testing.T, stdin string, args ...string) (RunOutput, CLIResponse, error) {
	t.Helper()
	cmd := NewRunCommand(&RootOptions{Format: "json"})
	stdout, _, err := executeWithInput(cmd, stdin, args...)
	var data RunOutput
	resp := decodeResponse(t, stdout, &data)
	return data, resp, err
}

func TestRunCommand_Expr(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, "-e", "++++++++[>++++++++<-]>+.")
	require.NoError(t, err)
	assert.Equal(t, "A", stdout)
}

func TestRunCommand_File(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hello.bp",
		"++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++.\n")

	cmd := NewRunCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, path)
	require.NoError(t, err)
	assert.Equal(t, "Hello World!\n", stdout)
}

func TestRunCommand_SourceFromStdin(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeWithInput(cmd, "+++.\n", "-")
	require.NoError(t, err)
	assert.Equal(t, "\x03", stdout)
}

func TestRunCommand_JSON(t *testing.T) {
	data, resp, err := runJSON(t, "", "-e", "a@+++.@")
	require.NoError(t, err)

	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "halted", data.State)
	assert.Equal(t, []int{3}, data.OutputBytes)
	assert.Equal(t, int64(7), data.Cycles)
	assert.Equal(t, 1, data.IP)
	assert.Equal(t, 0, data.StackDepth)
	assert.Equal(t, ir.ProgramID("a@+++.@"), data.ProgramID)
	assert.NotEmpty(t, data.RunID)
	assert.False(t, data.Recorded)
	assert.Empty(t, data.Trace)
}

func TestRunCommand_InputFlag(t *testing.T) {
	data, _, err := runJSON(t, "ignored", "-e", ",[.,]", "--input", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", data.Output)
	assert.Equal(t, int64(9), data.Cycles)
}

func TestRunCommand_InputFromStdin(t *testing.T) {
	data, _, err := runJSON(t, "hi", "-e", ",[.,]")
	require.NoError(t, err)
	assert.Equal(t, "hi", data.Output)
}

func TestRunCommand_Trace(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	stdout, stderr, err := executeCommand(cmd, "-e", "+>.", "--trace")
	require.NoError(t, err)
	assert.Equal(t, "\x00", stdout)
	assert.Contains(t, stderr, "CYCLE")
	assert.Contains(t, stderr, "OP")

	data, _, err := runJSON(t, "", "-e", "+>.", "--trace")
	require.NoError(t, err)
	require.Len(t, data.Trace, 3)
	assert.Equal(t, ir.TraceStep{Cycle: 0, IP: 1, Op: "+", Pointer: 0, Cell: 1}, data.Trace[0])
	assert.Equal(t, ir.TraceStep{Cycle: 1, IP: 2, Op: ">", Pointer: 1, Cell: 0}, data.Trace[1])
}

func TestRunCommand_CycleLimit(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	_, stderr, err := executeCommand(cmd, "-e", "+[]", "--cycle-limit", "10")
	require.NoError(t, err)
	assert.Contains(t, stderr, "cycle limit reached after 10 cycles")

	data, _, err := runJSON(t, "", "-e", "+[]", "--cycle-limit", "10")
	require.NoError(t, err)
	assert.Equal(t, "cycle_limited", data.State)
	assert.Equal(t, int64(10), data.Cycles)
	assert.Equal(t, 1, data.StackDepth)
}

func TestRunCommand_Fault(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   string
	}{
		{name: "stack underflow", source: "+]", code: "STACK_UNDERFLOW"},
		{name: "unknown instruction", source: "+#", code: "UNKNOWN_INSTRUCTION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRunCommand(&RootOptions{Format: "text"})
			_, stderr, err := executeCommand(cmd, "-e", tt.source)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, stderr, "fault: "+tt.code)

			data, resp, err := runJSON(t, "", "-e", tt.source)
			require.Error(t, err)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "E_FAULT", resp.Error.Code)
			assert.Equal(t, "faulted", data.State)
			assert.Equal(t, tt.code, data.ErrorCode)
			assert.Equal(t, int64(1), data.Cycles)
		})
	}
}

func TestRunCommand_StrictFlag(t *testing.T) {
	// ']' pops the call frame pushed by 'a'
	data, _, err := runJSON(t, "", "-e", "+a@]@", "--strict")
	require.Error(t, err)
	assert.Equal(t, "FRAME_MISMATCH", data.ErrorCode)

	data, _, err = runJSON(t, "", "-e", "+a@]@")
	require.NoError(t, err)
	assert.NotEqual(t, "faulted", data.State)
}

func TestRunCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "engine.cue", "cycle_limit: 3\neof: \"keep\"\n")

	data, _, err := runJSON(t, "", "-e", "+++++", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "cycle_limited", data.State)
	assert.Equal(t, int64(3), data.Cycles)

	// flags override the file
	data, _, err = runJSON(t, "", "-e", "+++++", "--config", cfgPath, "--cycle-limit", "0")
	require.NoError(t, err)
	assert.Equal(t, "exhausted", data.State)
}

func TestRunCommand_InvalidConfig(t *testing.T) {
	cfgPath := writeFile(t, t.TempDir(), "bad.cue", "tape_size: 0\n")

	cmd := NewRunCommand(&RootOptions{Format: "text"})
	_, _, err := executeCommand(cmd, "-e", "+", "--config", cfgPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRunCommand_TooManyFunctions(t *testing.T) {
	source := ""
	for i := 0; i < 27; i++ {
		source += "@"
	}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	_, _, err := executeCommand(cmd, "-e", source)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "TOO_MANY_FUNCTIONS")
}

func TestRunCommand_SourceErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no source", args: nil, want: "a program file or -e is required"},
		{name: "file and expr", args: []string{"-e", "+", "prog.bp"}, want: "not both"},
		{name: "missing file", args: []string{"/nonexistent/prog.bp"}, want: "failed to read program"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRunCommand(&RootOptions{Format: "text"})
			_, _, err := executeCommand(cmd, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunCommand_RecordsRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	data, _, err := runJSON(t, "", "-e", "+++.", "--db", dbPath)
	require.NoError(t, err)
	assert.True(t, data.Recorded)

	st, err := openDatabase(dbPath)
	require.NoError(t, err)
	defer closeDatabase(st)

	run, err := st.GetRun(context.Background(), data.RunID)
	require.NoError(t, err)
	assert.Equal(t, "+++.", run.Source)
	assert.Equal(t, "exhausted", run.State)
	assert.Equal(t, []byte{3}, run.Output)
	assert.Equal(t, int64(1), run.Seq)

	prog, err := st.GetProgram(context.Background(), data.ProgramID)
	require.NoError(t, err)
	assert.Equal(t, "+++.", prog.Source)
}

func TestRunCommand_RecordsFaultedRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	data, _, err := runJSON(t, "", "-e", "+]", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, data.Recorded)

	st, err := openDatabase(dbPath)
	require.NoError(t, err)
	defer closeDatabase(st)

	run, err := st.GetRun(context.Background(), data.RunID)
	require.NoError(t, err)
	assert.Equal(t, "STACK_UNDERFLOW", run.ErrorCode)
}

func TestRunOptions_FixedIDs(t *testing.T) {
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "json"},
		IDs:         session.NewFixedGenerator("run-1"),
	}
	opts.Expr = "+."

	cmd := NewRunCommand(opts.RootOptions)
	cmd.RunE = func(c *cobra.Command, args []string) error {
		return runProgram(opts, c, args)
	}
	stdout, _, err := executeCommand(cmd)
	require.NoError(t, err)

	var data RunOutput
	decodeResponse(t, stdout, &data)
	assert.Equal(t, "run-1", data.RunID)
	assert.Equal(t, []int{1}, data.OutputBytes)
}
