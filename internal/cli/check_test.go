package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSource(t *testing.T) {
	tests := []struct {
		name   string
		source string
		valid  bool
		codes  []string
	}{
		{name: "clean", source: "+a@[-]@", valid: true},
		{name: "empty", source: "", valid: true},
		{name: "unknown instruction", source: "+ +#", valid: false, codes: []string{"UNKNOWN_INSTRUCTION", "UNKNOWN_INSTRUCTION"}},
		{name: "unmatched open", source: "+[>", valid: true, codes: []string{"UNMATCHED_OPEN"}},
		{name: "unmatched close", source: "+]", valid: true, codes: []string{"UNMATCHED_CLOSE"}},
		{name: "undeclared call", source: "+b@>", valid: true, codes: []string{"UNDECLARED_FUNCTION"}},
		{name: "too many functions", source: strings.Repeat("@", 27), valid: false, codes: []string{"TOO_MANY_FUNCTIONS"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckSource(tt.source)
			assert.Equal(t, tt.valid, result.Valid)
			assert.Equal(t, len(tt.source), result.Length)

			codes := make([]string, 0, len(result.Issues))
			for _, issue := range result.Issues {
				codes = append(codes, issue.Code)
			}
			if tt.codes == nil {
				tt.codes = []string{}
			}
			assert.Equal(t, tt.codes, codes)
		})
	}
}

func TestCheckSource_Offsets(t *testing.T) {
	result := CheckSource("[+>]?")
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 4, result.Issues[0].Offset)
	assert.Equal(t, SeverityError, result.Issues[0].Severity)
	assert.Equal(t, 0, result.Functions)
}

func TestCheckCommand_Valid(t *testing.T) {
	cmd := NewCheckCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, "-e", "+a@>.@")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ <expr>: 6 instructions, 2 functions")
}

func TestCheckCommand_Warnings(t *testing.T) {
	cmd := NewCheckCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, "-e", "[+")
	require.NoError(t, err)
	assert.Contains(t, stdout, "<expr>:0: warning: '[' has no matching ']'")
	assert.Contains(t, stdout, "✓")
}

func TestCheckCommand_Errors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.bp", "+ -\n")

	cmd := NewCheckCommand(&RootOptions{Format: "text"})
	stdout, _, err := executeCommand(cmd, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, path+":1: error: unknown instruction ' '")
	assert.Contains(t, err.Error(), "1 error")
}

func TestCheckCommand_JSON(t *testing.T) {
	cmd := NewCheckCommand(&RootOptions{Format: "json"})
	stdout, _, err := executeCommand(cmd, "-e", "+#")
	require.Error(t, err)

	var result CheckResult
	resp := decodeResponse(t, stdout, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_INVALID_PROGRAM", resp.Error.Code)
	assert.False(t, result.Valid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, Issue{
		Severity: SeverityError,
		Code:     "UNKNOWN_INSTRUCTION",
		Offset:   1,
		Message:  `unknown instruction '#'`,
	}, result.Issues[0])
}
