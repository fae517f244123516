package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/brainplus/internal/ir"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestProgram returns a program record for source with no functions.
func createTestProgram(source string) ir.ProgramRecord {
	return ir.ProgramRecord{
		ID:        ir.ProgramID(source),
		Source:    source,
		Functions: []int{},
	}
}

// createTestRun creates a run with minimal required fields.
func createTestRun(id string, prog ir.ProgramRecord, state string) *ir.Run {
	return &ir.Run{
		ID:        id,
		ProgramID: prog.ID,
		Source:    prog.Source,
		Input:     []byte{},
		Output:    []byte("ok"),
		State:     state,
		Cycles:    3,
		IP:        3,
		Cells:     []byte{1},
		TapeSize:  30000,
		EOF:       "zero",
	}
}
