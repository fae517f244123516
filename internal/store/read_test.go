package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/brainplus/internal/ir"
)

func TestGetRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	prog, err := s.WriteProgram(ctx, ir.ProgramRecord{
		ID:        ir.ProgramID("a@+]@"),
		Source:    "a@+]@",
		Functions: []int{2, 5},
	})
	require.NoError(t, err)

	run := &ir.Run{
		ID:           "run-1",
		ProgramID:    prog.ID,
		Source:       prog.Source,
		Input:        []byte{1, 2},
		Output:       []byte{0, 255},
		State:        "faulted",
		Cycles:       3,
		IP:           3,
		Pointer:      0,
		StackDepth:   0,
		Cells:        []byte{1},
		CycleLimit:   100,
		TapeSize:     16,
		Strict:       true,
		EOF:          "keep",
		ErrorCode:    "FRAME_MISMATCH",
		ErrorMessage: "frame mismatch",
		Trace: []ir.TraceStep{
			{Cycle: 0, IP: 2, Op: "a", Pointer: 0, Cell: 0},
			{Cycle: 1, IP: 3, Op: "+", Pointer: 0, Cell: 1},
		},
	}
	require.NoError(t, s.WriteRun(ctx, run))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, got)

	wantDigest, err := ir.RunDigest(run)
	require.NoError(t, err)
	gotDigest, err := ir.RunDigest(got)
	require.NoError(t, err)
	assert.Equal(t, wantDigest, gotDigest)
}

func TestGetRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGetProgram(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := ir.ProgramRecord{ID: ir.ProgramID("ab@@"), Source: "ab@@", Functions: []int{3, 4}}
	written, err := s.WriteProgram(ctx, rec)
	require.NoError(t, err)

	got, err := s.GetProgram(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, written, got)

	_, err = s.GetProgram(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListRuns_Ordering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	p1, err := s.WriteProgram(ctx, createTestProgram("+"))
	require.NoError(t, err)
	p2, err := s.WriteProgram(ctx, createTestProgram("-"))
	require.NoError(t, err)

	for _, r := range []*ir.Run{
		createTestRun("c", p1, "exhausted"),
		createTestRun("a", p2, "exhausted"),
		createTestRun("b", p1, "halted"),
		createTestRun("d", p1, "cycle_limited"),
	} {
		require.NoError(t, s.WriteRun(ctx, r))
	}

	all, err := s.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b", "d"}, runIDs(all))

	forP1, err := s.ListRuns(ctx, p1.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "d"}, runIDs(forP1))

	latest, err := s.ListRuns(ctx, p1.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d"}, runIDs(latest))

	latestAll, err := s.ListRuns(ctx, "", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, runIDs(latestAll))
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background(), "", 0)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestGetProgramStats(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	prog, err := s.WriteProgram(ctx, createTestProgram("+"))
	require.NoError(t, err)

	faulted := createTestRun("f", prog, "faulted")
	faulted.ErrorCode = "STACK_UNDERFLOW"
	for _, r := range []*ir.Run{
		createTestRun("a", prog, "exhausted"),
		createTestRun("b", prog, "exhausted"),
		faulted,
	} {
		require.NoError(t, s.WriteRun(ctx, r))
	}

	stats, err := s.GetProgramStats(ctx, prog.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Runs)
	assert.Equal(t, 1, stats.Faulted)
	assert.Equal(t, map[string]int{"exhausted": 2, "faulted": 1}, stats.ByState)
	assert.Equal(t, int64(3), stats.LastSeq)

	empty, err := s.GetProgramStats(ctx, "nothing")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Runs)
	assert.Empty(t, empty.ByState)
}

func runIDs(runs []*ir.Run) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}
