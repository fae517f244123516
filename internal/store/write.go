package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/brainplus/internal/ir"
)

// WriteProgram stores a program and returns it with its seq.
//
// Programs are content-addressed: writing the same ID twice is a no-op
// and returns the record already stored.
func (s *Store) WriteProgram(ctx context.Context, rec ir.ProgramRecord) (ir.ProgramRecord, error) {
	functions, err := marshalFunctions(rec.Functions)
	if err != nil {
		return ir.ProgramRecord{}, fmt.Errorf("write program: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.ProgramRecord{}, fmt.Errorf("write program: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	err = tx.QueryRowContext(ctx, `SELECT seq FROM programs WHERE id = ?`, rec.ID).Scan(&seq)
	switch {
	case err == nil:
		rec.Seq = seq
		return rec, nil
	case !errors.Is(err, sql.ErrNoRows):
		return ir.ProgramRecord{}, fmt.Errorf("write program: lookup: %w", err)
	}

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM programs`).Scan(&seq); err != nil {
		return ir.ProgramRecord{}, fmt.Errorf("write program: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO programs (id, source, function_count, functions, seq)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.Source, len(rec.Functions), functions, seq)
	if err != nil {
		return ir.ProgramRecord{}, fmt.Errorf("write program: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ir.ProgramRecord{}, fmt.Errorf("write program: commit: %w", err)
	}
	rec.Seq = seq
	return rec, nil
}

// WriteRun appends a run and assigns run.Seq.
//
// The run's program must already be stored (foreign key). Writing a run
// ID that exists is a no-op; run.Seq is set to the stored seq.
func (s *Store) WriteRun(ctx context.Context, run *ir.Run) error {
	trace, err := marshalTrace(run.Trace)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	err = tx.QueryRowContext(ctx, `SELECT seq FROM runs WHERE id = ?`, run.ID).Scan(&seq)
	switch {
	case err == nil:
		run.Seq = seq
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("write run: lookup: %w", err)
	}

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, program_id, seq, input, output, state, cycles, ip, pointer, stack_depth, cells,
		 cycle_limit, tape_size, strict, eof, error_code, error_message, trace,
		 engine_version, record_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.ProgramID,
		seq,
		blob(run.Input),
		blob(run.Output),
		run.State,
		run.Cycles,
		run.IP,
		run.Pointer,
		run.StackDepth,
		blob(run.Cells),
		run.CycleLimit,
		run.TapeSize,
		boolToInt(run.Strict),
		run.EOF,
		run.ErrorCode,
		run.ErrorMessage,
		trace,
		ir.EngineVersion,
		ir.RecordVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	run.Seq = seq
	return nil
}
