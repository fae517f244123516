package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/brainplus/internal/ir"
)

const runColumns = `
	r.id, r.program_id, r.seq, p.source, r.input, r.output, r.state, r.cycles,
	r.ip, r.pointer, r.stack_depth, r.cells, r.cycle_limit, r.tape_size,
	r.strict, r.eof, r.error_code, r.error_message, r.trace`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// GetRun returns the run with the given ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetRun(ctx context.Context, id string) (*ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs r
		JOIN programs p ON p.id = r.program_id
		WHERE r.id = ?
	`, id)
	run, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns runs ordered by seq ASC, id ASC.
// An empty programID lists every run. A non-positive limit means no limit;
// otherwise the most recent limit runs are returned, still in ascending order.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context, programID string, limit int) ([]*ir.Run, error) {
	var args []any
	query := `SELECT ` + runColumns + `
		FROM runs r
		JOIN programs p ON p.id = r.program_id`
	if programID != "" {
		query += `
		WHERE r.program_id = ?`
		args = append(args, programID)
	}

	if limit > 0 {
		// newest limit runs, re-sorted ascending
		query = `SELECT * FROM (` + query + `
		ORDER BY r.seq DESC, r.id COLLATE BINARY DESC
		LIMIT ?)
		ORDER BY seq ASC, id COLLATE BINARY ASC`
		args = append(args, limit)
	} else {
		query += `
		ORDER BY r.seq ASC, r.id COLLATE BINARY ASC`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []*ir.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetProgram returns the program with the given ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetProgram(ctx context.Context, id string) (ir.ProgramRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, functions, seq
		FROM programs
		WHERE id = ?
	`, id)
	rec, err := scanProgram(row)
	if err != nil {
		return ir.ProgramRecord{}, fmt.Errorf("get program %s: %w", id, err)
	}
	return rec, nil
}

// ListPrograms returns every stored program ordered by seq ASC, id ASC.
func (s *Store) ListPrograms(ctx context.Context) ([]ir.ProgramRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, functions, seq
		FROM programs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query programs: %w", err)
	}
	defer rows.Close()

	programs := []ir.ProgramRecord{}
	for rows.Next() {
		rec, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programs: %w", err)
	}
	return programs, nil
}

func scanProgram(row rowScanner) (ir.ProgramRecord, error) {
	var (
		rec       ir.ProgramRecord
		functions string
	)
	if err := row.Scan(&rec.ID, &rec.Source, &functions, &rec.Seq); err != nil {
		return ir.ProgramRecord{}, err
	}
	starts, err := unmarshalFunctions(functions)
	if err != nil {
		return ir.ProgramRecord{}, err
	}
	rec.Functions = starts
	return rec, nil
}

func scanRun(row rowScanner) (*ir.Run, error) {
	var (
		run    ir.Run
		strict int
		trace  []byte
	)
	err := row.Scan(
		&run.ID,
		&run.ProgramID,
		&run.Seq,
		&run.Source,
		&run.Input,
		&run.Output,
		&run.State,
		&run.Cycles,
		&run.IP,
		&run.Pointer,
		&run.StackDepth,
		&run.Cells,
		&run.CycleLimit,
		&run.TapeSize,
		&strict,
		&run.EOF,
		&run.ErrorCode,
		&run.ErrorMessage,
		&trace,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run.Strict = strict != 0
	run.Trace, err = unmarshalTrace(trace)
	if err != nil {
		return nil, fmt.Errorf("scan run %s: %w", run.ID, err)
	}
	return &run, nil
}
