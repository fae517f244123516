package store

import (
	"context"
	"fmt"
)

// ProgramStats summarizes the stored runs of one program.
type ProgramStats struct {
	ProgramID string
	Runs      int
	ByState   map[string]int // run count per terminal state
	Faulted   int            // runs with an error code
	LastSeq   int64
}

// GetProgramStats aggregates the runs recorded for programID.
// A program with no runs yields zero counts.
func (s *Store) GetProgramStats(ctx context.Context, programID string) (ProgramStats, error) {
	stats := ProgramStats{
		ProgramID: programID,
		ByState:   map[string]int{},
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT state, COUNT(*), SUM(error_code != ''), MAX(seq)
		FROM runs
		WHERE program_id = ?
		GROUP BY state
		ORDER BY state COLLATE BINARY ASC
	`, programID)
	if err != nil {
		return stats, fmt.Errorf("get program stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			state   string
			count   int
			faulted int
			lastSeq int64
		)
		if err := rows.Scan(&state, &count, &faulted, &lastSeq); err != nil {
			return stats, fmt.Errorf("get program stats: scan: %w", err)
		}
		stats.ByState[state] = count
		stats.Runs += count
		stats.Faulted += faulted
		if lastSeq > stats.LastSeq {
			stats.LastSeq = lastSeq
		}
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("get program stats: iterate: %w", err)
	}
	return stats, nil
}
