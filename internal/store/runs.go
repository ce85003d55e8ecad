package store

import (
	"context"
	"fmt"

	"github.com/MikeSquared-Agency/winnow/internal/pipeline"
)

// Schema, applied out of band:
//
//	CREATE TABLE cleaning_runs (
//		id          uuid PRIMARY KEY,
//		op          text NOT NULL,
//		input       text NOT NULL,
//		output      text NOT NULL DEFAULT '',
//		total       integer NOT NULL,
//		kept        integer NOT NULL,
//		dropped     integer NOT NULL,
//		duplicates  integer NOT NULL,
//		invalid     integer NOT NULL,
//		repaired    integer NOT NULL,
//		started_at  timestamptz NOT NULL,
//		finished_at timestamptz NOT NULL
//	);

// WriteRunReport records one finished cleaning run.
func (s *Store) WriteRunReport(ctx context.Context, rep pipeline.Report) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO cleaning_runs (id, op, input, output, total, kept, dropped, duplicates, invalid, repaired, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rep.RunID, rep.Op, rep.Input, rep.Output,
		rep.Total, rep.Kept, rep.Dropped, rep.Duplicate, rep.Invalid, rep.Repaired,
		rep.Started, rep.Finished,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RecentRuns returns the latest recorded runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]pipeline.Report, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, op, input, output, total, kept, dropped, duplicates, invalid, repaired, started_at, finished_at
		FROM cleaning_runs ORDER BY finished_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []pipeline.Report
	for rows.Next() {
		var rep pipeline.Report
		err := rows.Scan(&rep.RunID, &rep.Op, &rep.Input, &rep.Output,
			&rep.Total, &rep.Kept, &rep.Dropped, &rep.Duplicate, &rep.Invalid, &rep.Repaired,
			&rep.Started, &rep.Finished)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, rep)
	}
	return runs, rows.Err()
}
