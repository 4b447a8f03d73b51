package store

import (
	"context"
	"fmt"

	"github.com/roach88/slate/internal/ir"
)

// WriteRun archives one run atomically: the run row, its steps, and its
// events commit together or not at all. Uses ON CONFLICT DO NOTHING for
// idempotency - re-archiving the same run token is silently ignored.
func (s *Store) WriteRun(ctx context.Context, run RunRecord, steps []StepRecord, events []EventRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (token, scenario, pass, started_at, archive_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`, run.Token, run.Scenario, boolInt(run.Pass), run.StartedAt, ir.ArchiveVersion)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	for _, step := range steps {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_steps (run_token, seq, kind, payload, digest)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, run.Token, step.Seq, step.Kind, step.Payload, step.Digest)
		if err != nil {
			return fmt.Errorf("write step %d: %w", step.Seq, err)
		}
	}

	for _, event := range events {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_events (run_token, event_id, kind, template, witnesses, consumed, digest)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, run.Token, event.EventID, event.Kind, event.Template, event.Witnesses, boolInt(event.Consumed), event.Digest)
		if err != nil {
			return fmt.Errorf("write event %s: %w", event.EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
