package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound reports a run token absent from the archive.
var ErrRunNotFound = errors.New("run not found")

// ArchivedRun is a fully loaded run.
type ArchivedRun struct {
	Run    RunRecord
	Steps  []StepRecord
	Events []EventRecord
}

// ReadRun loads a run by token. Steps are ordered by seq, events by the
// byte order of their event id text (so "#0:10" comes before "#0:2"); both
// orders are fixed, so reads are deterministic.
func (s *Store) ReadRun(ctx context.Context, token string) (*ArchivedRun, error) {
	var run RunRecord
	var pass int
	err := s.db.QueryRowContext(ctx, `
		SELECT token, scenario, pass, started_at FROM runs WHERE token = ?
	`, token).Scan(&run.Token, &run.Scenario, &pass, &run.StartedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, token)
	}
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	run.Pass = pass != 0

	steps, err := s.readSteps(ctx, token)
	if err != nil {
		return nil, err
	}
	events, err := s.readEvents(ctx, token)
	if err != nil {
		return nil, err
	}
	return &ArchivedRun{Run: run, Steps: steps, Events: events}, nil
}

// ListRuns returns all archived runs, most recent token order last.
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, scenario, pass, started_at FROM runs
		ORDER BY started_at ASC, token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		var run RunRecord
		var pass int
		if err := rows.Scan(&run.Token, &run.Scenario, &pass, &run.StartedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Pass = pass != 0
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (s *Store) readSteps(ctx context.Context, token string) ([]StepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, payload, digest FROM run_steps
		WHERE run_token = ?
		ORDER BY seq ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []StepRecord{}
	for rows.Next() {
		var step StepRecord
		if err := rows.Scan(&step.Seq, &step.Kind, &step.Payload, &step.Digest); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

func (s *Store) readEvents(ctx context.Context, token string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, kind, template, witnesses, consumed, digest FROM run_events
		WHERE run_token = ?
		ORDER BY event_id COLLATE BINARY ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []EventRecord{}
	for rows.Next() {
		var event EventRecord
		var consumed int
		if err := rows.Scan(&event.EventID, &event.Kind, &event.Template, &event.Witnesses, &consumed, &event.Digest); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.Consumed = consumed != 0
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
