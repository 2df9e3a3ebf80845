package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"scoby_collective/internal/domain"

	_ "modernc.org/sqlite"
)

// The journal is a write-only audit sink: engine events drained off the
// bus plus periodic metrics snapshots. Engine state itself is never
// persisted here.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	worker_id TEXT NOT NULL DEFAULT '',
	task_id TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind, created_at);

CREATE TABLE IF NOT EXISTS metrics_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	worker_count INTEGER NOT NULL,
	pending_tasks INTEGER NOT NULL,
	assigned_tasks INTEGER NOT NULL,
	completed_tasks INTEGER NOT NULL,
	failed_tasks INTEGER NOT NULL,
	total_credits REAL NOT NULL,
	collective_consciousness REAL NOT NULL,
	emergence_factor REAL NOT NULL,
	diversity_index REAL NOT NULL,
	collective_quality REAL NOT NULL,
	captured_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_captured ON metrics_snapshots(captured_at);
`

type Journal struct {
	db *sql.DB
}

func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set sqlite pragma %q: %w", stmt, err)
		}
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) Migrate(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (j *Journal) AppendEvent(ctx context.Context, ev domain.Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := j.db.ExecContext(
		ctx,
		`INSERT INTO events(kind, worker_id, task_id, detail, created_at) VALUES(?, ?, ?, ?, ?)`,
		string(ev.Kind), ev.WorkerID, ev.TaskID, ev.Detail, ev.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListRecentEvents returns up to limit events, newest first.
func (j *Journal) ListRecentEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(
		ctx,
		`SELECT kind, worker_id, task_id, detail, created_at
		FROM events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Event, 0, limit)
	for rows.Next() {
		var ev domain.Event
		var kind string
		var created int64
		if err := rows.Scan(&kind, &ev.WorkerID, &ev.TaskID, &ev.Detail, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = domain.EventKind(kind)
		ev.CreatedAt = time.Unix(created, 0).UTC()
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return result, nil
}

func (j *Journal) RecordSnapshot(ctx context.Context, m domain.Metrics) error {
	captured := m.CapturedAt
	if captured.IsZero() {
		captured = time.Now().UTC()
	}
	_, err := j.db.ExecContext(
		ctx,
		`INSERT INTO metrics_snapshots(
			worker_count, pending_tasks, assigned_tasks, completed_tasks, failed_tasks,
			total_credits, collective_consciousness, emergence_factor, diversity_index,
			collective_quality, captured_at
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.WorkerCount, m.PendingTasks, m.AssignedTasks, m.CompletedTasks, m.FailedTasks,
		m.TotalCredits, m.CollectiveConsciousness, m.EmergenceFactor, m.DiversityIndex,
		m.CollectiveQuality, captured.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns up to limit metrics snapshots, newest first.
func (j *Journal) ListSnapshots(ctx context.Context, limit int) ([]domain.Metrics, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(
		ctx,
		`SELECT worker_count, pending_tasks, assigned_tasks, completed_tasks, failed_tasks,
			total_credits, collective_consciousness, emergence_factor, diversity_index,
			collective_quality, captured_at
		FROM metrics_snapshots ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Metrics, 0, limit)
	for rows.Next() {
		var m domain.Metrics
		var captured int64
		if err := rows.Scan(
			&m.WorkerCount, &m.PendingTasks, &m.AssignedTasks, &m.CompletedTasks, &m.FailedTasks,
			&m.TotalCredits, &m.CollectiveConsciousness, &m.EmergenceFactor, &m.DiversityIndex,
			&m.CollectiveQuality, &captured,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		m.CapturedAt = time.Unix(captured, 0).UTC()
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return result, nil
}
