package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"scoby_collective/internal/domain"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	if err := j.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return j
}

func TestMigrateIdempotent(t *testing.T) {
	j := newTestJournal(t)
	if err := j.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate should succeed: %v", err)
	}
}

func TestAppendAndListEvents(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	events := []domain.Event{
		{Kind: domain.EventWorkerAdded, WorkerID: "w1", Detail: "strategic"},
		{Kind: domain.EventTaskAdded, TaskID: "t1", Detail: "research"},
		{Kind: domain.EventTaskAssigned, TaskID: "t1", WorkerID: "w1"},
	}
	for _, ev := range events {
		if err := j.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("append %s: %v", ev.Kind, err)
		}
	}

	got, err := j.ListRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	// Newest first.
	if got[0].Kind != domain.EventTaskAssigned || got[2].Kind != domain.EventWorkerAdded {
		t.Fatalf("unexpected order: %v, %v", got[0].Kind, got[2].Kind)
	}
	if got[0].WorkerID != "w1" || got[0].TaskID != "t1" {
		t.Fatalf("event fields lost: %+v", got[0])
	}
	if got[0].CreatedAt.IsZero() {
		t.Fatalf("created_at should be filled in on append")
	}
}

func TestListRecentEventsLimit(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if err := j.AppendEvent(ctx, domain.Event{Kind: domain.EventWorkerUpdated, WorkerID: "w1"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, err := j.ListRecentEvents(ctx, 4)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 events, got %d", len(got))
	}
}

func TestSnapshotRoundtrip(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	captured := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m := domain.Metrics{
		WorkerCount:             5,
		PendingTasks:            2,
		AssignedTasks:           1,
		CompletedTasks:          7,
		FailedTasks:             1,
		TotalCredits:            500.5,
		CollectiveConsciousness: 6.2,
		EmergenceFactor:         1.31,
		DiversityIndex:          0.87,
		CollectiveQuality:       0.9971,
		CapturedAt:              captured,
	}
	if err := j.RecordSnapshot(ctx, m); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := j.RecordSnapshot(ctx, domain.Metrics{WorkerCount: 6}); err != nil {
		t.Fatalf("record second: %v", err)
	}

	got, err := j.ListSnapshots(ctx, 10)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(got))
	}
	if got[0].WorkerCount != 6 {
		t.Fatalf("newest snapshot should come first, got %+v", got[0])
	}
	first := got[1]
	if first.WorkerCount != 5 || first.CompletedTasks != 7 || first.FailedTasks != 1 {
		t.Fatalf("counters lost: %+v", first)
	}
	if first.TotalCredits != 500.5 || first.CollectiveQuality != 0.9971 {
		t.Fatalf("gauges lost: %+v", first)
	}
	if !first.CapturedAt.Equal(captured) {
		t.Fatalf("captured_at mismatch: %v vs %v", first.CapturedAt, captured)
	}
}
