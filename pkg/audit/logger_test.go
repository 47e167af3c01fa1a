package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cvforge-ai/cvforge/pkg/models"
)

func mustNew(t *testing.T, retentionDays int) *Logger {
	t.Helper()
	l, err := New(filepath.Join(t.TempDir(), "calls_test.db"), retentionDays)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func sampleRecord() models.CallRecord {
	return models.CallRecord{
		RequestID:        "req-001",
		Provider:         "openai",
		Model:            "gpt-test",
		Task:             models.TaskGeneration,
		Status:           models.CallOK,
		LatencyMs:        150,
		PromptTokens:     10,
		CompletionTokens: 20,
		TotalTokens:      30,
		CostUSD:          0.0007,
		CreatedAt:        time.Now().UTC(),
	}
}

func TestLogAndQuery(t *testing.T) {
	l := mustNew(t, 0)
	ctx := context.Background()

	rec := sampleRecord()
	if err := l.Log(ctx, rec); err != nil {
		t.Fatalf("Log: %v", err)
	}

	failed := sampleRecord()
	failed.RequestID = "req-002"
	failed.Status = models.CallError
	failed.ErrorKind = "rate_limited"
	failed.CostUSD = 0
	if err := l.Log(ctx, failed); err != nil {
		t.Fatalf("Log failed record: %v", err)
	}

	got, err := l.Query(ctx, QueryOpts{RequestID: "req-001"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Model != "gpt-test" || got[0].Status != models.CallOK {
		t.Errorf("record = %+v", got[0])
	}
	if got[0].TotalTokens != 30 || got[0].CostUSD != 0.0007 {
		t.Errorf("usage = %+v", got[0])
	}

	errored, err := l.Query(ctx, QueryOpts{Status: models.CallError})
	if err != nil {
		t.Fatalf("Query by status: %v", err)
	}
	if len(errored) != 1 || errored[0].ErrorKind != "rate_limited" {
		t.Errorf("errored = %+v", errored)
	}
}

func TestQuerySinceAndLimit(t *testing.T) {
	l := mustNew(t, 0)
	ctx := context.Background()

	old := sampleRecord()
	old.RequestID = "req-old"
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	if err := l.Log(ctx, old); err != nil {
		t.Fatalf("Log: %v", err)
	}
	for i := 0; i < 3; i++ {
		rec := sampleRecord()
		if err := l.Log(ctx, rec); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	recent, err := l.Query(ctx, QueryOpts{Since: time.Now().UTC().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recent) != 3 {
		t.Errorf("got %d recent records, want 3", len(recent))
	}

	limited, err := l.Query(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("Query with limit: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d limited records, want 2", len(limited))
	}
}

func TestStats(t *testing.T) {
	l := mustNew(t, 0)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.Log(ctx, sampleRecord()); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	failed := sampleRecord()
	failed.Status = models.CallError
	failed.ErrorKind = "upstream"
	if err := l.Log(ctx, failed); err != nil {
		t.Fatalf("Log: %v", err)
	}

	stats, err := l.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("got %d stat rows, want 1", len(stats))
	}
	if stats[0].Model != "gpt-test" || stats[0].Calls != 3 || stats[0].Errors != 1 {
		t.Errorf("stat = %+v", stats[0])
	}
}

func TestCleanup(t *testing.T) {
	l := mustNew(t, 7)
	ctx := context.Background()

	old := sampleRecord()
	old.CreatedAt = time.Now().UTC().AddDate(0, 0, -30)
	if err := l.Log(ctx, old); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := l.Log(ctx, sampleRecord()); err != nil {
		t.Fatalf("Log: %v", err)
	}

	deleted, err := l.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	remaining, err := l.Query(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("got %d remaining, want 1", len(remaining))
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	ctx := context.Background()

	if err := l.Log(ctx, sampleRecord()); err != nil {
		t.Errorf("nil Log: %v", err)
	}
	if _, err := l.Query(ctx, QueryOpts{}); err != nil {
		t.Errorf("nil Query: %v", err)
	}
	if _, err := l.Stats(ctx); err != nil {
		t.Errorf("nil Stats: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}
