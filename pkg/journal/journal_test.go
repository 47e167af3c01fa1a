package journal

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/cvforge-ai/cvforge/pkg/models"
)

func newTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "journal_test.db")
	j, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndQuery(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := models.SpendRecord{
		RequestID:    "req-1",
		UserID:       "user-1",
		Tier:         "pro",
		Model:        "gen-large",
		Task:         models.TaskGeneration,
		PromptTokens: 900,
		TotalTokens:  1200,
		CostUSD:      0.012,
		CreatedAt:    now,
	}
	if err := j.Record(ctx, rec); err != nil {
		t.Fatal(err)
	}

	records, err := j.QueryByUser(ctx, "user-1", now.Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Task != models.TaskGeneration {
		t.Errorf("task = %s, want generation", records[0].Task)
	}
	if records[0].CostUSD != 0.012 {
		t.Errorf("cost = %f, want 0.012", records[0].CostUSD)
	}
}

func TestTotalForUserSince(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	now := time.Now().UTC()

	charges := []struct {
		user string
		cost float64
		at   time.Time
	}{
		{"user-1", 0.05, now},
		{"user-1", 0.03, now.Add(-time.Minute)},
		{"user-1", 0.99, now.Add(-48 * time.Hour)},
		{"user-2", 0.40, now},
	}
	for i, c := range charges {
		err := j.Record(ctx, models.SpendRecord{
			RequestID: "req", UserID: c.user, Tier: "pro", Model: "m",
			Task: models.TaskEmbedding, CostUSD: c.cost, CreatedAt: c.at,
		})
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	total, err := j.TotalForUserSince(ctx, "user-1", now.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(total-0.08) > 1e-9 {
		t.Errorf("total = %f, want 0.08 (old and foreign charges excluded)", total)
	}

	total, err = j.TotalForUserSince(ctx, "user-3", now.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Errorf("total for unknown user = %f, want 0", total)
	}
}

func TestSummary(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, m := range []string{"embed-small", "embed-small", "gen-large"} {
		err := j.Record(ctx, models.SpendRecord{
			RequestID: "req", UserID: "user-1", Tier: "pro", Model: m,
			Task: models.TaskEmbedding, TotalTokens: 100, CostUSD: 0.01, CreatedAt: now,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	summaries, err := j.Summary(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summary rows, got %d", len(summaries))
	}
	if summaries[0].Model != "embed-small" || summaries[0].RequestCount != 2 {
		t.Errorf("unexpected first row: %+v", summaries[0])
	}
	if summaries[0].TotalTokens != 200 {
		t.Errorf("total tokens = %d, want 200", summaries[0].TotalTokens)
	}
}
