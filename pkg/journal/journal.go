package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cvforge-ai/cvforge/pkg/models"
)

// Journal records and queries reconciled charges. It is the durable side of
// budget accounting: the ledger seeds its daily totals from here on startup
// and reporting reads from here.
type Journal interface {
	// Record stores one reconciled charge.
	Record(ctx context.Context, rec models.SpendRecord) error
	// TotalForUserSince returns the summed USD charges for a user since a given time.
	TotalForUserSince(ctx context.Context, userID string, since time.Time) (float64, error)
	// QueryByUser returns a user's charges since a given time, newest first.
	QueryByUser(ctx context.Context, userID string, since time.Time) ([]models.SpendRecord, error)
	// Summary returns aggregated charges, optionally filtered by user.
	Summary(ctx context.Context, userID string) ([]models.SpendSummary, error)
	// Close releases resources.
	Close() error
}

// SQLiteJournal implements Journal with a SQLite database.
type SQLiteJournal struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS spend_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	tier TEXT NOT NULL,
	model TEXT NOT NULL,
	task TEXT NOT NULL,
	prompt_tokens INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	total_tokens INTEGER NOT NULL,
	cost_usd REAL NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_spend_user_time ON spend_records(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_spend_request ON spend_records(request_id);
`

// New creates a SQLiteJournal and runs auto-migration.
func New(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	// Single connection plus a busy timeout keeps concurrent writers from
	// seeing "database is locked".
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal db: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// Record stores one reconciled charge.
func (j *SQLiteJournal) Record(ctx context.Context, rec models.SpendRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO spend_records (request_id, user_id, tier, model, task, prompt_tokens, completion_tokens, total_tokens, cost_usd, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.UserID, rec.Tier, rec.Model, string(rec.Task),
		rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens, rec.CostUSD, created,
	)
	if err != nil {
		return fmt.Errorf("record charge: %w", err)
	}
	return nil
}

// TotalForUserSince returns the summed USD charges for a user since a given time.
func (j *SQLiteJournal) TotalForUserSince(ctx context.Context, userID string, since time.Time) (float64, error) {
	var total float64
	err := j.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(cost_usd), 0) FROM spend_records WHERE user_id = ? AND created_at >= ?`,
		userID, since,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total charges: %w", err)
	}
	return total, nil
}

// QueryByUser returns a user's charges since a given time, newest first.
func (j *SQLiteJournal) QueryByUser(ctx context.Context, userID string, since time.Time) ([]models.SpendRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, request_id, user_id, tier, model, task, prompt_tokens, completion_tokens, total_tokens, cost_usd, created_at
		 FROM spend_records WHERE user_id = ? AND created_at >= ? ORDER BY created_at DESC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("query charges: %w", err)
	}
	defer rows.Close()

	var records []models.SpendRecord
	for rows.Next() {
		var r models.SpendRecord
		var task string
		if err := rows.Scan(&r.ID, &r.RequestID, &r.UserID, &r.Tier, &r.Model, &task,
			&r.PromptTokens, &r.CompletionTokens, &r.TotalTokens, &r.CostUSD, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan charge: %w", err)
		}
		r.Task = models.TaskType(task)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Summary returns aggregated charges grouped by user and model.
func (j *SQLiteJournal) Summary(ctx context.Context, userID string) ([]models.SpendSummary, error) {
	query := `SELECT user_id, model, COUNT(*), SUM(total_tokens), SUM(cost_usd)
		 FROM spend_records`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` GROUP BY user_id, model ORDER BY user_id, model`

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.SpendSummary
	for rows.Next() {
		var s models.SpendSummary
		if err := rows.Scan(&s.UserID, &s.Model, &s.RequestCount, &s.TotalTokens, &s.TotalCostUSD); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Close releases the database connection.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
