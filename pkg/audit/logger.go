// Package audit keeps the provider call log: one row per upstream attempt,
// successful or not, in a dedicated SQLite database.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cvforge-ai/cvforge/pkg/models"
)

// QueryOpts filters call log queries. Zero values mean "any".
type QueryOpts struct {
	RequestID string
	Provider  string
	Model     string
	Status    models.CallStatus
	Since     time.Time
	Limit     int
}

// Stat is an aggregate row: call counts per model and day.
type Stat struct {
	Model  string
	Day    string
	Calls  int64
	Errors int64
}

// Logger writes and queries call records. A nil *Logger is a no-op, so the
// pipeline can run with auditing disabled.
type Logger struct {
	db            *sql.DB
	retentionDays int
	done          chan struct{}
	wg            sync.WaitGroup
}

// New opens the call log database and creates the schema. With
// retentionDays > 0 a background sweep deletes older rows hourly.
func New(dbPath string, retentionDays int) (*Logger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open call log db: %w", err)
	}

	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate call log db: %w", err)
	}

	l := &Logger{
		db:            db,
		retentionDays: retentionDays,
		done:          make(chan struct{}),
	}

	if retentionDays > 0 {
		l.wg.Add(1)
		go l.retentionLoop()
	}

	return l, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS call_log (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id        TEXT NOT NULL,
		provider          TEXT NOT NULL,
		model             TEXT NOT NULL,
		task              TEXT NOT NULL,
		status            TEXT NOT NULL,
		error_kind        TEXT,
		latency_ms        INTEGER NOT NULL,
		prompt_tokens     INTEGER NOT NULL DEFAULT 0,
		completion_tokens INTEGER NOT NULL DEFAULT 0,
		total_tokens      INTEGER NOT NULL DEFAULT 0,
		cost_usd          REAL NOT NULL DEFAULT 0,
		created_at        DATETIME NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_call_request ON call_log(request_id)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_call_created ON call_log(created_at)`)
	return err
}

// Log inserts one call record. Logging never blocks the pipeline on a nil
// receiver.
func (l *Logger) Log(ctx context.Context, rec models.CallRecord) error {
	if l == nil || l.db == nil {
		return nil
	}

	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO call_log
		(request_id, provider, model, task, status, error_kind, latency_ms,
		 prompt_tokens, completion_tokens, total_tokens, cost_usd, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID, rec.Provider, rec.Model, string(rec.Task),
		string(rec.Status), rec.ErrorKind, rec.LatencyMs,
		rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens,
		rec.CostUSD, created,
	)
	return err
}

// Query returns call records matching opts, newest first.
func (l *Logger) Query(ctx context.Context, opts QueryOpts) ([]models.CallRecord, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}

	q := `SELECT id, request_id, provider, model, task, status, error_kind,
		latency_ms, prompt_tokens, completion_tokens, total_tokens, cost_usd, created_at
		FROM call_log WHERE 1=1`
	var args []any

	if opts.RequestID != "" {
		q += " AND request_id = ?"
		args = append(args, opts.RequestID)
	}
	if opts.Provider != "" {
		q += " AND provider = ?"
		args = append(args, opts.Provider)
	}
	if opts.Model != "" {
		q += " AND model = ?"
		args = append(args, opts.Model)
	}
	if opts.Status != "" {
		q += " AND status = ?"
		args = append(args, string(opts.Status))
	}
	if !opts.Since.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, opts.Since)
	}

	q += " ORDER BY created_at DESC, id DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	q += " LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query call log: %w", err)
	}
	defer rows.Close()

	var records []models.CallRecord
	for rows.Next() {
		var rec models.CallRecord
		var task, status string
		var errorKind sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.RequestID, &rec.Provider, &rec.Model,
			&task, &status, &errorKind, &rec.LatencyMs,
			&rec.PromptTokens, &rec.CompletionTokens, &rec.TotalTokens,
			&rec.CostUSD, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan call record: %w", err)
		}
		rec.Task = models.TaskType(task)
		rec.Status = models.CallStatus(status)
		rec.ErrorKind = errorKind.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats returns call counts grouped by model and day, newest day first.
func (l *Logger) Stats(ctx context.Context) ([]Stat, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT model, date(created_at) AS day, count(*),
			sum(CASE WHEN status = 'error' THEN 1 ELSE 0 END)
		 FROM call_log GROUP BY model, day ORDER BY day DESC, model`)
	if err != nil {
		return nil, fmt.Errorf("call log stats: %w", err)
	}
	defer rows.Close()

	var stats []Stat
	for rows.Next() {
		var s Stat
		var day sql.NullString
		if err := rows.Scan(&s.Model, &day, &s.Calls, &s.Errors); err != nil {
			return nil, fmt.Errorf("scan call stat: %w", err)
		}
		s.Day = day.String
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Cleanup deletes records older than the retention period.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	if l == nil || l.db == nil || l.retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -l.retentionDays)
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM call_log WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("call log cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the retention sweep and closes the database.
func (l *Logger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	close(l.done)
	l.wg.Wait()
	return l.db.Close()
}

func (l *Logger) retentionLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			_, _ = l.Cleanup(context.Background())
		}
	}
}
