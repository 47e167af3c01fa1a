// Package sqlite implements the content-addressed cache for embeddings and
// generations. Embedding entries are input-scoped (any user with identical
// normalized content shares them); generation entries are scoped, by default
// to the owning user.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/cvforge-ai/cvforge/pkg/content"
	"github.com/cvforge-ai/cvforge/pkg/logging"
	"github.com/cvforge-ai/cvforge/pkg/models"
	"github.com/cvforge-ai/cvforge/pkg/vector"
)

// Options controls optional cache behavior.
type Options struct {
	// NearDupEnabled turns on lexical near-duplicate matching on embedding misses.
	NearDupEnabled bool
	// NearDupThreshold is the signature cosine above which a candidate counts
	// as a duplicate. Defaults to 0.98.
	NearDupThreshold float64
	// NearDupCandidates bounds how many recent entries are scanned. Defaults to 256.
	NearDupCandidates int
}

// Cache is the SQLite-backed content cache.
type Cache struct {
	db     *sql.DB
	opts   Options
	logger *zap.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

const createTables = `
CREATE TABLE IF NOT EXISTS embeddings (
	content_hash TEXT PRIMARY KEY,
	vector BLOB NOT NULL,
	signature BLOB NOT NULL,
	chunk_count INTEGER NOT NULL,
	cost_usd REAL NOT NULL,
	access_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	last_accessed DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_embeddings_accessed ON embeddings(last_accessed DESC);

CREATE TABLE IF NOT EXISTS generations (
	fingerprint TEXT NOT NULL,
	scope TEXT NOT NULL,
	model TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	cost_usd REAL NOT NULL,
	access_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (fingerprint, scope)
);
`

// New creates a Cache at the given database path (":memory:" works for
// tests) and runs auto-migration.
func New(dbPath string, opts Options, logger *zap.Logger) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
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

	if _, err := db.Exec(createTables); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	if opts.NearDupThreshold <= 0 {
		opts.NearDupThreshold = 0.98
	}
	if opts.NearDupCandidates <= 0 {
		opts.NearDupCandidates = 256
	}

	return &Cache{db: db, opts: opts, logger: logging.OrNop(logger)}, nil
}

// LookupEmbedding returns the cached embedding for text, matching first by
// exact fingerprint and then, when enabled, by lexical near-duplicate.
// Corrupt rows are dropped and treated as a miss, never as a failure.
func (c *Cache) LookupEmbedding(ctx context.Context, text string) (*models.EmbeddingEntry, bool) {
	hash := content.Fingerprint(text)

	entry, ok := c.embeddingByHash(ctx, hash)
	if ok {
		c.hits.Add(1)
		c.touchEmbedding(ctx, entry.ContentHash)
		return entry, true
	}

	if c.opts.NearDupEnabled {
		if entry, ok := c.nearDuplicate(ctx, text); ok {
			c.hits.Add(1)
			c.touchEmbedding(ctx, entry.ContentHash)
			return entry, true
		}
	}

	c.misses.Add(1)
	return nil, false
}

func (c *Cache) embeddingByHash(ctx context.Context, hash string) (*models.EmbeddingEntry, bool) {
	var e models.EmbeddingEntry
	var blob []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT content_hash, vector, chunk_count, cost_usd, access_count, created_at, last_accessed
		 FROM embeddings WHERE content_hash = ?`, hash,
	).Scan(&e.ContentHash, &blob, &e.ChunkCount, &e.CostUSD, &e.AccessCount, &e.CreatedAt, &e.LastAccessed)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Warn("embedding lookup failed", zap.String("content_hash", hash), zap.Error(err))
		}
		return nil, false
	}

	vec, err := vector.Decode(blob)
	if err != nil || len(vec) == 0 {
		c.logger.Warn("dropping corrupt embedding entry",
			zap.String("content_hash", hash), zap.Error(err))
		c.DeleteEmbedding(ctx, hash)
		return nil, false
	}
	e.Vector = vec
	return &e, true
}

// nearDuplicate scans the most recently used entries for a lexical signature
// match of the given text.
func (c *Cache) nearDuplicate(ctx context.Context, text string) (*models.EmbeddingEntry, bool) {
	sig := content.Signature(text)

	rows, err := c.db.QueryContext(ctx,
		`SELECT content_hash, signature FROM embeddings ORDER BY last_accessed DESC LIMIT ?`,
		c.opts.NearDupCandidates,
	)
	if err != nil {
		c.logger.Warn("near-duplicate scan failed", zap.Error(err))
		return nil, false
	}
	defer rows.Close()

	bestHash := ""
	bestSim := c.opts.NearDupThreshold
	for rows.Next() {
		var hash string
		var blob []byte
		if err := rows.Scan(&hash, &blob); err != nil {
			continue
		}
		candidate, err := vector.Decode(blob)
		if err != nil {
			continue
		}
		if sim := vector.Cosine(sig, candidate); sim >= bestSim {
			bestHash, bestSim = hash, sim
		}
	}
	if bestHash == "" {
		return nil, false
	}

	c.logger.Debug("near-duplicate cache hit",
		zap.String("content_hash", bestHash), zap.Float64("similarity", bestSim))
	return c.embeddingByHash(ctx, bestHash)
}

func (c *Cache) touchEmbedding(ctx context.Context, hash string) {
	_, err := c.db.ExecContext(ctx,
		`UPDATE embeddings SET access_count = access_count + 1, last_accessed = ? WHERE content_hash = ?`,
		time.Now().UTC(), hash,
	)
	if err != nil {
		c.logger.Warn("embedding touch failed", zap.String("content_hash", hash), zap.Error(err))
	}
}

// StoreEmbedding caches a freshly computed embedding. Stores are idempotent
// under concurrency: the first writer wins and stored reports whether this
// call inserted the row. When stored is false the caller already has an
// equivalent entry paid for by someone else and must charge zero.
func (c *Cache) StoreEmbedding(ctx context.Context, text string, vec []float32, chunkCount int, costUSD float64) (*models.EmbeddingEntry, bool, error) {
	hash := content.Fingerprint(text)
	now := time.Now().UTC()

	res, err := c.db.ExecContext(ctx,
		`INSERT INTO embeddings (content_hash, vector, signature, chunk_count, cost_usd, access_count, created_at, last_accessed)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)
		 ON CONFLICT(content_hash) DO NOTHING`,
		hash, vector.Encode(vec), vector.Encode(content.Signature(text)), chunkCount, costUSD, now, now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("store embedding: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("store embedding result: %w", err)
	}
	if affected == 0 {
		existing, ok := c.embeddingByHash(ctx, hash)
		if !ok {
			return nil, false, fmt.Errorf("store embedding: lost insert race but row unreadable for %s", hash)
		}
		return existing, false, nil
	}

	return &models.EmbeddingEntry{
		ContentHash:  hash,
		Vector:       vec,
		ChunkCount:   chunkCount,
		CostUSD:      costUSD,
		CreatedAt:    now,
		LastAccessed: now,
	}, true, nil
}

// DeleteEmbedding removes one embedding row. Used when a stored vector turns
// out to be unusable (corrupt blob, stale dimensions).
func (c *Cache) DeleteEmbedding(ctx context.Context, hash string) {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM embeddings WHERE content_hash = ?`, hash); err != nil {
		c.logger.Warn("embedding delete failed", zap.String("content_hash", hash), zap.Error(err))
	}
}

// LookupGeneration returns the cached generation for a prompt within a scope.
func (c *Cache) LookupGeneration(ctx context.Context, scope, prompt string) (*models.GenerationEntry, bool) {
	fp := content.Fingerprint(prompt)

	var e models.GenerationEntry
	var raw string
	err := c.db.QueryRowContext(ctx,
		`SELECT fingerprint, scope, model, content, cost_usd, access_count, created_at
		 FROM generations WHERE fingerprint = ? AND scope = ?`, fp, scope,
	).Scan(&e.Fingerprint, &e.Scope, &e.Model, &raw, &e.CostUSD, &e.AccessCount, &e.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Warn("generation lookup failed", zap.String("fingerprint", fp), zap.Error(err))
		}
		c.misses.Add(1)
		return nil, false
	}

	if err := json.Unmarshal([]byte(raw), &e.Content); err != nil {
		c.logger.Warn("dropping corrupt generation entry",
			zap.String("fingerprint", fp), zap.String("scope", scope), zap.Error(err))
		if _, err := c.db.ExecContext(ctx,
			`DELETE FROM generations WHERE fingerprint = ? AND scope = ?`, fp, scope); err != nil {
			c.logger.Warn("generation delete failed", zap.Error(err))
		}
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	if _, err := c.db.ExecContext(ctx,
		`UPDATE generations SET access_count = access_count + 1 WHERE fingerprint = ? AND scope = ?`,
		fp, scope); err != nil {
		c.logger.Warn("generation touch failed", zap.Error(err))
	}
	return &e, true
}

// StoreGeneration caches generated content under (prompt fingerprint, scope)
// with the same first-writer-wins contract as StoreEmbedding.
func (c *Cache) StoreGeneration(ctx context.Context, scope, prompt, model string, gen models.GeneratedContent, costUSD float64) (*models.GenerationEntry, bool, error) {
	fp := content.Fingerprint(prompt)
	raw, err := json.Marshal(gen)
	if err != nil {
		return nil, false, fmt.Errorf("encode generation: %w", err)
	}
	now := time.Now().UTC()

	res, err := c.db.ExecContext(ctx,
		`INSERT INTO generations (fingerprint, scope, model, content, cost_usd, access_count, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)
		 ON CONFLICT(fingerprint, scope) DO NOTHING`,
		fp, scope, model, string(raw), costUSD, now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("store generation: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("store generation result: %w", err)
	}
	if affected == 0 {
		var e models.GenerationEntry
		var existing string
		err := c.db.QueryRowContext(ctx,
			`SELECT fingerprint, scope, model, content, cost_usd, access_count, created_at
			 FROM generations WHERE fingerprint = ? AND scope = ?`, fp, scope,
		).Scan(&e.Fingerprint, &e.Scope, &e.Model, &existing, &e.CostUSD, &e.AccessCount, &e.CreatedAt)
		if err != nil {
			return nil, false, fmt.Errorf("store generation: lost insert race but row unreadable: %w", err)
		}
		if err := json.Unmarshal([]byte(existing), &e.Content); err != nil {
			return nil, false, fmt.Errorf("store generation: decode existing row: %w", err)
		}
		return &e, false, nil
	}

	return &models.GenerationEntry{
		Fingerprint: fp,
		Scope:       scope,
		Model:       model,
		Content:     gen,
		CostUSD:     costUSD,
		CreatedAt:   now,
	}, true, nil
}

// Stats returns entry counts and hit/miss counters.
func (c *Cache) Stats(ctx context.Context) (models.CacheStats, error) {
	var embeddings, generations int64
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&embeddings); err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generations`).Scan(&generations); err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return models.CacheStats{
		Embeddings:  embeddings,
		Generations: generations,
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
	}, nil
}

// Clear removes all cache entries.
func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM embeddings`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, `DELETE FROM generations`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
