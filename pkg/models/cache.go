package models

import "time"

// EmbeddingEntry is a cached embedding keyed by the fingerprint of the
// normalized input text. Entries are input-scoped: any user with identical
// content hits the same row.
type EmbeddingEntry struct {
	ContentHash  string    `json:"content_hash"`
	Vector       []float32 `json:"-"`
	ChunkCount   int       `json:"chunk_count"`
	CostUSD      float64   `json:"cost_usd"`
	AccessCount  int64     `json:"access_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

// GenerationEntry is a cached generation keyed by prompt fingerprint and
// scope. Scope is the owning user unless cross-user sharing is enabled.
type GenerationEntry struct {
	Fingerprint string           `json:"fingerprint"`
	Scope       string           `json:"scope"`
	Model       string           `json:"model"`
	Content     GeneratedContent `json:"content"`
	CostUSD     float64          `json:"cost_usd"`
	AccessCount int64            `json:"access_count"`
	CreatedAt   time.Time        `json:"created_at"`
}

// CacheStats reports cache size and hit/miss counters.
type CacheStats struct {
	Embeddings  int64 `json:"embeddings"`
	Generations int64 `json:"generations"`
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
}
