package config

import (
	"fmt"
	"os"
	"time"

	"github.com/cvforge-ai/cvforge/pkg/models"
	"gopkg.in/yaml.v3"
)

// Config holds all cvforge configuration. It is read once at process start
// and treated as immutable afterwards.
type Config struct {
	DBPath    string                `yaml:"db_path"`
	Providers []ProviderConfig      `yaml:"providers"`
	Models    []models.ModelProfile `yaml:"models"`
	Budget    BudgetConfig          `yaml:"budget"`
	Cache     CacheConfig           `yaml:"cache"`
	Chunker   ChunkerConfig         `yaml:"chunker"`
	Breaker   BreakerConfig         `yaml:"breaker"`
	Selection SelectionConfig       `yaml:"selection"`
	Ranking   RankingConfig         `yaml:"ranking"`
	Timeouts  TimeoutConfig         `yaml:"timeouts"`
	Audit     AuditConfig           `yaml:"audit"`
}

// ProviderConfig defines an upstream model provider.
// Type is "openai" (default, any OpenAI-compatible endpoint) or "gemini".
type ProviderConfig struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Type   string `yaml:"type"`
}

// BudgetConfig maps subscription tiers to daily USD limits. DefaultTier is
// used when a request or query names no tier.
type BudgetConfig struct {
	TierLimits  map[string]float64 `yaml:"tier_limits"`
	DefaultTier string             `yaml:"default_tier"`
}

// CacheConfig controls the content cache.
type CacheConfig struct {
	Path              string        `yaml:"path"`
	SharedGenerations bool          `yaml:"shared_generations"`
	NearDuplicate     NearDupConfig `yaml:"near_duplicate"`
}

// NearDupConfig controls lexical near-duplicate matching on cache misses.
type NearDupConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Threshold  float64 `yaml:"threshold"`
	Candidates int     `yaml:"candidates"`
}

// ChunkerConfig controls how long inputs are windowed before embedding.
type ChunkerConfig struct {
	Window  int `yaml:"window"`
	Overlap int `yaml:"overlap"`
}

// BreakerConfig controls per-model circuit breakers.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	Cooldown         time.Duration `yaml:"cooldown"`
	Window           time.Duration `yaml:"window"`
}

// SelectionConfig controls model selection.
// Strategy is "cost_optimized", "quality_first", or "balanced".
type SelectionConfig struct {
	Strategy      string  `yaml:"strategy"`
	CostWeight    float64 `yaml:"cost_weight"`
	QualityWeight float64 `yaml:"quality_weight"`
}

// RankingConfig controls artifact ranking.
type RankingConfig struct {
	TopK int `yaml:"top_k"`
}

// TimeoutConfig sets per-call deadlines by task.
type TimeoutConfig struct {
	Embed    time.Duration `yaml:"embed"`
	Generate time.Duration `yaml:"generate"`
}

// AuditConfig controls the provider call log.
type AuditConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		DBPath: "cvforge.db",
		Budget: BudgetConfig{
			DefaultTier: "free",
		},
		Cache: CacheConfig{
			Path: "cvforge_cache.db",
			NearDuplicate: NearDupConfig{
				Enabled:    false,
				Threshold:  0.98,
				Candidates: 256,
			},
		},
		Chunker: ChunkerConfig{
			Window:  2000,
			Overlap: 200,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
			Window:           time.Minute,
		},
		Selection: SelectionConfig{
			Strategy:      "balanced",
			CostWeight:    0.5,
			QualityWeight: 0.5,
		},
		Ranking: RankingConfig{
			TopK: 8,
		},
		Timeouts: TimeoutConfig{
			Embed:    30 * time.Second,
			Generate: 2 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:       false,
			DBPath:        "cvforge_audit.db",
			RetentionDays: 30,
		},
	}
}

// Load reads a YAML config file, expands environment variables, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	providers := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider %d: name is required", i)
		}
		if providers[p.Name] {
			return fmt.Errorf("provider %q defined twice", p.Name)
		}
		switch p.Type {
		case "", "openai", "gemini":
		default:
			return fmt.Errorf("provider %q: unknown type %q", p.Name, p.Type)
		}
		if (p.Type == "" || p.Type == "openai") && p.URL == "" {
			return fmt.Errorf("provider %q: url is required for openai-compatible providers", p.Name)
		}
		providers[p.Name] = true
	}

	ids := make(map[string]bool, len(c.Models))
	for i, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("model %d: id is required", i)
		}
		if ids[m.ID] {
			return fmt.Errorf("model %q defined twice", m.ID)
		}
		ids[m.ID] = true
		if !providers[m.Provider] {
			return fmt.Errorf("model %q: unknown provider %q", m.ID, m.Provider)
		}
		if len(m.Tasks) == 0 {
			return fmt.Errorf("model %q: at least one task is required", m.ID)
		}
		for _, task := range m.Tasks {
			if task != models.TaskEmbedding && task != models.TaskGeneration {
				return fmt.Errorf("model %q: unknown task %q", m.ID, task)
			}
		}
		if m.EmbedCostPer1K < 0 || m.PromptCostPer1K < 0 || m.CompletionCostPer1K < 0 {
			return fmt.Errorf("model %q: pricing must not be negative", m.ID)
		}
	}

	for tier, limit := range c.Budget.TierLimits {
		if limit < 0 {
			return fmt.Errorf("budget tier %q: limit must not be negative", tier)
		}
	}

	if c.Chunker.Window <= 0 {
		return fmt.Errorf("chunker window must be positive")
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.Window {
		return fmt.Errorf("chunker overlap must be in [0, window)")
	}

	if c.Breaker.FailureThreshold < 1 {
		return fmt.Errorf("breaker failure_threshold must be at least 1")
	}
	if c.Breaker.Cooldown <= 0 || c.Breaker.Window <= 0 {
		return fmt.Errorf("breaker cooldown and window must be positive")
	}

	switch c.Selection.Strategy {
	case "cost_optimized", "quality_first", "balanced":
	default:
		return fmt.Errorf("unknown selection strategy %q", c.Selection.Strategy)
	}
	if c.Selection.CostWeight < 0 || c.Selection.QualityWeight < 0 {
		return fmt.Errorf("selection weights must not be negative")
	}
	if c.Selection.CostWeight+c.Selection.QualityWeight == 0 {
		return fmt.Errorf("selection weights must not both be zero")
	}

	if c.Cache.NearDuplicate.Threshold <= 0 || c.Cache.NearDuplicate.Threshold > 1 {
		return fmt.Errorf("near_duplicate threshold must be in (0, 1]")
	}
	if c.Cache.NearDuplicate.Candidates <= 0 {
		return fmt.Errorf("near_duplicate candidates must be positive")
	}

	if c.Ranking.TopK < 1 {
		return fmt.Errorf("ranking top_k must be at least 1")
	}

	if c.Timeouts.Embed <= 0 || c.Timeouts.Generate <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}

	if c.Audit.Enabled && c.Audit.DBPath == "" {
		return fmt.Errorf("audit db_path is required when audit is enabled")
	}
	if c.Audit.RetentionDays < 0 {
		return fmt.Errorf("audit retention_days must not be negative")
	}

	return nil
}

// Provider returns the provider config by name.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// Profile returns the model profile by ID.
func (c *Config) Profile(id string) (*models.ModelProfile, bool) {
	for i := range c.Models {
		if c.Models[i].ID == id {
			return &c.Models[i], true
		}
	}
	return nil, false
}

// Profiles returns pointers to all configured model profiles.
func (c *Config) Profiles() []*models.ModelProfile {
	out := make([]*models.ModelProfile, len(c.Models))
	for i := range c.Models {
		out[i] = &c.Models[i]
	}
	return out
}
