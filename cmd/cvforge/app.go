package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cvforge-ai/cvforge/pkg/audit"
	"github.com/cvforge-ai/cvforge/pkg/breaker"
	cachepkg "github.com/cvforge-ai/cvforge/pkg/cache/sqlite"
	"github.com/cvforge-ai/cvforge/pkg/config"
	"github.com/cvforge-ai/cvforge/pkg/journal"
	"github.com/cvforge-ai/cvforge/pkg/ledger"
	"github.com/cvforge-ai/cvforge/pkg/pipeline"
	"github.com/cvforge-ai/cvforge/pkg/provider"
	"github.com/cvforge-ai/cvforge/pkg/provider/gemini"
	"github.com/cvforge-ai/cvforge/pkg/provider/openai"
	"github.com/cvforge-ai/cvforge/pkg/selector"
)

// app bundles the stores and services shared by the tailor and mcp commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	journal  *journal.SQLiteJournal
	cache    *cachepkg.Cache
	calls    *audit.Logger
	ledger   *ledger.Ledger
	breakers *breaker.Registry
	selector *selector.Selector
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	j, err := journal.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}

	c, err := openCache(cfg, logger)
	if err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("init cache: %w", err)
	}

	var calls *audit.Logger
	if cfg.Audit.Enabled {
		calls, err = audit.New(cfg.Audit.DBPath, cfg.Audit.RetentionDays)
		if err != nil {
			_ = c.Close()
			_ = j.Close()
			return nil, fmt.Errorf("init call log: %w", err)
		}
	}

	strategy, err := selector.ParseStrategy(cfg.Selection.Strategy)
	if err != nil {
		_ = calls.Close()
		_ = c.Close()
		_ = j.Close()
		return nil, err
	}

	breakers := breaker.NewRegistry(cfg.Breaker.FailureThreshold, cfg.Breaker.Cooldown, cfg.Breaker.Window, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		journal:  j,
		cache:    c,
		calls:    calls,
		ledger:   ledger.New(cfg.Budget.TierLimits, j, logger),
		breakers: breakers,
		selector: selector.New(cfg.Profiles(), breakers, strategy, cfg.Selection.CostWeight, cfg.Selection.QualityWeight, logger),
	}, nil
}

func (a *app) Close() {
	_ = a.calls.Close()
	_ = a.cache.Close()
	_ = a.journal.Close()
}

func (a *app) newPipeline(providers *provider.Registry, store pipeline.Persistence) (*pipeline.Pipeline, error) {
	return pipeline.New(pipeline.Deps{
		Selector:    a.selector,
		Breakers:    a.breakers,
		Ledger:      a.ledger,
		Journal:     a.journal,
		Cache:       a.cache,
		Providers:   providers,
		Persistence: store,
		Calls:       a.calls,
		Logger:      a.logger,
	}, pipeline.Options{
		ChunkWindow:       a.cfg.Chunker.Window,
		ChunkOverlap:      a.cfg.Chunker.Overlap,
		TopK:              a.cfg.Ranking.TopK,
		SharedGenerations: a.cfg.Cache.SharedGenerations,
		EmbedTimeout:      a.cfg.Timeouts.Embed,
		GenerateTimeout:   a.cfg.Timeouts.Generate,
	})
}

func openCache(cfg *config.Config, logger *zap.Logger) (*cachepkg.Cache, error) {
	return cachepkg.New(cfg.Cache.Path, cachepkg.Options{
		NearDupEnabled:    cfg.Cache.NearDuplicate.Enabled,
		NearDupThreshold:  cfg.Cache.NearDuplicate.Threshold,
		NearDupCandidates: cfg.Cache.NearDuplicate.Candidates,
	}, logger)
}

func buildProviders(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*provider.Registry, error) {
	reg := provider.NewRegistry()
	for _, pc := range cfg.Providers {
		var (
			client provider.Client
			err    error
		)
		switch pc.Type {
		case "", "openai":
			client, err = openai.New(pc.Name, pc.URL, pc.APIKey, logger)
		case "gemini":
			client, err = gemini.New(ctx, pc.Name, pc.APIKey, logger)
		default:
			err = fmt.Errorf("unknown type %q", pc.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", pc.Name, err)
		}
		reg.Register(client)
	}
	return reg, nil
}
