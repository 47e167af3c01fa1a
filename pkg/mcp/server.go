// Package mcp exposes read-only operational tools over the Model Context
// Protocol, so agent tooling can inspect budgets, spend, cache state, and
// model health through the same stores the CLI reads.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cvforge-ai/cvforge/pkg/breaker"
	"github.com/cvforge-ai/cvforge/pkg/journal"
	"github.com/cvforge-ai/cvforge/pkg/ledger"
	"github.com/cvforge-ai/cvforge/pkg/models"
)

// CacheStatter provides cache statistics without coupling to a concrete
// cache implementation.
type CacheStatter interface {
	Stats(ctx context.Context) (models.CacheStats, error)
}

// Deps are the stores the ops tools read. Every tool is read-only: budget
// and cache mutation stays with the pipeline and the CLI.
type Deps struct {
	Ledger      *ledger.Ledger
	Journal     journal.Journal
	Cache       CacheStatter
	Breakers    *breaker.Registry
	Profiles    []*models.ModelProfile
	DefaultTier string
}

// NewServer builds the MCP server with all ops tools registered.
func NewServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"cvforge",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("cvforge ops: inspect budgets, spend, cache state, and model health. All tools are read-only."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("budget_status",
			mcp.WithDescription("Current daily budget for a user: limit, spent, reserved, and remaining USD."),
			mcp.WithString("user", mcp.Description("User ID"), mcp.Required()),
			mcp.WithString("tier", mcp.Description("Subscription tier (defaults to the configured default)")),
		),
		budgetStatus(deps),
	)

	s.AddTool(
		mcp.NewTool("usage_summary",
			mcp.WithDescription("Journaled charges grouped by user and model. Omit user to list all users."),
			mcp.WithString("user", mcp.Description("User ID to filter by")),
		),
		usageSummary(deps),
	)

	s.AddTool(
		mcp.NewTool("cache_stats",
			mcp.WithDescription("Content cache size and hit/miss counters."),
		),
		cacheStats(deps),
	)

	s.AddTool(
		mcp.NewTool("model_health",
			mcp.WithDescription("Configured models with their circuit breaker state."),
		),
		modelHealth(deps),
	)

	return s
}

func budgetStatus(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		user, err := req.RequireString("user")
		if err != nil {
			return toolError("user is required"), nil
		}
		tier := req.GetString("tier", deps.DefaultTier)

		status, err := deps.Ledger.Status(ctx, user, tier)
		if err != nil {
			return toolError(fmt.Sprintf("budget status: %v", err)), nil
		}
		return toolJSON(status), nil
	}
}

func usageSummary(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		user := req.GetString("user", "")

		summaries, err := deps.Journal.Summary(ctx, user)
		if err != nil {
			return toolError(fmt.Sprintf("usage summary: %v", err)), nil
		}
		if len(summaries) == 0 {
			return toolText("[]"), nil
		}
		return toolJSON(summaries), nil
	}
}

func cacheStats(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := deps.Cache.Stats(ctx)
		if err != nil {
			return toolError(fmt.Sprintf("cache stats: %v", err)), nil
		}
		return toolJSON(stats), nil
	}
}

// modelStatus is one row of the model_health response.
type modelStatus struct {
	Model       string            `json:"model"`
	Provider    string            `json:"provider"`
	Tasks       []models.TaskType `json:"tasks"`
	QualityTier int               `json:"quality_tier"`
	State       breaker.State     `json:"state"`
	Failures    int               `json:"failures"`
}

func modelHealth(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		statuses := make([]modelStatus, len(deps.Profiles))
		for i, p := range deps.Profiles {
			snap := deps.Breakers.For(p.ID).Snapshot()
			statuses[i] = modelStatus{
				Model:       p.ID,
				Provider:    p.Provider,
				Tasks:       p.Tasks,
				QualityTier: p.QualityTier,
				State:       snap.State,
				Failures:    snap.Failures,
			}
		}
		return toolJSON(statuses), nil
	}
}

func toolJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("marshal response: %v", err))
	}
	return toolText(string(b))
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
