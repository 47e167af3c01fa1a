package models

import "time"

// Usage represents token usage reported by a provider call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// SpendRecord is one reconciled charge in the spend journal. CostUSD is what
// the user was billed, which can be zero when a concurrent cache store made
// the call's result redundant.
type SpendRecord struct {
	ID               int64     `json:"id"`
	RequestID        string    `json:"request_id"`
	UserID           string    `json:"user_id"`
	Tier             string    `json:"tier"`
	Model            string    `json:"model"`
	Task             TaskType  `json:"task"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	CostUSD          float64   `json:"cost_usd"`
	CreatedAt        time.Time `json:"created_at"`
}

// SpendSummary aggregates journal charges grouped by user and model.
type SpendSummary struct {
	UserID       string  `json:"user_id"`
	Model        string  `json:"model"`
	RequestCount int     `json:"request_count"`
	TotalTokens  int64   `json:"total_tokens"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}
