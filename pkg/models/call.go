package models

import "time"

// CallStatus is the outcome of one provider attempt.
type CallStatus string

const (
	CallOK    CallStatus = "ok"
	CallError CallStatus = "error"
)

// CallRecord is one provider attempt in the call log. Unlike SpendRecord it
// reflects what actually happened on the wire, including attempts the user
// was never billed for.
type CallRecord struct {
	ID               int64      `json:"id"`
	RequestID        string     `json:"request_id"`
	Provider         string     `json:"provider"`
	Model            string     `json:"model"`
	Task             TaskType   `json:"task"`
	Status           CallStatus `json:"status"`
	ErrorKind        string     `json:"error_kind,omitempty"`
	LatencyMs        int64      `json:"latency_ms"`
	PromptTokens     int        `json:"prompt_tokens"`
	CompletionTokens int        `json:"completion_tokens"`
	TotalTokens      int        `json:"total_tokens"`
	CostUSD          float64    `json:"cost_usd"`
	CreatedAt        time.Time  `json:"created_at"`
}
