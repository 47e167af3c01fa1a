package models

// BudgetStatus is a point-in-time snapshot of one user's daily ledger entry.
type BudgetStatus struct {
	UserID       string  `json:"user_id"`
	Tier         string  `json:"tier"`
	Day          string  `json:"day"`
	LimitUSD     float64 `json:"limit_usd"`
	SpentUSD     float64 `json:"spent_usd"`
	ReservedUSD  float64 `json:"reserved_usd"`
	RemainingUSD float64 `json:"remaining_usd"`
	Requests     int64   `json:"requests"`
}
