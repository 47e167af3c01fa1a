package models

import "unicode/utf8"

// TaskType identifies the kind of work a model can perform.
type TaskType string

const (
	TaskEmbedding  TaskType = "embedding"
	TaskGeneration TaskType = "generation"
)

// LatencyClass is a coarse latency bucket for a model.
type LatencyClass string

const (
	LatencyFast     LatencyClass = "fast"
	LatencyStandard LatencyClass = "standard"
	LatencySlow     LatencyClass = "slow"
)

// ModelProfile describes a usable model: which provider serves it, what tasks
// it supports, its quality tier, and its per-1K-token pricing in USD.
type ModelProfile struct {
	ID                  string       `json:"id" yaml:"id"`
	Provider            string       `json:"provider" yaml:"provider"`
	Tasks               []TaskType   `json:"tasks" yaml:"tasks"`
	QualityTier         int          `json:"quality_tier" yaml:"quality_tier"`
	Latency             LatencyClass `json:"latency" yaml:"latency"`
	Dimensions          int          `json:"dimensions,omitempty" yaml:"dimensions"`
	EmbedCostPer1K      float64      `json:"embed_cost_per_1k" yaml:"embed_cost_per_1k"`
	PromptCostPer1K     float64      `json:"prompt_cost_per_1k" yaml:"prompt_cost_per_1k"`
	CompletionCostPer1K float64      `json:"completion_cost_per_1k" yaml:"completion_cost_per_1k"`
	MaxOutputTokens     int          `json:"max_output_tokens" yaml:"max_output_tokens"`
}

// SupportsTask reports whether the profile lists the given task.
func (p *ModelProfile) SupportsTask(task TaskType) bool {
	for _, t := range p.Tasks {
		if t == task {
			return true
		}
	}
	return false
}

// GenerationCostPer1K is the combined per-1K price used when ordering
// generation models by cost.
func (p *ModelProfile) GenerationCostPer1K() float64 {
	return p.PromptCostPer1K + p.CompletionCostPer1K
}

// EstimateEmbedCost returns a pessimistic pre-call estimate in USD for
// embedding the given inputs.
func (p *ModelProfile) EstimateEmbedCost(inputs []string) float64 {
	tokens := 0
	for _, in := range inputs {
		tokens += EstimateTokens(in)
	}
	return float64(tokens) / 1000 * p.EmbedCostPer1K
}

// EstimateGenerationCost returns a pessimistic pre-call estimate in USD for a
// generation call: the prompt at the prompt rate plus a full completion at
// the model's output ceiling.
func (p *ModelProfile) EstimateGenerationCost(promptTokens int) float64 {
	out := p.MaxOutputTokens
	if out <= 0 {
		out = 1024
	}
	return float64(promptTokens)/1000*p.PromptCostPer1K +
		float64(out)/1000*p.CompletionCostPer1K
}

// CostForEmbedding converts reported usage of an embedding call to USD.
func (p *ModelProfile) CostForEmbedding(u Usage) float64 {
	tokens := u.PromptTokens
	if tokens == 0 {
		tokens = u.TotalTokens
	}
	return float64(tokens) / 1000 * p.EmbedCostPer1K
}

// CostForGeneration converts reported usage of a generation call to USD.
func (p *ModelProfile) CostForGeneration(u Usage) float64 {
	return float64(u.PromptTokens)/1000*p.PromptCostPer1K +
		float64(u.CompletionTokens)/1000*p.CompletionCostPer1K
}

// EstimateTokens is a coarse token estimate (~4 runes per token) used for
// pre-call budget reservations, never for billing actuals.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return n/4 + 1
}
