package models

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSupportsTask(t *testing.T) {
	p := &ModelProfile{ID: "m", Tasks: []TaskType{TaskEmbedding}}
	if !p.SupportsTask(TaskEmbedding) {
		t.Error("expected embedding support")
	}
	if p.SupportsTask(TaskGeneration) {
		t.Error("did not expect generation support")
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 2},
		{"aaaaaaaa", 3},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestCostForGeneration(t *testing.T) {
	p := &ModelProfile{PromptCostPer1K: 0.01, CompletionCostPer1K: 0.03}
	got := p.CostForGeneration(Usage{PromptTokens: 2000, CompletionTokens: 1000})
	if !almostEqual(got, 0.05) {
		t.Errorf("CostForGeneration = %f, want 0.05", got)
	}
}

func TestCostForEmbeddingFallsBackToTotal(t *testing.T) {
	p := &ModelProfile{EmbedCostPer1K: 0.0001}
	got := p.CostForEmbedding(Usage{TotalTokens: 1000})
	if !almostEqual(got, 0.0001) {
		t.Errorf("CostForEmbedding = %f, want 0.0001", got)
	}
}

func TestEstimateGenerationCostUsesOutputCeiling(t *testing.T) {
	p := &ModelProfile{PromptCostPer1K: 0.01, CompletionCostPer1K: 0.02, MaxOutputTokens: 500}
	got := p.EstimateGenerationCost(1000)
	if !almostEqual(got, 0.01+0.01) {
		t.Errorf("EstimateGenerationCost = %f, want 0.02", got)
	}
}

func TestResultTerminalOnce(t *testing.T) {
	r := &GenerationResult{Status: StatusProcessing}
	now := r.CreatedAt
	r.Fail(FailureInvalidInput, "no content available", now)
	r.Complete(now)
	if r.Status != StatusFailed {
		t.Errorf("status = %s, want failed", r.Status)
	}
	r2 := &GenerationResult{Status: StatusProcessing}
	r2.Complete(now)
	r2.Fail(FailureProviderCall, "late failure", now)
	if r2.Status != StatusCompleted || r2.FailureKind != FailureNone {
		t.Errorf("completed result mutated: status=%s kind=%s", r2.Status, r2.FailureKind)
	}
}
