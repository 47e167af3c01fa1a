// Package selector picks which model serves a task. It replaces hand-written
// fallback chains with typed strategies: the ranked candidate list it returns
// is the order the pipeline walks when budget or providers push back.
package selector

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cvforge-ai/cvforge/pkg/breaker"
	"github.com/cvforge-ai/cvforge/pkg/logging"
	"github.com/cvforge-ai/cvforge/pkg/models"
)

// ErrNoEligibleModel is returned when no configured model supports the task
// with a healthy circuit.
var ErrNoEligibleModel = errors.New("no eligible model")

// Strategy names a model-ordering policy.
type Strategy string

const (
	StrategyCostOptimized Strategy = "cost_optimized"
	StrategyQualityFirst  Strategy = "quality_first"
	StrategyBalanced      Strategy = "balanced"
)

// ParseStrategy converts a config string into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyCostOptimized, StrategyQualityFirst, StrategyBalanced:
		return Strategy(s), nil
	case "":
		return StrategyBalanced, nil
	}
	return "", fmt.Errorf("unknown selection strategy %q", s)
}

// Selector ranks configured model profiles for a task, filtered by task
// support and breaker health.
type Selector struct {
	profiles      []*models.ModelProfile
	breakers      *breaker.Registry
	strategy      Strategy
	costWeight    float64
	qualityWeight float64
	logger        *zap.Logger
}

// New creates a Selector. Weights only apply to the balanced strategy and
// default to 0.5/0.5 when both are zero.
func New(profiles []*models.ModelProfile, breakers *breaker.Registry, strategy Strategy, costWeight, qualityWeight float64, logger *zap.Logger) *Selector {
	if costWeight == 0 && qualityWeight == 0 {
		costWeight, qualityWeight = 0.5, 0.5
	}
	return &Selector{
		profiles:      profiles,
		breakers:      breakers,
		strategy:      strategy,
		costWeight:    costWeight,
		qualityWeight: qualityWeight,
		logger:        logging.OrNop(logger),
	}
}

// taskCost is the per-1K price used to order models for a task.
func taskCost(p *models.ModelProfile, task models.TaskType) float64 {
	if task == models.TaskEmbedding {
		return p.EmbedCostPer1K
	}
	return p.GenerationCostPer1K()
}

// Rank returns every eligible profile for the task, best first. The caller
// walks this list when a model is denied by budget or fails: the next entry
// is the strategy's next-best choice. Returns ErrNoEligibleModel when the
// list would be empty, so a skipped selection step cannot pass silently.
func (s *Selector) Rank(task models.TaskType) ([]*models.ModelProfile, error) {
	var eligible []*models.ModelProfile
	for _, p := range s.profiles {
		if !p.SupportsTask(task) {
			continue
		}
		if !s.breakers.For(p.ID).Ready() {
			s.logger.Debug("model skipped, circuit not ready", zap.String("model", p.ID))
			continue
		}
		eligible = append(eligible, p)
	}
	if len(eligible) == 0 {
		return nil, fmt.Errorf("%w for task %q", ErrNoEligibleModel, task)
	}

	switch s.strategy {
	case StrategyCostOptimized:
		sort.Slice(eligible, func(i, j int) bool {
			ci, cj := taskCost(eligible[i], task), taskCost(eligible[j], task)
			if ci != cj {
				return ci < cj
			}
			return eligible[i].ID < eligible[j].ID
		})
	case StrategyQualityFirst:
		sort.Slice(eligible, func(i, j int) bool {
			if eligible[i].QualityTier != eligible[j].QualityTier {
				return eligible[i].QualityTier > eligible[j].QualityTier
			}
			return eligible[i].ID < eligible[j].ID
		})
	default: // balanced
		scores := s.balancedScores(eligible, task)
		sort.Slice(eligible, func(i, j int) bool {
			si, sj := scores[eligible[i].ID], scores[eligible[j].ID]
			if si != sj {
				return si < sj
			}
			return eligible[i].ID < eligible[j].ID
		})
	}
	return eligible, nil
}

// balancedScores combines dense cost and quality ranks within the eligible
// set: lower is better on both axes after weighting.
func (s *Selector) balancedScores(eligible []*models.ModelProfile, task models.TaskType) map[string]float64 {
	costRanks := denseRanks(eligible, func(a, b *models.ModelProfile) bool {
		return taskCost(a, task) < taskCost(b, task)
	}, func(a, b *models.ModelProfile) bool {
		return taskCost(a, task) == taskCost(b, task)
	})
	qualityRanks := denseRanks(eligible, func(a, b *models.ModelProfile) bool {
		return a.QualityTier > b.QualityTier
	}, func(a, b *models.ModelProfile) bool {
		return a.QualityTier == b.QualityTier
	})

	scores := make(map[string]float64, len(eligible))
	for _, p := range eligible {
		scores[p.ID] = s.costWeight*float64(costRanks[p.ID]) +
			s.qualityWeight*float64(qualityRanks[p.ID])
	}
	return scores
}

// denseRanks assigns 0-based ranks where equal profiles share a rank.
func denseRanks(profiles []*models.ModelProfile, better, equal func(a, b *models.ModelProfile) bool) map[string]int {
	ordered := make([]*models.ModelProfile, len(profiles))
	copy(ordered, profiles)
	sort.Slice(ordered, func(i, j int) bool { return better(ordered[i], ordered[j]) })

	ranks := make(map[string]int, len(ordered))
	rank := 0
	for i, p := range ordered {
		if i > 0 && !equal(ordered[i-1], p) {
			rank++
		}
		ranks[p.ID] = rank
	}
	return ranks
}

// Select returns the single best model for the task.
func (s *Selector) Select(task models.TaskType) (*models.ModelProfile, error) {
	ranked, err := s.Rank(task)
	if err != nil {
		return nil, err
	}
	return ranked[0], nil
}
