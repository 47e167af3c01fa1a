// Package pipeline orchestrates one tailoring request end to end: validate,
// embed the job posting, rank artifacts, generate the draft, and run the
// skill gap analysis, with every provider call budget-admitted and
// breaker-guarded.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cvforge-ai/cvforge/pkg/audit"
	"github.com/cvforge-ai/cvforge/pkg/breaker"
	"github.com/cvforge-ai/cvforge/pkg/content"
	"github.com/cvforge-ai/cvforge/pkg/journal"
	"github.com/cvforge-ai/cvforge/pkg/ledger"
	"github.com/cvforge-ai/cvforge/pkg/logging"
	"github.com/cvforge-ai/cvforge/pkg/models"
	"github.com/cvforge-ai/cvforge/pkg/provider"
	"github.com/cvforge-ai/cvforge/pkg/selector"
	"github.com/cvforge-ai/cvforge/pkg/skills"
	"github.com/cvforge-ai/cvforge/pkg/vector"
)

// sharedScope is the generation cache scope when cross-user sharing is on.
const sharedScope = "shared"

// Persistence is implemented by the storage layer outside the core.
type Persistence interface {
	// SaveResult stores a terminal result.
	SaveResult(ctx context.Context, result *models.GenerationResult) error
	// LoadArtifacts returns the user's artifact set with declared skills.
	LoadArtifacts(ctx context.Context, userID string) ([]models.Artifact, error)
}

// Cache is the slice of the content cache the pipeline uses.
type Cache interface {
	LookupEmbedding(ctx context.Context, text string) (*models.EmbeddingEntry, bool)
	StoreEmbedding(ctx context.Context, text string, vec []float32, chunkCount int, costUSD float64) (*models.EmbeddingEntry, bool, error)
	DeleteEmbedding(ctx context.Context, hash string)
	LookupGeneration(ctx context.Context, scope, prompt string) (*models.GenerationEntry, bool)
	StoreGeneration(ctx context.Context, scope, prompt, model string, gen models.GeneratedContent, costUSD float64) (*models.GenerationEntry, bool, error)
}

// Deps are the pipeline's collaborators. Calls may be nil to disable the
// call log; Logger may be nil.
type Deps struct {
	Selector    *selector.Selector
	Breakers    *breaker.Registry
	Ledger      *ledger.Ledger
	Journal     journal.Journal
	Cache       Cache
	Providers   *provider.Registry
	Persistence Persistence
	Calls       *audit.Logger
	Logger      *zap.Logger
}

// Options tune per-request behavior.
type Options struct {
	// ChunkWindow and ChunkOverlap control job and artifact chunking (runes).
	ChunkWindow  int
	ChunkOverlap int
	// TopK is how many ranked artifacts feed the prompt.
	TopK int
	// SharedGenerations switches the generation cache from per-user to a
	// shared scope. Off by default: cross-user reuse needs product sign-off.
	SharedGenerations bool
	// EmbedTimeout and GenerateTimeout bound each provider call.
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
}

// Pipeline runs tailoring requests. Safe for concurrent use.
type Pipeline struct {
	deps   Deps
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// New validates dependencies and applies option defaults.
func New(deps Deps, opts Options) (*Pipeline, error) {
	switch {
	case deps.Selector == nil:
		return nil, errors.New("pipeline: selector is required")
	case deps.Breakers == nil:
		return nil, errors.New("pipeline: breaker registry is required")
	case deps.Ledger == nil:
		return nil, errors.New("pipeline: ledger is required")
	case deps.Journal == nil:
		return nil, errors.New("pipeline: journal is required")
	case deps.Cache == nil:
		return nil, errors.New("pipeline: cache is required")
	case deps.Providers == nil:
		return nil, errors.New("pipeline: provider registry is required")
	case deps.Persistence == nil:
		return nil, errors.New("pipeline: persistence is required")
	}

	if opts.ChunkWindow <= 0 {
		opts.ChunkWindow = 2000
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = 0
	}
	if opts.ChunkOverlap >= opts.ChunkWindow {
		return nil, fmt.Errorf("pipeline: chunk overlap %d must be smaller than window %d", opts.ChunkOverlap, opts.ChunkWindow)
	}
	if opts.TopK <= 0 {
		opts.TopK = 8
	}
	if opts.EmbedTimeout <= 0 {
		opts.EmbedTimeout = 30 * time.Second
	}
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = 2 * time.Minute
	}

	return &Pipeline{
		deps:   deps,
		opts:   opts,
		logger: logging.OrNop(deps.Logger),
		now:    time.Now,
	}, nil
}

// stepError carries a failure kind and message from a pipeline step onto the
// result.
type stepError struct {
	kind models.FailureKind
	msg  string
}

func (e *stepError) Error() string { return e.msg }

// Run executes one request. Step failures (bad input, budget, providers) are
// terminal on the returned result, not errors; the error return reports
// persistence trouble only, in which case the result may not be terminal and
// the caller should resubmit. The core treats every invocation as fresh:
// callers must not resubmit a request ID that already reached a terminal
// state.
func (p *Pipeline) Run(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	result := &models.GenerationResult{
		RequestID: req.ID,
		UserID:    req.UserID,
		Status:    models.StatusPending,
		CreatedAt: p.now().UTC(),
	}

	p.logger.Info("generation request",
		zap.String("request_id", req.ID),
		zap.String("user_id", req.UserID),
		zap.String("type", string(req.Type)))

	result.Status = models.StatusProcessing
	if err := p.process(ctx, req, result); err != nil {
		return result, err
	}

	saveCtx := ctx
	if ctx.Err() != nil {
		saveCtx = context.Background()
	}
	if err := p.deps.Persistence.SaveResult(saveCtx, result); err != nil {
		return result, fmt.Errorf("save result %s: %w", req.ID, err)
	}

	p.logger.Info("generation finished",
		zap.String("request_id", req.ID),
		zap.String("status", string(result.Status)),
		zap.String("failure_kind", string(result.FailureKind)),
		zap.Float64("cost_usd", result.CostUSD))
	return result, nil
}

// RunBatch executes requests concurrently, at most limit at a time
// (unlimited when limit <= 0). Results are returned in request order; the
// error joins any persistence failures.
func (p *Pipeline) RunBatch(ctx context.Context, reqs []models.GenerationRequest, limit int) ([]*models.GenerationResult, error) {
	results := make([]*models.GenerationResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, req := range reqs {
		g.Go(func() error {
			res, err := p.Run(gctx, req)
			results[i] = res
			return err
		})
	}

	return results, g.Wait()
}

func (p *Pipeline) process(ctx context.Context, req models.GenerationRequest, result *models.GenerationResult) error {
	artifacts := req.Artifacts
	if len(artifacts) == 0 {
		var err error
		artifacts, err = p.deps.Persistence.LoadArtifacts(ctx, req.UserID)
		if err != nil {
			return fmt.Errorf("load artifacts for %s: %w", req.UserID, err)
		}
	}

	if content.Normalize(req.JobText) == "" {
		result.Fail(models.FailureInvalidInput, "no content available: job posting is empty", p.now().UTC())
		return nil
	}
	if len(artifacts) == 0 {
		result.Fail(models.FailureInvalidInput, "no content available: user has no artifacts", p.now().UTC())
		return nil
	}

	jobVec, err := p.jobVector(ctx, req, result)
	if err != nil {
		p.failStep(result, err)
		return nil
	}

	ranked, top, err := p.rankArtifacts(ctx, req, result, artifacts, jobVec)
	if err != nil {
		p.failStep(result, err)
		return nil
	}
	result.RankedArtifacts = ranked

	system, prompt := buildPrompt(req.Type, req.JobText, top)
	draft, servedBy, err := p.generate(ctx, req, result, system, prompt)
	if err != nil {
		p.failStep(result, err)
		return nil
	}

	result.Model = servedBy
	result.Content = draft
	result.SkillScore, result.MissingSkills = gapAnalysis(draft, top)
	result.Complete(p.now().UTC())
	return nil
}

// failStep maps a step error onto the result's terminal failure state.
func (p *Pipeline) failStep(result *models.GenerationResult, err error) {
	var se *stepError
	if errors.As(err, &se) {
		result.Fail(se.kind, se.msg, p.now().UTC())
		return
	}
	result.Fail(models.FailureProviderCall, err.Error(), p.now().UTC())
}

// jobVector returns the job posting's embedding, from cache when possible.
// On a miss the posting is chunked and embedded in one batched call, then
// mean-pooled into a single normalized vector.
func (p *Pipeline) jobVector(ctx context.Context, req models.GenerationRequest, result *models.GenerationResult) ([]float32, error) {
	if entry, ok := p.deps.Cache.LookupEmbedding(ctx, req.JobText); ok {
		p.logger.Debug("job embedding cache hit",
			zap.String("request_id", req.ID),
			zap.String("content_hash", entry.ContentHash))
		return entry.Vector, nil
	}

	chunks, err := content.Split(req.JobText, p.opts.ChunkWindow, p.opts.ChunkOverlap)
	if err != nil {
		return nil, &stepError{kind: models.FailureInvalidInput, msg: fmt.Sprintf("chunk job posting: %v", err)}
	}

	var vec []float32
	_, err = p.walk(ctx, req, result, call{
		task:    models.TaskEmbedding,
		timeout: p.opts.EmbedTimeout,
		estimate: func(m *models.ModelProfile) float64 {
			return m.EstimateEmbedCost(chunks)
		},
		do: func(ctx context.Context, client provider.Client, m *models.ModelProfile) (models.Usage, float64, error) {
			res, err := client.Embed(ctx, m.ID, chunks)
			if err != nil {
				return models.Usage{}, 0, err
			}
			mean, err := vector.Mean(res.Vectors)
			if err != nil {
				return res.Usage, 0, &provider.Error{
					Kind: provider.KindMalformed, Provider: client.Name(), Model: m.ID, Err: err,
				}
			}

			actual := m.CostForEmbedding(res.Usage)
			charge := actual
			entry, stored, err := p.deps.Cache.StoreEmbedding(ctx, req.JobText, mean, len(chunks), actual)
			if err != nil {
				p.logger.Warn("job embedding store failed", zap.String("request_id", req.ID), zap.Error(err))
			} else if !stored {
				// Lost the race: the concurrent winner already paid.
				mean = entry.Vector
				charge = 0
			}
			vec = mean
			return res.Usage, charge, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// rankArtifacts orders artifacts by cosine similarity to the job vector,
// ties broken by artifact ID ascending. It returns the full ranking and the
// top-K artifacts that feed the prompt.
func (p *Pipeline) rankArtifacts(ctx context.Context, req models.GenerationRequest, result *models.GenerationResult, artifacts []models.Artifact, jobVec []float32) ([]models.RankedArtifact, []models.Artifact, error) {
	vectors := make([][]float32, len(artifacts))
	var missing []int

	for i, a := range artifacts {
		entry, ok := p.deps.Cache.LookupEmbedding(ctx, a.Text)
		if !ok {
			missing = append(missing, i)
			continue
		}
		if len(entry.Vector) != len(jobVec) {
			// Stale entry from a differently sized embedding model.
			p.logger.Warn("dropping cached embedding with mismatched dimensions",
				zap.String("artifact_id", a.ID),
				zap.Int("got", len(entry.Vector)),
				zap.Int("want", len(jobVec)))
			p.deps.Cache.DeleteEmbedding(ctx, entry.ContentHash)
			missing = append(missing, i)
			continue
		}
		vectors[i] = entry.Vector
	}

	if len(missing) > 0 {
		if err := p.embedArtifacts(ctx, req, result, artifacts, missing, vectors); err != nil {
			return nil, nil, err
		}
	}

	order := make([]int, len(artifacts))
	scores := make([]float64, len(artifacts))
	for i := range artifacts {
		order[i] = i
		scores[i] = vector.Cosine(jobVec, vectors[i])
	}
	sort.SliceStable(order, func(x, y int) bool {
		a, b := order[x], order[y]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		return artifacts[a].ID < artifacts[b].ID
	})

	ranked := make([]models.RankedArtifact, len(order))
	top := make([]models.Artifact, 0, min(p.opts.TopK, len(order)))
	for pos, idx := range order {
		ranked[pos] = models.RankedArtifact{
			ArtifactID: artifacts[idx].ID,
			Title:      artifacts[idx].Title,
			Score:      scores[idx],
		}
		if pos < p.opts.TopK {
			top = append(top, artifacts[idx])
		}
	}
	return ranked, top, nil
}

// embedArtifacts fills vectors for the missing artifact indexes with one
// batched provider call. Each artifact is chunked, its chunk vectors
// mean-pooled, and the result cached input-scoped with a proportional share
// of the call's cost.
func (p *Pipeline) embedArtifacts(ctx context.Context, req models.GenerationRequest, result *models.GenerationResult, artifacts []models.Artifact, missing []int, vectors [][]float32) error {
	type span struct {
		artifact int
		from, to int
	}

	var inputs []string
	var spans []span
	for _, idx := range missing {
		chunks, err := content.Split(artifacts[idx].Text, p.opts.ChunkWindow, p.opts.ChunkOverlap)
		if err != nil {
			return &stepError{kind: models.FailureInvalidInput, msg: fmt.Sprintf("chunk artifact %s: %v", artifacts[idx].ID, err)}
		}
		if len(chunks) == 0 {
			// Empty artifact text ranks last with a zero vector.
			continue
		}
		spans = append(spans, span{artifact: idx, from: len(inputs), to: len(inputs) + len(chunks)})
		inputs = append(inputs, chunks...)
	}
	if len(inputs) == 0 {
		return nil
	}

	_, err := p.walk(ctx, req, result, call{
		task:    models.TaskEmbedding,
		timeout: p.opts.EmbedTimeout,
		estimate: func(m *models.ModelProfile) float64 {
			return m.EstimateEmbedCost(inputs)
		},
		do: func(ctx context.Context, client provider.Client, m *models.ModelProfile) (models.Usage, float64, error) {
			res, err := client.Embed(ctx, m.ID, inputs)
			if err != nil {
				return models.Usage{}, 0, err
			}

			actual := m.CostForEmbedding(res.Usage)
			var charge float64
			for _, s := range spans {
				mean, err := vector.Mean(res.Vectors[s.from:s.to])
				if err != nil {
					return res.Usage, 0, &provider.Error{
						Kind: provider.KindMalformed, Provider: client.Name(), Model: m.ID, Err: err,
					}
				}

				a := artifacts[s.artifact]
				share := actual * float64(s.to-s.from) / float64(len(inputs))
				entry, stored, err := p.deps.Cache.StoreEmbedding(ctx, a.Text, mean, s.to-s.from, share)
				switch {
				case err != nil:
					p.logger.Warn("artifact embedding store failed",
						zap.String("artifact_id", a.ID), zap.Error(err))
					charge += share
				case stored:
					charge += share
				default:
					mean = entry.Vector
				}
				vectors[s.artifact] = mean
			}
			return res.Usage, charge, nil
		},
	})
	return err
}

// generate produces the structured draft, from the scoped generation cache
// when possible.
func (p *Pipeline) generate(ctx context.Context, req models.GenerationRequest, result *models.GenerationResult, system, prompt string) (*models.GeneratedContent, string, error) {
	scope := req.UserID
	if p.opts.SharedGenerations {
		scope = sharedScope
	}

	if entry, ok := p.deps.Cache.LookupGeneration(ctx, scope, prompt); ok {
		p.logger.Debug("generation cache hit",
			zap.String("request_id", req.ID),
			zap.String("model", entry.Model))
		draft := entry.Content
		return &draft, entry.Model, nil
	}

	var (
		draft    *models.GeneratedContent
		servedBy string
	)
	promptTokens := models.EstimateTokens(system) + models.EstimateTokens(prompt)

	_, err := p.walk(ctx, req, result, call{
		task:    models.TaskGeneration,
		timeout: p.opts.GenerateTimeout,
		estimate: func(m *models.ModelProfile) float64 {
			return m.EstimateGenerationCost(promptTokens)
		},
		do: func(ctx context.Context, client provider.Client, m *models.ModelProfile) (models.Usage, float64, error) {
			res, err := client.Generate(ctx, m.ID, provider.GenerateRequest{
				System:    system,
				Prompt:    prompt,
				MaxTokens: m.MaxOutputTokens,
			})
			if err != nil {
				return models.Usage{}, 0, err
			}

			actual := m.CostForGeneration(res.Usage)
			entry, stored, err := p.deps.Cache.StoreGeneration(ctx, scope, prompt, m.ID, res.Content, actual)
			if err != nil {
				p.logger.Warn("generation store failed", zap.String("request_id", req.ID), zap.Error(err))
				draft, servedBy = &res.Content, m.ID
				return res.Usage, actual, nil
			}
			if !stored {
				// Lost the race: serve the winner's draft, charge nothing.
				winner := entry.Content
				draft, servedBy = &winner, entry.Model
				return res.Usage, 0, nil
			}
			draft, servedBy = &res.Content, m.ID
			return res.Usage, actual, nil
		},
	})
	if err != nil {
		return nil, "", err
	}
	return draft, servedBy, nil
}

// call describes one budget-admitted, breaker-guarded provider step. do
// performs the provider call plus any cache store and returns the reported
// usage and the cost the user is actually charged.
type call struct {
	task     models.TaskType
	timeout  time.Duration
	estimate func(m *models.ModelProfile) float64
	do       func(ctx context.Context, client provider.Client, m *models.ModelProfile) (models.Usage, float64, error)
}

// walk tries ranked candidate models in order. Budget denial moves to the
// next candidate; a failed provider call records a breaker failure, releases
// the reservation, and permits exactly one alternate-model attempt before the
// step fails. Cancellation after dispatch reconciles pessimistically at the
// estimate and does not count against the model's breaker.
func (p *Pipeline) walk(ctx context.Context, req models.GenerationRequest, result *models.GenerationResult, c call) (*models.ModelProfile, error) {
	candidates, err := p.deps.Selector.Rank(c.task)
	if err != nil {
		if errors.Is(err, selector.ErrNoEligibleModel) {
			return nil, &stepError{
				kind: models.FailureProviderUnavailable,
				msg:  fmt.Sprintf("no eligible %s model: all breakers open or task unsupported", c.task),
			}
		}
		return nil, &stepError{kind: models.FailureProviderUnavailable, msg: err.Error()}
	}

	var (
		budgetDenied bool
		admitErr     error
		callFailures int
		lastCallErr  error
		lastModel    string
	)

	for _, m := range candidates {
		if ctx.Err() != nil {
			return nil, &stepError{kind: models.FailureProviderCall, msg: "request canceled"}
		}

		client, ok := p.deps.Providers.Lookup(m.Provider)
		if !ok {
			p.logger.Warn("no client registered for provider",
				zap.String("provider", m.Provider), zap.String("model", m.ID))
			continue
		}

		estimate := c.estimate(m)
		if err := p.deps.Ledger.Admit(ctx, req.UserID, req.Tier, estimate); err != nil {
			if errors.Is(err, ledger.ErrBudgetExceeded) {
				budgetDenied = true
				p.logger.Debug("budget denied, trying next candidate",
					zap.String("model", m.ID), zap.Float64("estimate", estimate))
			} else {
				admitErr = err
				p.logger.Warn("budget admission error",
					zap.String("model", m.ID), zap.Error(err))
			}
			continue
		}

		brk := p.deps.Breakers.For(m.ID)
		if !brk.Allow() {
			p.deps.Ledger.Reconcile(ctx, req.UserID, estimate, 0)
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()
		usage, charge, err := c.do(callCtx, client, m)
		cancel()
		latency := time.Since(start).Milliseconds()

		if err != nil {
			if errors.Is(err, context.Canceled) {
				// Caller gave up after dispatch: charge the estimate so the
				// ledger never undercounts, and spare the breaker.
				p.deps.Ledger.Reconcile(ctx, req.UserID, estimate, estimate)
				p.logCall(ctx, req, m, c.task, models.CallError, "canceled", usage, estimate, latency)
				p.recordCharge(ctx, req, m, c.task, usage, estimate)
				result.CostUSD += estimate
				return nil, &stepError{
					kind: models.FailureProviderCall,
					msg:  fmt.Sprintf("model %s: request canceled in flight", m.ID),
				}
			}

			brk.RecordFailure()
			p.deps.Ledger.Reconcile(ctx, req.UserID, estimate, 0)
			p.logCall(ctx, req, m, c.task, models.CallError, string(provider.KindOf(err)), usage, 0, latency)
			p.logger.Warn("provider call failed",
				zap.String("request_id", req.ID),
				zap.String("model", m.ID),
				zap.Error(err))

			lastCallErr = err
			lastModel = m.ID
			callFailures++
			if callFailures > 1 {
				break
			}
			continue
		}

		brk.RecordSuccess()
		p.deps.Ledger.Reconcile(ctx, req.UserID, estimate, charge)
		p.logCall(ctx, req, m, c.task, models.CallOK, "", usage, charge, latency)
		if charge > 0 {
			p.recordCharge(ctx, req, m, c.task, usage, charge)
		}
		result.CostUSD += charge
		return m, nil
	}

	switch {
	case lastCallErr != nil:
		return nil, &stepError{
			kind: models.FailureProviderCall,
			msg:  fmt.Sprintf("model %s: %v", lastModel, lastCallErr),
		}
	case budgetDenied:
		return nil, &stepError{
			kind: models.FailureBudgetExceeded,
			msg:  fmt.Sprintf("daily budget exceeded for tier %q", req.Tier),
		}
	case admitErr != nil:
		return nil, &stepError{
			kind: models.FailureProviderUnavailable,
			msg:  fmt.Sprintf("budget admission unavailable: %v", admitErr),
		}
	default:
		return nil, &stepError{
			kind: models.FailureProviderUnavailable,
			msg:  fmt.Sprintf("no usable %s model", c.task),
		}
	}
}

// logCall writes one attempt to the call log. Bookkeeping survives caller
// cancellation.
func (p *Pipeline) logCall(ctx context.Context, req models.GenerationRequest, m *models.ModelProfile, task models.TaskType, status models.CallStatus, errorKind string, usage models.Usage, cost float64, latencyMs int64) {
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	err := p.deps.Calls.Log(ctx, models.CallRecord{
		RequestID:        req.ID,
		Provider:         m.Provider,
		Model:            m.ID,
		Task:             task,
		Status:           status,
		ErrorKind:        errorKind,
		LatencyMs:        latencyMs,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		CostUSD:          cost,
		CreatedAt:        p.now().UTC(),
	})
	if err != nil {
		p.logger.Warn("call log write failed", zap.String("request_id", req.ID), zap.Error(err))
	}
}

// recordCharge journals one billed charge. Bookkeeping survives caller
// cancellation.
func (p *Pipeline) recordCharge(ctx context.Context, req models.GenerationRequest, m *models.ModelProfile, task models.TaskType, usage models.Usage, cost float64) {
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	err := p.deps.Journal.Record(ctx, models.SpendRecord{
		RequestID:        req.ID,
		UserID:           req.UserID,
		Tier:             req.Tier,
		Model:            m.ID,
		Task:             task,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		CostUSD:          cost,
		CreatedAt:        p.now().UTC(),
	})
	if err != nil {
		p.logger.Warn("spend record write failed", zap.String("request_id", req.ID), zap.Error(err))
	}
}

// gapAnalysis scores the selected artifacts' skills against the requirements
// the model parsed out of the posting.
func gapAnalysis(draft *models.GeneratedContent, top []models.Artifact) (int, []string) {
	var candidate []string
	for _, a := range top {
		candidate = append(candidate, a.Skills...)
	}
	return skills.Score(draft.Requirements, candidate), skills.Missing(draft.Requirements, candidate)
}
