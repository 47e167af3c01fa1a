// Package breaker implements per-model circuit breaking so that a failing
// provider model is skipped quickly instead of burning latency and budget.
package breaker

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cvforge-ai/cvforge/pkg/logging"
)

// State is the breaker position for one model.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// Snapshot is a point-in-time view of one breaker for observability.
type Snapshot struct {
	Model       string    `json:"model"`
	State       State     `json:"state"`
	Failures    int       `json:"failures"`
	LastFailure time.Time `json:"last_failure,omitempty"`
	OpenedAt    time.Time `json:"opened_at,omitempty"`
}

// Breaker tracks consecutive failures for a single model within a rolling
// window. At threshold it opens; after the cooldown a single half-open probe
// is allowed through, and its outcome decides between closing and reopening.
type Breaker struct {
	model     string
	threshold int
	cooldown  time.Duration
	window    time.Duration
	logger    *zap.Logger

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
	openedAt    time.Time
	probing     bool
}

// New creates a closed breaker for one model. Non-positive parameters fall
// back to threshold 5, cooldown 30s, window 60s.
func New(model string, threshold int, cooldown, window time.Duration, logger *zap.Logger) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Breaker{
		model:     model,
		threshold: threshold,
		cooldown:  cooldown,
		window:    window,
		logger:    logging.OrNop(logger),
		state:     StateClosed,
	}
}

// Allow reports whether a call may proceed right now, consuming the half-open
// probe slot when it grants one. A rejected call must not be counted as a
// model failure.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(b.openedAt) < b.cooldown {
			return false
		}
		b.state = StateHalfOpen
		b.probing = true
		b.logger.Info("circuit half-open, probing", zap.String("model", b.model))
		return true
	case StateHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
	return false
}

// Ready is the non-consuming view of Allow, used when ranking candidates: it
// reports whether a call would currently be admitted without claiming the
// half-open probe slot.
func (b *Breaker) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		return time.Since(b.openedAt) >= b.cooldown
	case StateHalfOpen:
		return !b.probing
	}
	return false
}

// RecordSuccess reports a successful call. In half-open it closes the
// breaker and resets the failure count. In closed it is a no-op: counted
// failures age out via the rolling window, not via interleaved successes.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.state = StateClosed
		b.failures = 0
		b.probing = false
		b.logger.Info("circuit closed", zap.String("model", b.model))
	}
	// A success landing while open comes from a call admitted before the
	// breaker opened; the cooldown probe decides recovery.
}

// RecordFailure reports a failed call. Failures older than the rolling
// window no longer count toward the threshold.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if !b.lastFailure.IsZero() && now.Sub(b.lastFailure) > b.window {
		b.failures = 1
	} else {
		b.failures++
	}
	b.lastFailure = now

	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
		b.openedAt = now
		b.probing = false
		b.logger.Info("probe failed, circuit reopened", zap.String("model", b.model))
	case StateClosed:
		if b.failures >= b.threshold {
			b.state = StateOpen
			b.openedAt = now
			b.logger.Info("circuit opened",
				zap.String("model", b.model),
				zap.Int("failures", b.failures))
		}
	}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns an observability view of the breaker.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Model:       b.model,
		State:       b.state,
		Failures:    b.failures,
		LastFailure: b.lastFailure,
		OpenedAt:    b.openedAt,
	}
}

// Registry hands out one breaker per model, created lazily on first use and
// retained for the process lifetime.
type Registry struct {
	threshold int
	cooldown  time.Duration
	window    time.Duration
	logger    *zap.Logger

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewRegistry creates an empty registry with shared breaker parameters.
func NewRegistry(threshold int, cooldown, window time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		threshold: threshold,
		cooldown:  cooldown,
		window:    window,
		logger:    logging.OrNop(logger),
		breakers:  make(map[string]*Breaker),
	}
}

// For returns the breaker for a model, creating it closed on first use.
func (r *Registry) For(model string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[model]
	if !ok {
		b = New(model, r.threshold, r.cooldown, r.window, r.logger)
		r.breakers[model] = b
	}
	return b
}

// Snapshots returns all breaker states sorted by model ID.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, 0, len(r.breakers))
	for _, b := range r.breakers {
		out = append(out, b.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}
