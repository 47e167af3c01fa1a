// Package ledger enforces per-user daily spending limits with pessimistic
// admission: estimated costs are reserved before a provider call and
// reconciled to actuals afterwards, so concurrent requests cannot overshoot
// a budget by racing the check.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cvforge-ai/cvforge/pkg/journal"
	"github.com/cvforge-ai/cvforge/pkg/logging"
	"github.com/cvforge-ai/cvforge/pkg/models"
)

// ErrBudgetExceeded is returned when an admission would exceed the caller's
// daily limit. Denial is an expected outcome, not a system fault.
var ErrBudgetExceeded = errors.New("budget exceeded")

// dayFormat keys entries by UTC calendar day.
const dayFormat = "2006-01-02"

type entry struct {
	mu       sync.Mutex
	day      string
	seeded   bool
	spent    float64
	reserved float64
	requests int64
}

// Ledger tracks spent and reserved USD per (user, UTC day). Entries live for
// the process lifetime; on first touch of a day the spent total is seeded
// from the journal so restarts do not reset budgets.
type Ledger struct {
	limits  map[string]float64
	minimum float64
	journal journal.Journal
	logger  *zap.Logger

	mu      sync.RWMutex
	entries map[string]*entry

	now func() time.Time
}

// New creates a Ledger. limits maps tier names to daily USD caps; an unknown
// tier is held to the most restrictive configured limit. j may be nil, in
// which case days start at zero spend.
func New(limits map[string]float64, j journal.Journal, logger *zap.Logger) *Ledger {
	minimum := 0.0
	first := true
	for _, l := range limits {
		if first || l < minimum {
			minimum = l
			first = false
		}
	}
	return &Ledger{
		limits:  limits,
		minimum: minimum,
		journal: j,
		logger:  logging.OrNop(logger),
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// limitFor resolves a tier to its daily cap, falling back to the most
// restrictive configured limit for unknown tiers.
func (l *Ledger) limitFor(tier string) float64 {
	if limit, ok := l.limits[tier]; ok {
		return limit
	}
	return l.minimum
}

func (l *Ledger) entryFor(userID string) *entry {
	day := l.now().UTC().Format(dayFormat)
	key := userID + "|" + day

	l.mu.RLock()
	e, ok := l.entries[key]
	l.mu.RUnlock()
	if ok {
		return e
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok = l.entries[key]; !ok {
		e = &entry{day: day}
		l.entries[key] = e
	}
	return e
}

// seedLocked loads the day's already-journaled spend. Caller holds e.mu.
func (l *Ledger) seedLocked(ctx context.Context, e *entry, userID string) error {
	if e.seeded {
		return nil
	}
	if l.journal != nil {
		dayStart, err := time.ParseInLocation(dayFormat, e.day, time.UTC)
		if err != nil {
			return fmt.Errorf("parse ledger day: %w", err)
		}
		total, err := l.journal.TotalForUserSince(ctx, userID, dayStart)
		if err != nil {
			return fmt.Errorf("seed ledger: %w", err)
		}
		e.spent = total
	}
	e.seeded = true
	return nil
}

// Admit reserves estimate USD against the user's remaining daily budget.
// It returns ErrBudgetExceeded when spent+reserved+estimate would exceed the
// tier limit. Any other error means the budget could not be verified; callers
// must treat that as a denial, not spend unverified.
func (l *Ledger) Admit(ctx context.Context, userID, tier string, estimate float64) error {
	e := l.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := l.seedLocked(ctx, e, userID); err != nil {
		return err
	}

	limit := l.limitFor(tier)
	if e.spent+e.reserved+estimate > limit {
		l.logger.Debug("admission denied",
			zap.String("user_id", userID),
			zap.String("tier", tier),
			zap.Float64("estimate", estimate),
			zap.Float64("spent", e.spent),
			zap.Float64("reserved", e.reserved),
			zap.Float64("limit", limit))
		return ErrBudgetExceeded
	}
	e.reserved += estimate
	return nil
}

// Reconcile releases a reservation and books the actual charge. actual below
// zero is clamped; a reservation that crossed a day rollover releases against
// the new day's entry, where the floor keeps totals non-negative.
func (l *Ledger) Reconcile(ctx context.Context, userID string, estimate, actual float64) {
	e := l.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := l.seedLocked(ctx, e, userID); err != nil {
		// Seeding stays pending so the next Admit retries it; reconciliation
		// still books in-memory so the reservation cannot leak.
		l.logger.Warn("ledger seed failed during reconcile", zap.Error(err))
	}

	e.reserved -= estimate
	if e.reserved < 0 {
		e.reserved = 0
	}
	if actual < 0 {
		actual = 0
	}
	e.spent += actual
	e.requests++
}

// Status returns a snapshot of the user's current-day entry.
func (l *Ledger) Status(ctx context.Context, userID, tier string) (models.BudgetStatus, error) {
	e := l.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := l.seedLocked(ctx, e, userID); err != nil {
		return models.BudgetStatus{}, err
	}

	limit := l.limitFor(tier)
	remaining := limit - e.spent - e.reserved
	if remaining < 0 {
		remaining = 0
	}
	return models.BudgetStatus{
		UserID:       userID,
		Tier:         tier,
		Day:          e.day,
		LimitUSD:     limit,
		SpentUSD:     e.spent,
		ReservedUSD:  e.reserved,
		RemainingUSD: remaining,
		Requests:     e.requests,
	}, nil
}
