// Package cycle triggers check-in runs, on a calendar schedule or manually.
package cycle

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/rollcall/internal/domain"
	"github.com/bft-labs/rollcall/internal/ports"
	"github.com/bft-labs/rollcall/internal/roster"
)

// Dispatcher fans the prompt out to the roster. Implemented by
// internal/dispatch.
type Dispatcher interface {
	Dispatch(ctx context.Context, cycle domain.Cycle, recipients []domain.Recipient, prompt domain.Prompt) domain.CycleReport
}

// Finalizer expires and retracts a cycle's unresolved prompts. Implemented
// by the expiry manager.
type Finalizer interface {
	ExpireCycle(ctx context.Context, cycleID string) error
}

// Runner executes check-in cycles one at a time. A trigger arriving while a
// cycle is running is rejected with domain.ErrCycleInProgress, never queued:
// overlapping cycles would violate the one-record-per-recipient invariant.
type Runner struct {
	roster     roster.Provider
	dispatcher Dispatcher
	store      ports.DeliveryStore
	finalizer  Finalizer
	prompt     domain.Prompt
	window     time.Duration
	logger     zerolog.Logger

	running atomic.Bool
	now     func() time.Time

	// lastCycleID is the previously started cycle, finalized when the next
	// one begins. Only touched inside the running gate.
	lastCycleID string
}

// NewRunner creates a runner. window is the response deadline measured from
// cycle start.
func NewRunner(provider roster.Provider, dispatcher Dispatcher, store ports.DeliveryStore, finalizer Finalizer, prompt domain.Prompt, window time.Duration, logger zerolog.Logger) *Runner {
	return &Runner{
		roster:     provider,
		dispatcher: dispatcher,
		store:      store,
		finalizer:  finalizer,
		prompt:     prompt,
		window:     window,
		logger:     logger,
		now:        time.Now,
	}
}

// Running reports whether a cycle is currently in flight.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Run executes one full cycle: resolve roster, activate the cycle's record
// set, dispatch to every recipient. It returns once every dispatch attempt
// has resolved; expiry handling continues independently afterwards.
//
// A roster lookup failure aborts the cycle before anything is sent; the
// engine never proceeds on a partial roster.
func (r *Runner) Run(ctx context.Context) (domain.CycleReport, error) {
	if !r.running.CompareAndSwap(false, true) {
		return domain.CycleReport{}, domain.ErrCycleInProgress
	}
	defer r.running.Store(false)

	recipients, err := r.roster.Resolve(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("cycle aborted, roster unavailable")
		return domain.CycleReport{}, fmt.Errorf("resolve roster: %w", err)
	}

	// A trigger inside the previous cycle's response window supersedes it:
	// its unresolved prompts are expired and retracted before its records
	// are released, so none stays actionable in the platform.
	if r.lastCycleID != "" {
		if err := r.finalizer.ExpireCycle(ctx, r.lastCycleID); err != nil {
			r.logger.Error().Err(err).Str("cycle", r.lastCycleID).Msg("finalizing superseded cycle failed")
		}
	}

	c := domain.NewCycle(r.now(), r.window)
	if err := r.store.Activate(ctx, c.ID); err != nil {
		return domain.CycleReport{}, fmt.Errorf("activate cycle: %w", err)
	}
	r.lastCycleID = c.ID

	r.logger.Info().
		Str("cycle", c.ID).
		Int("roster", len(recipients)).
		Time("deadline", c.Deadline).
		Msg("check-in cycle started")

	report := r.dispatcher.Dispatch(ctx, c, recipients, r.prompt)
	return report, nil
}
