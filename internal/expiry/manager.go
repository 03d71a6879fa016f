// Package expiry retracts unanswered check-in prompts after their deadline.
//
// One cancellable timer exists per delivery record. Cancellation is not
// required for correctness: the deadline handler re-checks the record's
// state under its lock before retracting, so a submission that races the
// deadline wins or loses deterministically and the other side becomes a
// no-op.
package expiry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/rollcall/internal/domain"
	"github.com/bft-labs/rollcall/internal/ports"
)

// retractTimeout bounds the platform call made by a firing deadline.
const retractTimeout = 30 * time.Second

type timerKey struct {
	cycleID     string
	recipientID string
}

// Manager owns the per-record deadline timers.
type Manager struct {
	client ports.MessagingClient
	store  ports.DeliveryStore
	logger zerolog.Logger

	mu     sync.Mutex
	timers map[timerKey]*time.Timer

	// Injected for tests.
	now       func() time.Time
	afterFunc func(time.Duration, func()) *time.Timer
}

// NewManager creates an expiry manager.
func NewManager(client ports.MessagingClient, store ports.DeliveryStore, logger zerolog.Logger) *Manager {
	return &Manager{
		client:    client,
		store:     store,
		logger:    logger,
		timers:    make(map[timerKey]*time.Timer),
		now:       time.Now,
		afterFunc: time.AfterFunc,
	}
}

// Register schedules the deadline for one delivery record. Registering the
// same record again replaces the previous timer.
func (m *Manager) Register(cycleID, recipientID string, deadline time.Time) {
	key := timerKey{cycleID, recipientID}
	d := deadline.Sub(m.now())
	if d < 0 {
		d = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[key]; ok {
		t.Stop()
	}
	m.timers[key] = m.afterFunc(d, func() {
		m.onDeadline(key)
	})
}

// Cancel stops the pending timer for one record, if any. Best effort; a
// timer that already fired is handled by the re-check rule.
func (m *Manager) Cancel(cycleID, recipientID string) {
	key := timerKey{cycleID, recipientID}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[key]; ok {
		t.Stop()
		delete(m.timers, key)
	}
}

// Stop cancels every pending timer. Used at shutdown.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, t := range m.timers {
		t.Stop()
		delete(m.timers, key)
	}
}

// ExpireCycle finalizes every unresolved record of the cycle, as if each
// deadline had elapsed: the record transitions to Expired and its prompt is
// retracted. Called when a new cycle supersedes the previous one, so no
// prompt of the superseded cycle stays actionable after its records are
// released.
func (m *Manager) ExpireCycle(ctx context.Context, cycleID string) error {
	records, err := m.store.List(ctx, cycleID)
	if err != nil {
		return fmt.Errorf("list cycle %s: %w", cycleID, err)
	}
	for _, rec := range records {
		if rec.State.Terminal() {
			continue
		}
		m.Cancel(cycleID, rec.RecipientID)
		m.expire(ctx, timerKey{cycleID, rec.RecipientID})
	}
	return nil
}

// onDeadline expires one record when its timer fires.
func (m *Manager) onDeadline(key timerKey) {
	m.mu.Lock()
	delete(m.timers, key)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), retractTimeout)
	defer cancel()
	m.expire(ctx, key)
}

// expire transitions one record to Expired and retracts its prompt. The
// transition happens first, under the record's lock; only after the record
// is irrevocably Expired is the message retracted, so a deletion can never
// follow a submission.
func (m *Manager) expire(ctx context.Context, key timerKey) {
	rec, err := m.store.Update(ctx, key.cycleID, key.recipientID, func(r *domain.DeliveryRecord) error {
		if !r.State.CanTransition(domain.StateExpired) {
			return domain.ErrAlreadyFinalized
		}
		r.State = domain.StateExpired
		r.ResolvedAt = m.now()
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyFinalized) {
			m.logger.Debug().Str("recipient", key.recipientID).Str("state", string(rec.State)).Msg("deadline elapsed after resolution, nothing to do")
			return
		}
		if errors.Is(err, domain.ErrUnknownDelivery) {
			// Record belonged to a cycle that has since been released.
			return
		}
		m.logger.Error().Err(err).Str("recipient", key.recipientID).Msg("expiry transition failed")
		return
	}

	// Retraction failures are logged, never retried: the record is Expired
	// either way, and the intent is only that the prompt stop being
	// actionable.
	if err := m.client.DeleteMessage(ctx, rec.Handle); err != nil {
		m.logger.Warn().Err(err).Str("recipient", key.recipientID).Str("cycle", key.cycleID).Msg("prompt retraction failed")
	} else {
		m.logger.Info().Str("recipient", key.recipientID).Str("cycle", key.cycleID).Msg("unanswered prompt retracted")
	}
}
