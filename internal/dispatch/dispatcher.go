// Package dispatch fans a check-in prompt out to the cycle's roster.
//
// Each recipient is processed independently: one recipient's failure never
// aborts the batch, and a panic in one recipient's path is recovered and
// converted into that recipient's DispatchError. Fan-out is bounded by a
// concurrency limit and a token-bucket rate limiter so the messaging
// platform's rate limits are respected.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/bft-labs/rollcall/internal/domain"
	"github.com/bft-labs/rollcall/internal/ports"
)

// Registrar registers a deadline for a freshly created delivery record.
// Implemented by the expiry manager.
type Registrar interface {
	Register(cycleID, recipientID string, deadline time.Time)
}

// Config tunes the dispatcher's fan-out.
type Config struct {
	// MaxConcurrent bounds in-flight sends. Values below 1 mean 1.
	MaxConcurrent int

	// SendsPerSecond is the sustained outbound call rate.
	SendsPerSecond float64

	// SendBurst is the rate limiter's burst size.
	SendBurst int

	// MaxAttempts bounds send attempts when the platform throttles a call.
	MaxAttempts int
}

// DefaultConfig returns dispatch settings safe for the platform's default
// per-bot rate tier.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:  4,
		SendsPerSecond: 1.0,
		SendBurst:      2,
		MaxAttempts:    3,
	}
}

// Dispatcher sends one interactive prompt per recipient and records the
// delivery.
type Dispatcher struct {
	cfg     Config
	client  ports.MessagingClient
	store   ports.DeliveryStore
	expiry  Registrar
	limiter *rate.Limiter
	logger  zerolog.Logger
	now     func() time.Time
}

// New creates a dispatcher.
func New(cfg Config, client ports.MessagingClient, store ports.DeliveryStore, expiry Registrar, logger zerolog.Logger) *Dispatcher {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.SendsPerSecond <= 0 {
		cfg.SendsPerSecond = 1.0
	}
	if cfg.SendBurst < 1 {
		cfg.SendBurst = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Dispatcher{
		cfg:     cfg,
		client:  client,
		store:   store,
		expiry:  expiry,
		limiter: rate.NewLimiter(rate.Limit(cfg.SendsPerSecond), cfg.SendBurst),
		logger:  logger,
		now:     time.Now,
	}
}

// Dispatch sends the prompt to every recipient and returns once all attempts
// have resolved, success or failure. Expiry handling continues independently
// of the returned report.
func (d *Dispatcher) Dispatch(ctx context.Context, cycle domain.Cycle, recipients []domain.Recipient, prompt domain.Prompt) domain.CycleReport {
	report := domain.CycleReport{CycleID: cycle.ID, StartedAt: cycle.StartedAt}

	sem := semaphore.NewWeighted(int64(d.cfg.MaxConcurrent))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, recipient := range recipients {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			report.Failed = append(report.Failed, domain.DispatchError{RecipientID: recipient.ID, Cause: err})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(r domain.Recipient) {
			defer wg.Done()
			defer sem.Release(1)

			if err := d.sendOne(ctx, cycle, r, prompt); err != nil {
				d.logger.Warn().Err(err).Str("recipient", r.ID).Str("cycle", cycle.ID).Msg("dispatch failed")
				mu.Lock()
				report.Failed = append(report.Failed, domain.DispatchError{RecipientID: r.ID, Cause: err})
				mu.Unlock()
				return
			}
			mu.Lock()
			report.Sent = append(report.Sent, r.ID)
			mu.Unlock()
		}(recipient)
	}

	wg.Wait()

	d.logger.Info().
		Str("cycle", cycle.ID).
		Int("sent", len(report.Sent)).
		Int("failed", len(report.Failed)).
		Msg("dispatch complete")
	return report
}

// sendOne delivers the prompt to a single recipient, creates the delivery
// record, and registers its deadline. Any panic is converted into an error
// so the rest of the batch is unaffected.
func (d *Dispatcher) sendOne(ctx context.Context, cycle domain.Cycle, r domain.Recipient, prompt domain.Prompt) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic during dispatch: %v", p)
		}
	}()

	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	channelID, err := withRetry(ctx, d.cfg.MaxAttempts, func() (string, error) {
		return d.client.OpenDirectChannel(ctx, r.ID)
	})
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	handle, err := withRetry(ctx, d.cfg.MaxAttempts, func() (domain.MessageHandle, error) {
		return d.client.PostMessage(ctx, channelID, prompt)
	})
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}

	rec := domain.NewDeliveryRecord(cycle.ID, r.ID, handle, d.now())
	if err := d.store.Create(ctx, rec); err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}

	d.expiry.Register(cycle.ID, r.ID, cycle.Deadline)
	d.logger.Debug().Str("recipient", r.ID).Str("cycle", cycle.ID).Msg("prompt sent")
	return nil
}

// withRetry retries fn on platform throttling with exponential backoff,
// honoring the platform's retry-after hint. Other errors fail immediately.
func withRetry[T any](ctx context.Context, maxAttempts int, fn func() (T, error)) (T, error) {
	b := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)
	var zero T
	for attempt := 1; ; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		var rl *ports.RateLimitedError
		if !errors.As(err, &rl) || attempt >= maxAttempts {
			return zero, err
		}
		if serr := b.Sleep(ctx, rl.RetryAfter); serr != nil {
			return zero, serr
		}
	}
}
