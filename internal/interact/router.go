// Package interact drives the delivery record state machine from inbound
// interaction events.
//
// Acknowledging the event to the transport is the receiver adapter's
// responsibility and happens before routing; nothing in this package may
// block the transport's response window. Routing outcomes that are not
// state changes (unknown delivery, already finalized, resubmission) are
// reported as typed errors for observability but must always appear
// successful to the end user.
package interact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/rollcall/internal/domain"
	"github.com/bft-labs/rollcall/internal/ports"
)

// Canceller cancels a pending expiry deadline. Implemented by the expiry
// manager. Cancellation is best effort: the deadline handler re-checks state
// before acting, so a missed cancel is safe.
type Canceller interface {
	Cancel(cycleID, recipientID string)
}

// Config names the prompt actions the router understands.
type Config struct {
	// ConfirmActionID acknowledges the prompt without opening a form.
	ConfirmActionID string

	// OpenFormActionID opens the follow-up check-in form.
	OpenFormActionID string

	// Form is the follow-up form presented for OpenFormActionID.
	Form domain.FormSpec
}

// Router maps inbound interaction events to the correct delivery record and
// applies the corresponding state transition.
type Router struct {
	cfg    Config
	store  ports.DeliveryStore
	client ports.MessagingClient
	expiry Canceller
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a router.
func New(cfg Config, store ports.DeliveryStore, client ports.MessagingClient, expiry Canceller, logger zerolog.Logger) *Router {
	return &Router{
		cfg:    cfg,
		store:  store,
		client: client,
		expiry: expiry,
		logger: logger,
		now:    time.Now,
	}
}

// Handle routes one event and returns the record as stored afterwards.
//
// domain.ErrUnknownDelivery and domain.ErrAlreadyFinalized are expected
// outcomes for stale or replayed events; callers log them and acknowledge
// the transport with success regardless. No record is ever created here.
func (rt *Router) Handle(ctx context.Context, ev Event) (domain.DeliveryRecord, error) {
	rec, err := rt.store.Lookup(ctx, ev.Recipient())
	if err != nil {
		return domain.DeliveryRecord{}, fmt.Errorf("lookup %s: %w", ev.Recipient(), err)
	}

	switch e := ev.(type) {
	case ButtonClicked:
		return rt.handleButton(ctx, rec, e)
	case FormSubmitted:
		return rt.handleSubmission(ctx, rec, e)
	default:
		return rec, fmt.Errorf("unhandled event kind %q", ev.Kind())
	}
}

func (rt *Router) handleButton(ctx context.Context, rec domain.DeliveryRecord, ev ButtonClicked) (domain.DeliveryRecord, error) {
	switch ev.ActionID {
	case rt.cfg.OpenFormActionID:
		// Presenting the form does not change record state; only the
		// submission finalizes anything.
		if rec.State.Terminal() {
			return rec, domain.ErrAlreadyFinalized
		}
		if err := rt.client.OpenForm(ctx, ev.TriggerID, rt.cfg.Form); err != nil {
			return rec, fmt.Errorf("open form for %s: %w", ev.RecipientID, err)
		}
		rt.logger.Debug().Str("recipient", ev.RecipientID).Msg("check-in form opened")
		return rec, nil

	case rt.cfg.ConfirmActionID:
		updated, err := rt.store.Update(ctx, rec.CycleID, rec.RecipientID, func(r *domain.DeliveryRecord) error {
			if r.State == domain.StateAcknowledged {
				// Repeated click, nothing to change.
				return nil
			}
			if !r.State.CanTransition(domain.StateAcknowledged) {
				return domain.ErrAlreadyFinalized
			}
			r.State = domain.StateAcknowledged
			r.AckedAt = rt.now()
			return nil
		})
		if err != nil {
			return updated, err
		}
		rt.logger.Info().Str("recipient", ev.RecipientID).Str("cycle", rec.CycleID).Msg("prompt acknowledged")
		return updated, nil

	default:
		return rec, fmt.Errorf("unknown action %q from %s", ev.ActionID, ev.RecipientID)
	}
}

func (rt *Router) handleSubmission(ctx context.Context, rec domain.DeliveryRecord, ev FormSubmitted) (domain.DeliveryRecord, error) {
	var resubmitted bool
	updated, err := rt.store.Update(ctx, rec.CycleID, rec.RecipientID, func(r *domain.DeliveryRecord) error {
		if r.State == domain.StateSubmitted {
			// Idempotent resubmission: the first payload is retained.
			resubmitted = true
			return nil
		}
		if !r.State.CanTransition(domain.StateSubmitted) {
			return domain.ErrAlreadyFinalized
		}
		r.State = domain.StateSubmitted
		r.ResolvedAt = rt.now()
		r.Payload = make(map[string]string, len(ev.Values))
		for k, v := range ev.Values {
			r.Payload[k] = v
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyFinalized) {
			rt.logger.Warn().Str("recipient", ev.RecipientID).Str("state", string(updated.State)).Msg("submission for finalized record ignored")
		}
		return updated, err
	}

	if resubmitted {
		rt.logger.Info().Str("recipient", ev.RecipientID).Str("cycle", rec.CycleID).Msg("duplicate submission accepted, first payload retained")
		return updated, nil
	}

	// Best-effort timer cancellation; the deadline handler re-checks state
	// before retracting anyway.
	rt.expiry.Cancel(rec.CycleID, rec.RecipientID)
	rt.logger.Info().Str("recipient", ev.RecipientID).Str("cycle", rec.CycleID).Msg("check-in submitted")
	return updated, nil
}
