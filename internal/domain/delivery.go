package domain

import "time"

// DeliveryState is the lifecycle state of a sent check-in prompt.
type DeliveryState string

const (
	// StateSent means the prompt was delivered and no interaction has
	// occurred yet.
	StateSent DeliveryState = "sent"

	// StateAcknowledged means the recipient clicked the prompt's button but
	// has not finalized a response.
	StateAcknowledged DeliveryState = "acknowledged"

	// StateSubmitted means the recipient submitted the check-in form.
	// Terminal.
	StateSubmitted DeliveryState = "submitted"

	// StateExpired means the deadline elapsed without a submission and the
	// prompt was retracted. Terminal.
	StateExpired DeliveryState = "expired"

	// StateDeliveryFailed means the prompt could not be delivered. Terminal.
	// It never appears in the store (failed sends produce no record); it
	// exists for report rendering.
	StateDeliveryFailed DeliveryState = "delivery_failed"
)

// Terminal reports whether no further transition is permitted out of s.
func (s DeliveryState) Terminal() bool {
	switch s {
	case StateSubmitted, StateExpired, StateDeliveryFailed:
		return true
	}
	return false
}

// CanTransition reports whether the transition s -> to is permitted.
// Transitions are monotonic and one-directional:
//
//	sent         -> acknowledged | submitted | expired
//	acknowledged -> submitted | expired
//
// Terminal states permit no transition.
func (s DeliveryState) CanTransition(to DeliveryState) bool {
	switch s {
	case StateSent:
		return to == StateAcknowledged || to == StateSubmitted || to == StateExpired
	case StateAcknowledged:
		return to == StateSubmitted || to == StateExpired
	}
	return false
}

// MessageHandle addresses a delivered prompt for later retraction.
// Both fields are opaque to the core.
type MessageHandle struct {
	ChannelID string
	Timestamp string
}

// Zero reports whether the handle addresses nothing.
func (h MessageHandle) Zero() bool {
	return h.ChannelID == "" && h.Timestamp == ""
}

// DeliveryRecord tracks one recipient's prompt through the check-in
// lifecycle. Exactly one record exists per (cycle, recipient).
type DeliveryRecord struct {
	CycleID     string
	RecipientID string
	Handle      MessageHandle
	SentAt      time.Time
	State       DeliveryState

	// Payload holds the submitted form values. Set only when State is
	// StateSubmitted; the first submission wins and is never overwritten.
	Payload map[string]string

	// AckedAt is set when the record transitions to StateAcknowledged.
	AckedAt time.Time

	// ResolvedAt is set when the record reaches a terminal state.
	ResolvedAt time.Time
}

// NewDeliveryRecord constructs a record in StateSent for a successful send.
func NewDeliveryRecord(cycleID, recipientID string, handle MessageHandle, sentAt time.Time) DeliveryRecord {
	return DeliveryRecord{
		CycleID:     cycleID,
		RecipientID: recipientID,
		Handle:      handle,
		SentAt:      sentAt,
		State:       StateSent,
	}
}
