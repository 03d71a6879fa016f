package ports

import (
	"context"

	"github.com/bft-labs/rollcall/internal/domain"
)

// DeliveryStore holds the delivery records of the active check-in cycle.
//
// Implementations must support concurrent read-modify-write per record with
// per-record mutual exclusion; no cross-record locking is required, records
// are independent. The store enforces the uniqueness invariant: exactly one
// record per (cycle, recipient).
type DeliveryStore interface {
	// Activate makes cycleID the active cycle. Records of the previously
	// active cycle are released; a cycle exclusively owns its records.
	Activate(ctx context.Context, cycleID string) error

	// Create inserts a new record. Returns domain.ErrDuplicateDelivery when
	// a record for the same (cycle, recipient) already exists.
	Create(ctx context.Context, rec domain.DeliveryRecord) error

	// Get returns the record for the pair, or domain.ErrUnknownDelivery.
	Get(ctx context.Context, cycleID, recipientID string) (domain.DeliveryRecord, error)

	// Lookup returns the recipient's record in the active cycle, or
	// domain.ErrUnknownDelivery.
	Lookup(ctx context.Context, recipientID string) (domain.DeliveryRecord, error)

	// Update runs fn on the record under its lock and persists the result
	// when fn returns nil. fn returning an error leaves the record untouched;
	// the error is returned verbatim. Returns the record as stored.
	Update(ctx context.Context, cycleID, recipientID string, fn func(*domain.DeliveryRecord) error) (domain.DeliveryRecord, error)

	// List returns a snapshot of the cycle's records in no particular order.
	List(ctx context.Context, cycleID string) ([]domain.DeliveryRecord, error)
}
