package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cycle is one run of the check-in process across the full roster.
// A cycle exclusively owns its set of delivery records; records are never
// shared across cycles.
type Cycle struct {
	ID        string
	StartedAt time.Time

	// Deadline is the instant after which unanswered prompts are retracted.
	Deadline time.Time
}

// NewCycle creates a cycle starting at now with the given response window.
func NewCycle(now time.Time, window time.Duration) Cycle {
	return Cycle{
		ID:        uuid.NewString(),
		StartedAt: now,
		Deadline:  now.Add(window),
	}
}

// CycleReport is the outcome of a cycle's dispatch phase. Expiry handling
// continues independently after the report is produced.
type CycleReport struct {
	CycleID   string
	StartedAt time.Time

	// Sent lists recipient IDs whose prompt was delivered.
	Sent []string

	// Failed lists per-recipient dispatch failures. A failure never aborts
	// the rest of the batch.
	Failed []DispatchError
}

// Complete reports whether every dispatch attempt resolved one way or the
// other for the given roster size.
func (r CycleReport) Complete(rosterSize int) bool {
	return len(r.Sent)+len(r.Failed) == rosterSize
}
