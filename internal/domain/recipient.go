package domain

// Recipient is one member of the check-in roster for a single cycle.
// Recipients are supplied per cycle by a roster provider; the core does not
// retain them beyond the cycle's lifetime.
type Recipient struct {
	// ID is the messaging platform's opaque member identifier.
	ID string

	// Name is display metadata only, never used for addressing.
	Name string

	// Deactivated marks an account that has been disabled in the directory.
	Deactivated bool

	// Bot marks a non-human account.
	Bot bool
}

// Eligible reports whether the recipient may receive a check-in prompt.
func (r Recipient) Eligible() bool {
	return r.ID != "" && !r.Deactivated && !r.Bot
}
