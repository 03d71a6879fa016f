package roster

import (
	"context"

	"github.com/bft-labs/rollcall/internal/domain"
)

// Static resolves a fixed list of member IDs from configuration.
// It never fails; an empty list is a valid (zero-member) roster.
type Static struct {
	members []domain.Recipient
}

var _ Provider = (*Static)(nil)

// NewStatic builds a static provider from member IDs.
func NewStatic(ids []string) *Static {
	members := make([]domain.Recipient, 0, len(ids))
	for _, id := range ids {
		members = append(members, domain.Recipient{ID: id, Name: id})
	}
	return &Static{members: normalize(members)}
}

// Resolve returns the configured roster.
func (s *Static) Resolve(context.Context) ([]domain.Recipient, error) {
	out := make([]domain.Recipient, len(s.members))
	copy(out, s.members)
	return out, nil
}
