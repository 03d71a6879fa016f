// Package roster resolves the set of recipients for a check-in cycle.
//
// Three sources are supported, selected by configuration: a static ID list,
// a TOML roster file watched for changes, and the messaging platform's
// member directory. All sources produce a deterministic, duplicate-free
// sequence with deactivated and non-human accounts excluded.
package roster

import (
	"context"
	"sort"

	"github.com/bft-labs/rollcall/internal/domain"
)

// Provider resolves the current roster for a cycle. A failed lookup returns
// an error wrapping domain.ErrRosterUnavailable; callers must never treat a
// lookup failure as an empty roster.
type Provider interface {
	Resolve(ctx context.Context) ([]domain.Recipient, error)
}

// normalize filters out ineligible members, removes duplicates (first
// occurrence wins), and sorts by ID for a deterministic order.
func normalize(members []domain.Recipient) []domain.Recipient {
	seen := make(map[string]struct{}, len(members))
	out := make([]domain.Recipient, 0, len(members))
	for _, m := range members {
		if !m.Eligible() {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
