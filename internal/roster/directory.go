package roster

import (
	"context"
	"fmt"

	"github.com/bft-labs/rollcall/internal/domain"
	"github.com/bft-labs/rollcall/internal/ports"
)

// Directory resolves the roster from the messaging platform's member
// directory, excluding deactivated and non-human accounts.
type Directory struct {
	dir ports.Directory
}

var _ Provider = (*Directory)(nil)

// NewDirectory builds a directory-backed provider.
func NewDirectory(dir ports.Directory) *Directory {
	return &Directory{dir: dir}
}

// Resolve lists the directory and filters it. A lookup failure wraps
// domain.ErrRosterUnavailable so the cycle aborts instead of proceeding on
// an empty roster.
func (d *Directory) Resolve(ctx context.Context) ([]domain.Recipient, error) {
	members, err := d.dir.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list members: %v", domain.ErrRosterUnavailable, err)
	}
	return normalize(members), nil
}
