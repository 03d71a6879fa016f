package ports

import (
	"context"

	"github.com/bft-labs/rollcall/internal/domain"
)

// Directory lists the messaging platform's member directory. Filtering of
// deactivated and non-human accounts is the roster provider's concern;
// implementations return members as the platform reports them.
type Directory interface {
	ListMembers(ctx context.Context) ([]domain.Recipient, error)
}
