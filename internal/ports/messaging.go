package ports

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/rollcall/internal/domain"
)

// MessagingClient abstracts the messaging platform's delivery surface.
// Implementations handle transport, serialization, and authentication;
// the core only decides whom to message and what state each message is in.
type MessagingClient interface {
	// OpenDirectChannel opens (or reuses) a private channel to the recipient
	// and returns its identifier.
	OpenDirectChannel(ctx context.Context, recipientID string) (string, error)

	// PostMessage delivers the interactive prompt to the channel and returns
	// a handle addressing the message for later retraction.
	PostMessage(ctx context.Context, channelID string, prompt domain.Prompt) (domain.MessageHandle, error)

	// DeleteMessage retracts a previously delivered prompt.
	DeleteMessage(ctx context.Context, handle domain.MessageHandle) error

	// OpenForm presents the follow-up form to the recipient. The trigger is
	// the platform's short-lived token from the originating interaction.
	OpenForm(ctx context.Context, triggerID string, form domain.FormSpec) error
}

// RateLimitedError indicates the platform throttled a call. The caller may
// retry after the indicated delay.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}
