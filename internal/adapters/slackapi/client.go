// Package slackapi adapts the Slack Web API to the engine's messaging and
// directory ports. All Block Kit rendering lives here; the core only knows
// prompts, forms, and opaque message handles.
package slackapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/bft-labs/rollcall/internal/domain"
	"github.com/bft-labs/rollcall/internal/ports"
)

// api is the subset of *slack.Client the adapter uses, extracted for tests.
type api interface {
	OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	DeleteMessageContext(ctx context.Context, channel, messageTimestamp string) (string, string, error)
	OpenViewContext(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error)
	GetUsersContext(ctx context.Context, options ...slack.GetUsersOption) ([]slack.User, error)
}

// Client implements ports.MessagingClient and ports.Directory over the
// Slack Web API.
type Client struct {
	api    api
	logger zerolog.Logger
}

var (
	_ ports.MessagingClient = (*Client)(nil)
	_ ports.Directory       = (*Client)(nil)
)

// New creates a client authenticated with the given bot token.
func New(botToken string, logger zerolog.Logger) *Client {
	return &Client{api: slack.New(botToken), logger: logger}
}

// newWithAPI is the test constructor.
func newWithAPI(a api, logger zerolog.Logger) *Client {
	return &Client{api: a, logger: logger}
}

// OpenDirectChannel opens (or reuses) the IM channel with the recipient.
func (c *Client) OpenDirectChannel(ctx context.Context, recipientID string) (string, error) {
	channel, _, _, err := c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{recipientID},
	})
	if err != nil {
		return "", translate(fmt.Errorf("conversations.open: %w", err))
	}
	return channel.ID, nil
}

// PostMessage delivers the prompt as a section block with a primary button.
func (c *Client) PostMessage(ctx context.Context, channelID string, prompt domain.Prompt) (domain.MessageHandle, error) {
	button := slack.NewButtonBlockElement(
		prompt.ActionID,
		prompt.ActionID,
		slack.NewTextBlockObject(slack.PlainTextType, prompt.ButtonLabel, false, false),
	)
	button.Style = slack.StylePrimary

	section := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, prompt.Text, false, false),
		nil,
		slack.NewAccessory(button),
	)

	respChannel, ts, err := c.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(prompt.Text, false),
		slack.MsgOptionBlocks(section),
	)
	if err != nil {
		return domain.MessageHandle{}, translate(fmt.Errorf("chat.postMessage: %w", err))
	}
	return domain.MessageHandle{ChannelID: respChannel, Timestamp: ts}, nil
}

// DeleteMessage retracts a previously posted prompt.
func (c *Client) DeleteMessage(ctx context.Context, handle domain.MessageHandle) error {
	if handle.Zero() {
		return errors.New("empty message handle")
	}
	if _, _, err := c.api.DeleteMessageContext(ctx, handle.ChannelID, handle.Timestamp); err != nil {
		return translate(fmt.Errorf("chat.delete: %w", err))
	}
	return nil
}

// OpenForm presents the follow-up form as a modal.
func (c *Client) OpenForm(ctx context.Context, triggerID string, form domain.FormSpec) error {
	if _, err := c.api.OpenViewContext(ctx, triggerID, buildModal(form)); err != nil {
		return translate(fmt.Errorf("views.open: %w", err))
	}
	return nil
}

// ListMembers returns the workspace directory. The platform's own bot user
// is reported with IsBot unset, so it is filtered by ID here.
func (c *Client) ListMembers(ctx context.Context) ([]domain.Recipient, error) {
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, translate(fmt.Errorf("users.list: %w", err))
	}
	c.logger.Debug().Int("members", len(users)).Msg("directory listed")

	members := make([]domain.Recipient, 0, len(users))
	for _, u := range users {
		name := u.RealName
		if name == "" {
			name = u.Name
		}
		members = append(members, domain.Recipient{
			ID:          u.ID,
			Name:        name,
			Deactivated: u.Deleted,
			Bot:         u.IsBot || u.ID == "USLACKBOT",
		})
	}
	return members, nil
}

func buildModal(form domain.FormSpec) slack.ModalViewRequest {
	blocks := make([]slack.Block, 0, len(form.Fields))
	for _, f := range form.Fields {
		var placeholder *slack.TextBlockObject
		if f.Placeholder != "" {
			placeholder = slack.NewTextBlockObject(slack.PlainTextType, f.Placeholder, false, false)
		}
		input := slack.NewPlainTextInputBlockElement(placeholder, f.ID)
		input.Multiline = f.Multiline
		blocks = append(blocks, slack.NewInputBlock(
			f.ID,
			slack.NewTextBlockObject(slack.PlainTextType, f.Label, false, false),
			nil,
			input,
		))
	}

	submit := form.SubmitLabel
	if submit == "" {
		submit = "Submit"
	}

	return slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: form.CallbackID,
		Title:      slack.NewTextBlockObject(slack.PlainTextType, form.Title, false, false),
		Close:      slack.NewTextBlockObject(slack.PlainTextType, "Close", false, false),
		Submit:     slack.NewTextBlockObject(slack.PlainTextType, submit, false, false),
		Blocks:     slack.Blocks{BlockSet: blocks},
	}
}

// translate converts Slack SDK errors the core reacts to into port-level
// types; everything else passes through wrapped.
func translate(err error) error {
	var rl *slack.RateLimitedError
	if errors.As(err, &rl) {
		return &ports.RateLimitedError{RetryAfter: rl.RetryAfter}
	}
	return err
}
