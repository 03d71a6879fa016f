package slackapi

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/rollcall/internal/domain"
	"github.com/bft-labs/rollcall/internal/ports"
)

type fakeAPI struct {
	users     []slack.User
	postErr   error
	openViews []slack.ModalViewRequest
	deletions [][2]string
}

func (f *fakeAPI) OpenConversationContext(_ context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error) {
	ch := &slack.Channel{}
	ch.ID = "D-" + params.Users[0]
	return ch, false, false, nil
}

func (f *fakeAPI) PostMessageContext(_ context.Context, channelID string, _ ...slack.MsgOption) (string, string, error) {
	if f.postErr != nil {
		return "", "", f.postErr
	}
	return channelID, "1700000000.000100", nil
}

func (f *fakeAPI) DeleteMessageContext(_ context.Context, channel, ts string) (string, string, error) {
	f.deletions = append(f.deletions, [2]string{channel, ts})
	return channel, ts, nil
}

func (f *fakeAPI) OpenViewContext(_ context.Context, _ string, view slack.ModalViewRequest) (*slack.ViewResponse, error) {
	f.openViews = append(f.openViews, view)
	return &slack.ViewResponse{}, nil
}

func (f *fakeAPI) GetUsersContext(context.Context, ...slack.GetUsersOption) ([]slack.User, error) {
	return f.users, nil
}

func TestPostMessageReturnsHandle(t *testing.T) {
	client := newWithAPI(&fakeAPI{}, zerolog.Nop())

	channelID, err := client.OpenDirectChannel(context.Background(), "U1")
	require.NoError(t, err)
	assert.Equal(t, "D-U1", channelID)

	handle, err := client.PostMessage(context.Background(), channelID, domain.Prompt{
		Text:        "check in",
		ButtonLabel: "Check in",
		ActionID:    "checkin_open_form",
	})
	require.NoError(t, err)
	assert.Equal(t, "D-U1", handle.ChannelID)
	assert.NotEmpty(t, handle.Timestamp)
}

func TestRateLimitTranslation(t *testing.T) {
	api := &fakeAPI{postErr: &slack.RateLimitedError{RetryAfter: 3 * time.Second}}
	client := newWithAPI(api, zerolog.Nop())

	_, err := client.PostMessage(context.Background(), "D1", domain.Prompt{})
	var rl *ports.RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 3*time.Second, rl.RetryAfter)
}

func TestDeleteMessageRejectsEmptyHandle(t *testing.T) {
	api := &fakeAPI{}
	client := newWithAPI(api, zerolog.Nop())

	err := client.DeleteMessage(context.Background(), domain.MessageHandle{})
	require.Error(t, err)
	assert.Empty(t, api.deletions)

	err = client.DeleteMessage(context.Background(), domain.MessageHandle{ChannelID: "D1", Timestamp: "1.2"})
	require.NoError(t, err)
	require.Len(t, api.deletions, 1)
	assert.Equal(t, [2]string{"D1", "1.2"}, api.deletions[0])
}

func TestOpenFormBuildsModal(t *testing.T) {
	api := &fakeAPI{}
	client := newWithAPI(api, zerolog.Nop())

	form := domain.FormSpec{
		CallbackID: "weekly_checkin",
		Title:      "Weekly check-in",
		Fields: []domain.FormField{
			{ID: "checkin_note", Label: "How is your week?", Multiline: true},
		},
	}
	require.NoError(t, client.OpenForm(context.Background(), "trig-1", form))

	require.Len(t, api.openViews, 1)
	view := api.openViews[0]
	assert.Equal(t, slack.VTModal, view.Type)
	assert.Equal(t, "weekly_checkin", view.CallbackID)
	assert.Equal(t, "Weekly check-in", view.Title.Text)
	require.Len(t, view.Blocks.BlockSet, 1)
	input, ok := view.Blocks.BlockSet[0].(*slack.InputBlock)
	require.True(t, ok)
	assert.Equal(t, "checkin_note", input.BlockID)
}

func TestListMembersMapsDirectoryFlags(t *testing.T) {
	api := &fakeAPI{users: []slack.User{
		{ID: "U1", Name: "ana", RealName: "Ana"},
		{ID: "U2", Name: "deleted", Deleted: true},
		{ID: "U3", Name: "bot", IsBot: true},
		{ID: "USLACKBOT", Name: "slackbot"},
	}}
	client := newWithAPI(api, zerolog.Nop())

	members, err := client.ListMembers(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 4, "filtering is the roster provider's job, not the adapter's")

	assert.Equal(t, "Ana", members[0].Name)
	assert.True(t, members[1].Deactivated)
	assert.True(t, members[2].Bot)
	assert.True(t, members[3].Bot, "the platform's own bot user is flagged by ID")
}
