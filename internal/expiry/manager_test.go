package expiry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/rollcall/internal/domain"
	"github.com/bft-labs/rollcall/internal/store"
)

type fakeMessaging struct {
	mu      sync.Mutex
	deleted []domain.MessageHandle
	fail    error
}

func (f *fakeMessaging) OpenDirectChannel(_ context.Context, id string) (string, error) {
	return "D-" + id, nil
}

func (f *fakeMessaging) PostMessage(_ context.Context, channelID string, _ domain.Prompt) (domain.MessageHandle, error) {
	return domain.MessageHandle{ChannelID: channelID, Timestamp: "1.2"}, nil
}

func (f *fakeMessaging) DeleteMessage(_ context.Context, h domain.MessageHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.deleted = append(f.deleted, h)
	return nil
}

func (f *fakeMessaging) OpenForm(context.Context, string, domain.FormSpec) error { return nil }

func (f *fakeMessaging) deleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deleted)
}

// manualTimers replaces time.AfterFunc so tests fire deadlines explicitly.
type manualTimers struct {
	mu        sync.Mutex
	callbacks []func()
}

func (m *manualTimers) afterFunc(_ time.Duration, f func()) *time.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, f)
	// A stopped timer: the callback is fired by the test, never by time.
	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}

func (m *manualTimers) fire(i int) {
	m.mu.Lock()
	f := m.callbacks[i]
	m.mu.Unlock()
	f()
}

func testManager(t *testing.T) (*Manager, *store.Memory, *fakeMessaging, *manualTimers) {
	t.Helper()
	deliveries := store.NewMemory()
	client := &fakeMessaging{}
	timers := &manualTimers{}
	m := NewManager(client, deliveries, zerolog.Nop())
	m.afterFunc = timers.afterFunc
	return m, deliveries, client, timers
}

func seedRecord(t *testing.T, deliveries *store.Memory, recipientID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, deliveries.Activate(ctx, "c1"))
	rec := domain.NewDeliveryRecord("c1", recipientID, domain.MessageHandle{ChannelID: "D1", Timestamp: "1.2"}, time.Now())
	require.NoError(t, deliveries.Create(ctx, rec))
}

func TestDeadlineRetractsUnansweredPrompt(t *testing.T) {
	m, deliveries, client, timers := testManager(t)
	seedRecord(t, deliveries, "U1")

	m.Register("c1", "U1", time.Now().Add(time.Hour))
	timers.fire(0)

	rec, err := deliveries.Get(context.Background(), "c1", "U1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateExpired, rec.State)
	assert.Equal(t, 1, client.deleteCount())
}

func TestDeadlineIsNoOpAfterSubmission(t *testing.T) {
	m, deliveries, client, timers := testManager(t)
	seedRecord(t, deliveries, "U1")
	ctx := context.Background()

	m.Register("c1", "U1", time.Now().Add(time.Hour))

	_, err := deliveries.Update(ctx, "c1", "U1", func(r *domain.DeliveryRecord) error {
		r.State = domain.StateSubmitted
		return nil
	})
	require.NoError(t, err)

	timers.fire(0)

	rec, err := deliveries.Get(ctx, "c1", "U1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateSubmitted, rec.State, "a submitted record is never expired")
	assert.Zero(t, client.deleteCount(), "a submitted prompt is never deleted")
}

func TestDeadlineExpiresAcknowledgedRecord(t *testing.T) {
	m, deliveries, client, timers := testManager(t)
	seedRecord(t, deliveries, "U1")
	ctx := context.Background()

	_, err := deliveries.Update(ctx, "c1", "U1", func(r *domain.DeliveryRecord) error {
		r.State = domain.StateAcknowledged
		return nil
	})
	require.NoError(t, err)

	m.Register("c1", "U1", time.Now().Add(time.Hour))
	timers.fire(0)

	rec, err := deliveries.Get(ctx, "c1", "U1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateExpired, rec.State)
	assert.Equal(t, 1, client.deleteCount())
}

func TestRetractionFailureStillExpires(t *testing.T) {
	m, deliveries, client, timers := testManager(t)
	client.fail = errors.New("message_not_found")
	seedRecord(t, deliveries, "U1")

	m.Register("c1", "U1", time.Now().Add(time.Hour))
	timers.fire(0)

	rec, err := deliveries.Get(context.Background(), "c1", "U1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateExpired, rec.State, "retraction failure must not block expiry")
}

// TestExpireCycleRetractsUnresolvedPrompts covers the supersede path: when a
// new cycle begins inside the old one's response window, every unanswered
// prompt of the old cycle is retracted and its record expired before the
// records are released, while resolved records are left alone.
func TestExpireCycleRetractsUnresolvedPrompts(t *testing.T) {
	m, deliveries, client, timers := testManager(t)
	ctx := context.Background()

	require.NoError(t, deliveries.Activate(ctx, "c1"))
	for _, id := range []string{"U1", "U2"} {
		rec := domain.NewDeliveryRecord("c1", id, domain.MessageHandle{ChannelID: "D-" + id, Timestamp: "1.2"}, time.Now())
		require.NoError(t, deliveries.Create(ctx, rec))
		m.Register("c1", id, time.Now().Add(48*time.Hour))
	}
	_, err := deliveries.Update(ctx, "c1", "U2", func(r *domain.DeliveryRecord) error {
		r.State = domain.StateSubmitted
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, m.ExpireCycle(ctx, "c1"))

	rec, err := deliveries.Get(ctx, "c1", "U1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateExpired, rec.State)
	assert.Equal(t, 1, client.deleteCount(), "only the unanswered prompt is retracted")

	rec, err = deliveries.Get(ctx, "c1", "U2")
	require.NoError(t, err)
	assert.Equal(t, domain.StateSubmitted, rec.State, "a resolved record is left alone")

	// The superseded cycle's deadline timers firing later are no-ops.
	timers.fire(0)
	timers.fire(1)
	assert.Equal(t, 1, client.deleteCount())
}

func TestCancelStopsPendingTimer(t *testing.T) {
	m, deliveries, client, timers := testManager(t)
	seedRecord(t, deliveries, "U1")

	m.Register("c1", "U1", time.Now().Add(time.Hour))
	m.Cancel("c1", "U1")

	// Even if the platform timer had already fired, the re-check rule holds;
	// here the map entry is gone and the callback was never invoked.
	assert.Len(t, timers.callbacks, 1)

	rec, err := deliveries.Get(context.Background(), "c1", "U1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateSent, rec.State)
	assert.Zero(t, client.deleteCount())
}

// TestSubmitExpireRace races a submission against the firing deadline many
// times; every run must end in exactly one terminal state, and a deletion
// must never follow a submission.
func TestSubmitExpireRace(t *testing.T) {
	for i := 0; i < 100; i++ {
		m, deliveries, client, timers := testManager(t)
		seedRecord(t, deliveries, "U1")
		ctx := context.Background()

		m.Register("c1", "U1", time.Now().Add(time.Hour))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			timers.fire(0)
		}()
		go func() {
			defer wg.Done()
			deliveries.Update(ctx, "c1", "U1", func(r *domain.DeliveryRecord) error {
				if !r.State.CanTransition(domain.StateSubmitted) {
					return domain.ErrAlreadyFinalized
				}
				r.State = domain.StateSubmitted
				return nil
			})
		}()
		wg.Wait()

		rec, err := deliveries.Get(ctx, "c1", "U1")
		require.NoError(t, err)
		switch rec.State {
		case domain.StateSubmitted:
			assert.Zero(t, client.deleteCount(), "submitted prompt must not be deleted")
		case domain.StateExpired:
			assert.Equal(t, 1, client.deleteCount())
		default:
			t.Fatalf("record ended in non-terminal state %s", rec.State)
		}
	}
}
