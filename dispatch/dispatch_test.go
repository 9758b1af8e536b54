package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tango-chat-app/config/logger"
	"tango-chat-app/dto"
	"tango-chat-app/notification"
)

type fakeSink struct {
	mu       sync.Mutex
	userID   string
	capacity int
	frames   []dto.Envelope
	closed   bool
}

func newSink(userID string) *fakeSink {
	return &fakeSink{userID: userID, capacity: 100}
}

func (s *fakeSink) UserID() string { return s.userID }

func (s *fakeSink) Send(envelope dto.Envelope) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || len(s.frames) >= s.capacity {
		return false
	}
	s.frames = append(s.frames, envelope)
	return true
}

func (s *fakeSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSink) events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]string, 0, len(s.frames))
	for _, frame := range s.frames {
		events = append(events, frame.Event)
	}
	return events
}

type fakeNotifier struct {
	sent []notification.NewMessage
	err  error
}

func (n *fakeNotifier) NotifyNewMessage(_ context.Context, message notification.NewMessage) error {
	n.sent = append(n.sent, message)
	return n.err
}

func (n *fakeNotifier) Close() error { return nil }

func TestRegistry_RoomSubscriptionsFollowSessions(t *testing.T) {
	registry := NewRegistry()
	phone, laptop := newSink("alice"), newSink("alice")

	registry.JoinRoom("alice", "r1")
	assert.False(t, registry.IsInRoom("alice", "r1"), "offline users are not subscribed")

	registry.Register("alice", phone)
	registry.Register("alice", laptop)
	registry.JoinRoom("alice", "r1")
	assert.Len(t, registry.Sinks(Room("r1")), 2)
	assert.Len(t, registry.Sinks(User("alice")), 2)
	assert.Equal(t, 2, registry.SessionCount())

	assert.True(t, registry.Deregister("alice", phone))
	assert.True(t, registry.IsInRoom("alice", "r1"))

	assert.True(t, registry.Deregister("alice", laptop))
	assert.False(t, registry.IsOnline("alice"))
	assert.False(t, registry.IsInRoom("alice", "r1"))
	assert.False(t, registry.Deregister("alice", laptop))
}

func TestRegistry_LeaveRoom(t *testing.T) {
	registry := NewRegistry()
	registry.Register("alice", newSink("alice"))
	registry.JoinRoom("alice", "r1")
	registry.JoinRoom("alice", "r2")

	registry.LeaveRoom("alice", "r1")
	assert.False(t, registry.IsInRoom("alice", "r1"))
	assert.True(t, registry.IsInRoom("alice", "r2"))
	assert.Empty(t, registry.Sinks(Room("r1")))
}

func TestDispatcher_FlushAppliesEffectsInOrder(t *testing.T) {
	registry := NewRegistry()
	alice, bob := newSink("alice"), newSink("bob")
	registry.Register("alice", alice)
	registry.Register("bob", bob)
	registry.JoinRoom("alice", "r1")

	dispatcher := NewDispatcher(registry, nil, logger.NewNopLogger())
	dispatcher.Flush(context.Background(), []Effect{
		Emit(Room("r1"), "first", nil),
		Join("bob", "r1"),
		Emit(Room("r1"), "second", nil),
		Emit(User("bob"), "personal", nil),
		Leave("alice", "r1"),
		Emit(Room("r1"), "third", nil),
	})

	assert.Equal(t, []string{"first", "second"}, alice.events())
	assert.Equal(t, []string{"second", "personal", "third"}, bob.events())
	assert.Equal(t, "room_r1", bob.frames[0].Channel)
	assert.Equal(t, "user_bob", bob.frames[1].Channel)
}

func TestDispatcher_DropsSlowSink(t *testing.T) {
	registry := NewRegistry()
	slow := newSink("alice")
	slow.capacity = 1
	registry.Register("alice", slow)

	dispatcher := NewDispatcher(registry, nil, logger.NewNopLogger())
	dispatcher.Flush(context.Background(), []Effect{
		Emit(User("alice"), "one", nil),
		Emit(User("alice"), "two", nil),
	})

	assert.True(t, slow.closed)
	assert.False(t, registry.IsOnline("alice"))
	assert.Equal(t, []string{"one"}, slow.events())
}

func TestDispatcher_NotifiesOnlyOfflineRecipients(t *testing.T) {
	registry := NewRegistry()
	registry.Register("bob", newSink("bob"))
	notifier := &fakeNotifier{}

	dispatcher := NewDispatcher(registry, notifier, logger.NewNopLogger())
	dispatcher.Flush(context.Background(), []Effect{
		Notify(notification.NewMessage{RoomSlug: "r1", RecipientIDs: []string{"bob", "carol"}}),
		Notify(notification.NewMessage{RoomSlug: "r1", RecipientIDs: []string{"bob"}}),
	})

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, []string{"carol"}, notifier.sent[0].RecipientIDs)
}

func TestDispatcher_NotifierErrorDoesNotStopFlush(t *testing.T) {
	registry := NewRegistry()
	alice := newSink("alice")
	registry.Register("alice", alice)

	dispatcher := NewDispatcher(registry, &fakeNotifier{err: errors.New("broker down")}, logger.NewNopLogger())
	dispatcher.Flush(context.Background(), []Effect{
		Notify(notification.NewMessage{RecipientIDs: []string{"carol"}}),
		Emit(User("alice"), "after", nil),
	})

	assert.Equal(t, []string{"after"}, alice.events())
}

func TestAudienceChannel(t *testing.T) {
	assert.Equal(t, "room_abc", Room("abc").Channel())
	assert.Equal(t, "user_42", User("42").Channel())
	assert.Equal(t, "notify", OpNotify.String())
}
