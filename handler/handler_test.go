package handler

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"tango-chat-app/cache"
	"tango-chat-app/config/logger"
	"tango-chat-app/dispatch"
	"tango-chat-app/dto"
	"tango-chat-app/repository"
	"tango-chat-app/testhelper"
	"tango-chat-app/usecase"
)

type recordingSink struct {
	mu     sync.Mutex
	userID string
	frames []dto.Envelope
	// full makes Send refuse every frame.
	full   bool
	closed bool
}

func (s *recordingSink) UserID() string { return s.userID }

func (s *recordingSink) Send(envelope dto.Envelope) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full || s.closed {
		return false
	}
	s.frames = append(s.frames, envelope)
	return true
}

func (s *recordingSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *recordingSink) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *recordingSink) events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]string, 0, len(s.frames))
	for _, frame := range s.frames {
		events = append(events, frame.Event)
	}
	return events
}

func (s *recordingSink) last() dto.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames[len(s.frames)-1]
}

type stack struct {
	ws          *WebSocketHandler
	chat        *ChatHandler
	registry    *dispatch.Registry
	dispatcher  *dispatch.Dispatcher
	threads     usecase.ThreadUsecase
	messages    usecase.MessageUsecase
	memberships usecase.MembershipUsecase
}

func newStack(t *testing.T, rateLimit int64, users ...string) *stack {
	t.Helper()

	db := testhelper.NewDB(t)
	testhelper.SeedUsers(t, db, users...)

	log := logrus.New()
	log.SetOutput(io.Discard)

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	guard := cache.NewGuard(client, time.Minute, rateLimit, time.Minute)

	core := usecase.NewCore(db, repository.NewUserRepository(db), validator.New(validator.WithRequiredStructEnabled()), log)
	rooms := usecase.NewRoomUsecase(core)
	memberships := usecase.NewMembershipUsecase(core)
	messages := usecase.NewMessageUsecase(core, rooms)
	threads := usecase.NewThreadUsecase(core)

	registry := dispatch.NewRegistry()
	appLog := logger.NewNopLogger()
	dispatcher := dispatch.NewDispatcher(registry, nil, appLog)

	return &stack{
		ws:          NewWebSocketHandler(rooms, memberships, messages, threads, registry, dispatcher, guard, log, appLog),
		chat:        NewChatHandler(threads, messages, memberships, log),
		registry:    registry,
		dispatcher:  dispatcher,
		threads:     threads,
		messages:    messages,
		memberships: memberships,
	}
}

// connect registers a recording session the way HandleWebSocket does.
func (s *stack) connect(t *testing.T, userID string) *recordingSink {
	t.Helper()
	sink := &recordingSink{userID: userID}
	s.registry.Register(userID, sink)
	slugs, err := s.threads.ActiveRoomSlugs(context.Background(), userID)
	require.NoError(t, err)
	for _, slug := range slugs {
		s.registry.JoinRoom(userID, slug)
	}
	return sink
}

func frame(t *testing.T, action, requestID string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"action": action, "requestId": requestID, "data": data})
	require.NoError(t, err)
	return raw
}
