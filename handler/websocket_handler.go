package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/gofiber/contrib/websocket"
	"github.com/sirupsen/logrus"
	"tango-chat-app/apperror"
	"tango-chat-app/cache"
	"tango-chat-app/config/logger"
	"tango-chat-app/dispatch"
	"tango-chat-app/dto"
	"tango-chat-app/dto/req"
	"tango-chat-app/usecase"
)

type actionFunc func(ctx context.Context, userID string, data json.RawMessage) (any, []dispatch.Effect, error)

type route struct {
	run actionFunc
	// mutating actions are claimed once per requestId.
	mutating bool
	limited  bool
}

type WebSocketHandler struct {
	usecase.RoomUsecase
	usecase.MembershipUsecase
	usecase.MessageUsecase
	usecase.ThreadUsecase
	Registry   *dispatch.Registry
	Dispatcher *dispatch.Dispatcher
	Guard      *cache.Guard
	Logger     *logrus.Logger
	AppLog     *logger.AppLogger

	routes map[string]route
}

func NewWebSocketHandler(
	rooms usecase.RoomUsecase,
	memberships usecase.MembershipUsecase,
	messages usecase.MessageUsecase,
	threads usecase.ThreadUsecase,
	registry *dispatch.Registry,
	dispatcher *dispatch.Dispatcher,
	guard *cache.Guard,
	log *logrus.Logger,
	appLog *logger.AppLogger,
) *WebSocketHandler {
	handler := &WebSocketHandler{
		RoomUsecase:       rooms,
		MembershipUsecase: memberships,
		MessageUsecase:    messages,
		ThreadUsecase:     threads,
		Registry:          registry,
		Dispatcher:        dispatcher,
		Guard:             guard,
		Logger:            log,
		AppLog:            appLog,
	}
	handler.routes = map[string]route{
		dto.ActionGetChatThreads: {run: func(ctx context.Context, userID string, _ json.RawMessage) (any, []dispatch.Effect, error) {
			list, err := threads.GetChatThreads(ctx, userID)
			return list, nil, err
		}},
		dto.ActionGetMessages:       {run: query(messages.GetMessages)},
		dto.ActionSendMessage:       {run: command(messages.SendMessage), mutating: true, limited: true},
		dto.ActionCreateGroup:       {run: command(rooms.CreateGroup), mutating: true},
		dto.ActionUpdateGroup:       {run: command(memberships.UpdateGroup), mutating: true},
		dto.ActionDeleteGroup:       {run: command(memberships.DeleteGroup), mutating: true},
		dto.ActionAddMember:         {run: command(memberships.AddMembers), mutating: true},
		dto.ActionRemoveMember:      {run: command(memberships.RemoveMembers), mutating: true},
		dto.ActionLeaveGroup:        {run: command(memberships.LeaveGroup), mutating: true},
		dto.ActionPromoteMember:     {run: command(memberships.PromoteMember), mutating: true},
		dto.ActionDemoteMember:      {run: command(memberships.DemoteMember), mutating: true},
		dto.ActionDeleteChatMessage: {run: command(messages.DeleteMessage), mutating: true},
		dto.ActionResetMessageCount: {run: command(threads.ResetMessageCount), mutating: true},
		dto.ActionBlockChatThread:   {run: command(threads.BlockChatThread), mutating: true},
		dto.ActionDeleteChatThread:  {run: command(threads.DeleteChatThread), mutating: true},
	}
	return handler
}

func command[T, R any](fn func(context.Context, string, *T) (R, []dispatch.Effect, error)) actionFunc {
	return func(ctx context.Context, userID string, data json.RawMessage) (any, []dispatch.Effect, error) {
		request, err := decode[T](data)
		if err != nil {
			return nil, nil, err
		}
		return fn(ctx, userID, request)
	}
}

func query[T, R any](fn func(context.Context, string, *T) (R, error)) actionFunc {
	return func(ctx context.Context, userID string, data json.RawMessage) (any, []dispatch.Effect, error) {
		request, err := decode[T](data)
		if err != nil {
			return nil, nil, err
		}
		result, err := fn(ctx, userID, request)
		return result, nil, err
	}
}

func decode[T any](data json.RawMessage) (*T, error) {
	request := new(T)
	if len(data) == 0 || string(data) == "null" {
		return request, nil
	}
	if err := json.Unmarshal(data, request); err != nil {
		return nil, apperror.Validation("malformed data: %v", err)
	}
	return request, nil
}

func (handler *WebSocketHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	ctx := context.Background()

	client := NewClient(userID, conn)
	go client.WritePump(func(err error) {
		handler.AppLog.WS.Warning.Warn().Err(err).Str("user_id", userID).Msg("websocket write failed")
	})

	handler.Registry.Register(userID, client)
	defer func() {
		handler.Registry.Deregister(userID, client)
		client.Close()
		handler.AppLog.WS.Info.Info().Str("user_id", userID).Msg("websocket disconnected")
	}()

	slugs, err := handler.ThreadUsecase.ActiveRoomSlugs(ctx, userID)
	if err != nil {
		handler.Logger.WithError(err).Errorf("Failed to load rooms for user %s", userID)
	}
	for _, slug := range slugs {
		handler.Registry.JoinRoom(userID, slug)
	}
	handler.AppLog.WS.Info.Info().Str("user_id", userID).Int("rooms", len(slugs)).Msg("websocket connected")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				handler.Logger.Warnf("Read error for user %s: %v", userID, err)
			}
			return
		}
		handler.Process(ctx, userID, client, raw)
	}
}

// Process runs one inbound frame. The requester gets exactly one reply and
// the effects of a successful action are flushed after it.
func (handler *WebSocketHandler) Process(ctx context.Context, userID string, reply dispatch.Sink, raw []byte) {
	var frame req.InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Action == "" {
		handler.replyError(userID, reply, dto.EventError, frame.RequestID, apperror.Validation("malformed frame"))
		return
	}

	handler.AppLog.WS.Stream.Info().
		Str("user_id", userID).
		Str("action", frame.Action).
		Str("requestId", frame.RequestID).
		Int("bytes", len(raw)).
		Msg("frame")

	r, ok := handler.routes[frame.Action]
	if !ok {
		handler.replyError(userID, reply, dto.EventError, frame.RequestID, apperror.Validation("unknown action %q", frame.Action))
		return
	}

	if r.limited {
		allowed, count, err := handler.Guard.Allow(ctx, frame.Action+":"+userID)
		if err != nil {
			handler.Logger.WithError(err).Warn("Rate limiter unavailable")
		} else if !allowed {
			handler.Logger.Warnf("User %s rate limited on %s (count=%d)", userID, frame.Action, count)
			handler.replyError(userID, reply, frame.Action, frame.RequestID, apperror.PermissionDenied("rate limit exceeded"))
			return
		}
	}
	if r.mutating {
		first, err := handler.Guard.Claim(ctx, userID, frame.RequestID)
		if err != nil {
			handler.Logger.WithError(err).Warn("Idempotency store unavailable")
		} else if !first {
			handler.replyError(userID, reply, frame.Action, frame.RequestID, apperror.Validation("duplicate request"))
			return
		}
	}

	result, effects, err := handler.run(ctx, r, userID, frame)
	if err != nil {
		if r.mutating {
			if releaseErr := handler.Guard.Release(ctx, userID, frame.RequestID); releaseErr != nil {
				handler.Logger.WithError(releaseErr).Warn("Failed to release request id")
			}
		}
		handler.replyError(userID, reply, frame.Action, frame.RequestID, err)
		return
	}

	// The action committed, so listeners get its effects even when the
	// requester's own connection could not take the reply.
	handler.deliver(userID, reply, dto.Envelope{Event: frame.Action, RequestID: frame.RequestID, Data: result})
	handler.Dispatcher.Flush(ctx, effects)
}

// run turns a panicking action into an internal error for the requester.
func (handler *WebSocketHandler) run(ctx context.Context, r route, userID string, frame req.InboundFrame) (result any, effects []dispatch.Effect, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			handler.Logger.WithField("stack", string(debug.Stack())).Errorf("Action %s panicked: %v", frame.Action, recovered)
			result, effects = nil, nil
			err = apperror.Internal(fmt.Errorf("panic: %v", recovered), "action panicked")
		}
	}()
	return r.run(ctx, userID, frame.Data)
}

// deliver queues a reply on the requester's connection. A connection that
// cannot take its own reply is dropped the same way the dispatcher drops
// slow listeners.
func (handler *WebSocketHandler) deliver(userID string, reply dispatch.Sink, envelope dto.Envelope) {
	if reply.Send(envelope) {
		return
	}
	handler.AppLog.WS.Warning.Warn().
		Str("user_id", userID).
		Str("event", envelope.Event).
		Str("requestId", envelope.RequestID).
		Msg("dropping client that cannot take its reply")
	handler.Registry.Deregister(userID, reply)
	reply.Close()
}

func (handler *WebSocketHandler) replyError(userID string, reply dispatch.Sink, action, requestID string, err error) {
	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		handler.Logger.WithError(err).Errorf("Action %s failed", action)
	}
	handler.deliver(userID, reply, dto.Envelope{
		Event:     dto.EventError,
		RequestID: requestID,
		Data:      map[string]string{"action": action},
		Error: &dto.ErrorPayload{
			Kind:    string(kind),
			Message: apperror.PublicMessage(err),
		},
	})
}
