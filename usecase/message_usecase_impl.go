package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"tango-chat-app/apperror"
	"tango-chat-app/dispatch"
	"tango-chat-app/dto"
	"tango-chat-app/dto/req"
	"tango-chat-app/dto/res"
	"tango-chat-app/entity"
	"tango-chat-app/enum"
	"tango-chat-app/notification"
	"tango-chat-app/repository"
)

const previewLength = 120

type MessageUsecaseImpl struct {
	*Core
	Resolver RoomUsecase
}

func NewMessageUsecase(core *Core, resolver RoomUsecase) *MessageUsecaseImpl {
	return &MessageUsecaseImpl{Core: core, Resolver: resolver}
}

func (uc *MessageUsecaseImpl) SendMessage(ctx context.Context, senderID string, request *req.SendMessageRequest) (res.SendMessageResponse, []dispatch.Effect, error) {
	if err := uc.validate(request); err != nil {
		return res.SendMessageResponse{}, nil, err
	}
	if request.MessageType == "" {
		request.MessageType = enum.MessageText
	}
	switch request.MessageType {
	case enum.MessageText:
		if strings.TrimSpace(request.Body) == "" {
			return res.SendMessageResponse{}, nil, apperror.Validation("message body is required")
		}
	case enum.MessageFile:
		if request.FileURL == "" {
			return res.SendMessageResponse{}, nil, apperror.Validation("fileUrl is required for file messages")
		}
	}

	roomSlug := request.RoomSlug
	created := false
	if roomSlug == "" {
		room, isNew, err := uc.Resolver.FindOrCreateDirectRoom(ctx, senderID, request.ReceiverID)
		if err != nil {
			return res.SendMessageResponse{}, nil, err
		}
		roomSlug, created = room.Slug, isNew
	}

	unlock := uc.lockRoom(roomSlug)
	defer unlock()

	room, err := uc.loadRoom(ctx, uc.DB, roomSlug)
	if err != nil {
		return res.SendMessageResponse{}, nil, err
	}
	members, err := uc.Memberships.FindActiveByRoom(ctx, uc.DB, room.Slug)
	if err != nil {
		return res.SendMessageResponse{}, nil, apperror.Internal(err, "failed to load members")
	}
	var sender *entity.RoomMembership
	for i := range members {
		if members[i].UserID == senderID {
			sender = &members[i]
		}
	}
	if sender == nil {
		return res.SendMessageResponse{}, nil, apperror.PermissionDenied("you are not an active member of this room")
	}
	if err := checkCanSend(room, sender, members); err != nil {
		return res.SendMessageResponse{}, nil, err
	}

	message := &entity.ChatMessage{
		SenderID:    senderID,
		MessageType: request.MessageType,
		Body:        request.Body,
		FileURL:     request.FileURL,
		FileName:    request.FileName,
		FileSize:    request.FileSize,
		MimeType:    request.MimeType,
	}
	err = uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return uc.persistMessage(ctx, tx, room, message, true)
	})
	if err != nil {
		return res.SendMessageResponse{}, nil, apperror.Internal(err, "failed to send message")
	}

	ids := make([]string, 0, len(members))
	recipients := make([]string, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.UserID)
		if member.UserID != senderID {
			recipients = append(recipients, member.UserID)
		}
	}
	users := uc.lookupUsers(ctx, ids...)
	response := toMessageResponse(message, users, &entity.MessageStatus{Status: enum.MessageStatusRead})
	broadcast := toMessageResponse(message, users, nil)

	var effects []dispatch.Effect
	if created {
		effects, err = uc.newThreadEffects(ctx, room, users, &broadcast)
		if err != nil {
			return res.SendMessageResponse{}, nil, err
		}
	} else {
		// A crossed first message or an earlier failed send can leave a
		// direct room nobody is subscribed to yet.
		if !room.IsGroup() {
			for _, member := range members {
				effects = append(effects, dispatch.Join(member.UserID, room.Slug))
			}
		}
		effects = append(effects, dispatch.Emit(dispatch.Room(room.Slug), dto.EventMessageReceived, broadcast))
	}
	if len(recipients) > 0 {
		effects = append(effects, dispatch.Notify(notification.NewMessage{
			MessageSlug:  message.Slug,
			RoomSlug:     room.Slug,
			RoomName:     room.Name,
			SenderID:     senderID,
			SenderName:   users[senderID].Name,
			Preview:      preview(message),
			RecipientIDs: recipients,
			CreatedAt:    message.CreatedAt,
		}))
	}

	return res.SendMessageResponse{Message: response, NewThread: created}, effects, nil
}

// checkCanSend applies the per-room send rules. Single rooms only refuse
// when one side blocked the thread.
func checkCanSend(room *entity.ChatRoom, sender *entity.RoomMembership, members []entity.RoomMembership) error {
	if room.IsGroup() {
		if !room.CanMemberSendMessage && !sender.IsAdmin() {
			return apperror.PermissionDenied("only admins can send messages in this group")
		}
		return nil
	}
	for _, member := range members {
		if member.IsBlocked {
			return apperror.PermissionDenied("this conversation is blocked")
		}
	}
	return nil
}

// newThreadEffects subscribes both participants of a fresh direct room and
// sends each of them the thread as they see it.
func (uc *MessageUsecaseImpl) newThreadEffects(ctx context.Context, room *entity.ChatRoom, users map[string]entity.User, last *res.MessageResponse) ([]dispatch.Effect, error) {
	memberships, err := uc.Memberships.FindActiveByRoom(ctx, uc.DB, room.Slug)
	if err != nil {
		return nil, apperror.Internal(err, "failed to load members")
	}
	effects := make([]dispatch.Effect, 0, 2*len(memberships))
	for i := range memberships {
		membership := &memberships[i]
		peerID := ""
		for _, other := range memberships {
			if other.UserID != membership.UserID {
				peerID = other.UserID
			}
		}
		effects = append(effects,
			dispatch.Join(membership.UserID, room.Slug),
			dispatch.Emit(dispatch.User(membership.UserID), dto.EventNewChatThread, toChatResponse(room, membership, peerID, users, last)),
		)
	}
	return effects, nil
}

func preview(message *entity.ChatMessage) string {
	if message.MessageType == enum.MessageFile {
		if message.FileName != "" {
			return message.FileName
		}
		return "file"
	}
	body := []rune(message.Body)
	if len(body) > previewLength {
		return string(body[:previewLength])
	}
	return message.Body
}

func (uc *MessageUsecaseImpl) DeleteMessage(ctx context.Context, actorID string, request *req.DeleteMessageRequest) (res.DeleteMessageResponse, []dispatch.Effect, error) {
	if err := uc.validate(request); err != nil {
		return res.DeleteMessageResponse{}, nil, err
	}

	message, err := uc.loadMessage(ctx, request.MessageSlug)
	if err != nil {
		return res.DeleteMessageResponse{}, nil, err
	}

	unlock := uc.lockRoom(message.RoomSlug)
	defer unlock()

	response := res.DeleteMessageResponse{
		MessageSlug: message.Slug,
		RoomSlug:    message.RoomSlug,
		Scope:       string(request.Scope),
	}

	if request.Scope == enum.DeleteForMe {
		status, err := uc.Messages.FindStatus(ctx, uc.DB, message.Slug, actorID)
		if err != nil {
			return res.DeleteMessageResponse{}, nil, apperror.Internal(err, "failed to load message status")
		}
		if status == nil {
			return res.DeleteMessageResponse{}, nil, apperror.NotFound("message %s not found", message.Slug)
		}
		if status.IsDeleted {
			return response, nil, nil
		}
		if err := uc.Messages.MarkDeletedForMe(ctx, uc.DB, message.Slug, actorID); err != nil {
			return res.DeleteMessageResponse{}, nil, apperror.Internal(err, "failed to delete message")
		}
		return response, []dispatch.Effect{
			dispatch.Emit(dispatch.User(actorID), dto.EventMessageDeleted, response),
		}, nil
	}

	if message.SenderID != actorID {
		return res.DeleteMessageResponse{}, nil, apperror.PermissionDenied("only the sender can delete a message for everyone")
	}
	if message.MessageType == enum.MessageBadge {
		return res.DeleteMessageResponse{}, nil, apperror.Validation("system messages cannot be deleted")
	}
	if message.IsDeletedForEveryone {
		return response, nil, nil
	}
	if err := uc.Messages.MarkDeletedForEveryone(ctx, uc.DB, message.Slug, uc.now()); err != nil {
		return res.DeleteMessageResponse{}, nil, apperror.Internal(err, "failed to delete message")
	}

	uc.Log.Infof("User %s deleted message %s for everyone", actorID, message.Slug)
	return response, []dispatch.Effect{
		dispatch.Emit(dispatch.Room(message.RoomSlug), dto.EventMessageDeleted, response),
	}, nil
}

func (uc *MessageUsecaseImpl) loadMessage(ctx context.Context, slug string) (*entity.ChatMessage, error) {
	var message entity.ChatMessage
	err := uc.Messages.FindBySlug(ctx, uc.DB, &message, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("message %s not found", slug)
	}
	if err != nil {
		return nil, apperror.Internal(err, "failed to load message")
	}
	return &message, nil
}

// GetMessages pages backwards through a room, newest first. Former members
// keep read access to what was sent while they belonged to the room.
func (uc *MessageUsecaseImpl) GetMessages(ctx context.Context, userID string, request *req.GetMessagesRequest) ([]res.MessageResponse, error) {
	if err := uc.validate(request); err != nil {
		return nil, err
	}
	if _, err := uc.loadRoom(ctx, uc.DB, request.RoomSlug); err != nil {
		return nil, err
	}
	membership, err := uc.loadMembership(ctx, uc.DB, request.RoomSlug, userID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, apperror.PermissionDenied("you are not a member of this room")
	}

	limit := request.Limit
	if limit <= 0 {
		limit = uc.PageSize
	}
	messages, err := uc.Messages.FindVisible(ctx, uc.DB, historyFilter(membership, request.Before, limit))
	if err != nil {
		return nil, apperror.Internal(err, "failed to load messages")
	}
	return uc.toMessageResponses(ctx, messages, userID)
}

// historyFilter bounds what membership may read: nothing before the thread
// was cleared, nothing after the member left or was removed.
func historyFilter(membership *entity.RoomMembership, before *time.Time, limit int) repository.MessageFilter {
	filter := repository.MessageFilter{
		RoomSlug: membership.RoomSlug,
		UserID:   membership.UserID,
		After:    membership.ClearedAt,
		Before:   before,
		Limit:    limit,
	}
	if !membership.IsActive() {
		cutoff := membership.LastMessageAt.Add(time.Microsecond)
		if filter.Before == nil || cutoff.Before(*filter.Before) {
			filter.Before = &cutoff
		}
	}
	return filter
}

func (uc *MessageUsecaseImpl) toMessageResponses(ctx context.Context, messages []entity.ChatMessage, userID string) ([]res.MessageResponse, error) {
	slugs := make([]string, 0, len(messages))
	ids := make([]string, 0, len(messages))
	for _, message := range messages {
		slugs = append(slugs, message.Slug)
		ids = append(ids, message.SenderID)
	}
	statuses, err := uc.Messages.FindStatuses(ctx, uc.DB, slugs, userID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to load message statuses")
	}
	users := uc.lookupUsers(ctx, ids...)

	responses := make([]res.MessageResponse, 0, len(messages))
	for i := range messages {
		var status *entity.MessageStatus
		if row, ok := statuses[messages[i].Slug]; ok {
			status = &row
		}
		responses = append(responses, toMessageResponse(&messages[i], users, status))
	}
	return responses, nil
}
