package usecase

import (
	"context"

	"gorm.io/gorm"
	"tango-chat-app/apperror"
	"tango-chat-app/dispatch"
	"tango-chat-app/dto/req"
	"tango-chat-app/dto/res"
	"tango-chat-app/entity"
	"tango-chat-app/enum"
)

type ThreadUsecaseImpl struct {
	*Core
}

func NewThreadUsecase(core *Core) *ThreadUsecaseImpl {
	return &ThreadUsecaseImpl{Core: core}
}

func (uc *ThreadUsecaseImpl) GetChatThreads(ctx context.Context, userID string) ([]res.ChatResponse, error) {
	memberships, err := uc.Memberships.FindThreads(ctx, uc.DB, userID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to load chat threads")
	}

	var singles []string
	for _, membership := range memberships {
		if membership.Room.Type == enum.RoomSingle {
			singles = append(singles, membership.RoomSlug)
		}
	}
	peers, err := uc.Memberships.FindPeers(ctx, uc.DB, singles, userID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to load chat peers")
	}

	lastMessages := make(map[string]*entity.ChatMessage, len(memberships))
	ids := []string{userID}
	for i := range memberships {
		membership := &memberships[i]
		messages, err := uc.Messages.FindVisible(ctx, uc.DB, historyFilter(membership, nil, 1))
		if err != nil {
			return nil, apperror.Internal(err, "failed to load last message")
		}
		if len(messages) > 0 {
			lastMessages[membership.RoomSlug] = &messages[0]
			ids = append(ids, messages[0].SenderID)
		}
		if peer, ok := peers[membership.RoomSlug]; ok {
			ids = append(ids, peer)
		}
	}

	slugs := make([]string, 0, len(lastMessages))
	for _, message := range lastMessages {
		slugs = append(slugs, message.Slug)
	}
	statuses, err := uc.Messages.FindStatuses(ctx, uc.DB, slugs, userID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to load message statuses")
	}
	users := uc.lookupUsers(ctx, ids...)

	threads := make([]res.ChatResponse, 0, len(memberships))
	for i := range memberships {
		membership := &memberships[i]
		var last *res.MessageResponse
		if message, ok := lastMessages[membership.RoomSlug]; ok {
			var status *entity.MessageStatus
			if row, ok := statuses[message.Slug]; ok {
				status = &row
			}
			response := toMessageResponse(message, users, status)
			last = &response
		}
		threads = append(threads, toChatResponse(&membership.Room, membership, peers[membership.RoomSlug], users, last))
	}
	return threads, nil
}

func (uc *ThreadUsecaseImpl) ResetMessageCount(ctx context.Context, userID string, request *req.RoomRequest) (res.ThreadStateResponse, []dispatch.Effect, error) {
	return uc.mutateThread(ctx, userID, request.RoomSlug, request, func(tx *gorm.DB, membership *entity.RoomMembership) error {
		membership.UnreadCount = 0
		if err := uc.Memberships.UpdateFields(ctx, tx, membership.RoomSlug, userID, map[string]any{"unread_count": 0}); err != nil {
			return err
		}
		return uc.Messages.MarkRoomRead(ctx, tx, membership.RoomSlug, userID, uc.now())
	})
}

func (uc *ThreadUsecaseImpl) BlockChatThread(ctx context.Context, userID string, request *req.BlockThreadRequest) (res.ThreadStateResponse, []dispatch.Effect, error) {
	return uc.mutateThread(ctx, userID, request.RoomSlug, request, func(tx *gorm.DB, membership *entity.RoomMembership) error {
		membership.IsBlocked = request.Blocked
		return uc.Memberships.UpdateFields(ctx, tx, membership.RoomSlug, userID, map[string]any{"is_blocked": request.Blocked})
	})
}

// DeleteChatThread hides the thread and cuts the user's history at now. The
// thread comes back with the next message, showing only what follows.
func (uc *ThreadUsecaseImpl) DeleteChatThread(ctx context.Context, userID string, request *req.RoomRequest) (res.ThreadStateResponse, []dispatch.Effect, error) {
	return uc.mutateThread(ctx, userID, request.RoomSlug, request, func(tx *gorm.DB, membership *entity.RoomMembership) error {
		now := uc.now()
		membership.Visible = false
		membership.UnreadCount = 0
		membership.ClearedAt = &now
		return uc.Memberships.UpdateFields(ctx, tx, membership.RoomSlug, userID, map[string]any{
			"visible":      false,
			"unread_count": 0,
			"cleared_at":   now,
		})
	})
}

func (uc *ThreadUsecaseImpl) mutateThread(ctx context.Context, userID, roomSlug string, request any, mutate func(tx *gorm.DB, membership *entity.RoomMembership) error) (res.ThreadStateResponse, []dispatch.Effect, error) {
	if err := uc.validate(request); err != nil {
		return res.ThreadStateResponse{}, nil, err
	}

	unlock := uc.lockRoom(roomSlug)
	defer unlock()

	if _, err := uc.loadRoom(ctx, uc.DB, roomSlug); err != nil {
		return res.ThreadStateResponse{}, nil, err
	}
	membership, err := uc.requireActive(ctx, uc.DB, roomSlug, userID)
	if err != nil {
		return res.ThreadStateResponse{}, nil, err
	}
	err = uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return mutate(tx, membership)
	})
	if err != nil {
		return res.ThreadStateResponse{}, nil, apperror.Internal(err, "failed to update chat thread")
	}

	return res.ThreadStateResponse{
		RoomSlug:    roomSlug,
		UnreadCount: membership.UnreadCount,
		IsBlocked:   membership.IsBlocked,
		Visible:     membership.Visible,
	}, nil, nil
}

func (uc *ThreadUsecaseImpl) ActiveRoomSlugs(ctx context.Context, userID string) ([]string, error) {
	slugs, err := uc.Memberships.ActiveRoomSlugs(ctx, uc.DB, userID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to load rooms")
	}
	return slugs, nil
}
