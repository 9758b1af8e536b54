package usecase

import (
	"context"

	"gorm.io/gorm"
	"tango-chat-app/apperror"
	"tango-chat-app/dispatch"
	"tango-chat-app/dto"
	"tango-chat-app/dto/req"
	"tango-chat-app/dto/res"
	"tango-chat-app/entity"
	"tango-chat-app/enum"
)

type RoomUsecaseImpl struct {
	*Core
}

func NewRoomUsecase(core *Core) *RoomUsecaseImpl {
	return &RoomUsecaseImpl{Core: core}
}

func (uc *RoomUsecaseImpl) FindOrCreateDirectRoom(ctx context.Context, userAID, userBID string) (*entity.ChatRoom, bool, error) {
	if userAID == "" || userBID == "" {
		return nil, false, apperror.Validation("both participants are required")
	}
	if userAID == userBID {
		return nil, false, apperror.Validation("cannot open a conversation with yourself")
	}
	if err := uc.requireUsers(ctx, []string{userBID}); err != nil {
		return nil, false, err
	}

	pairKey := entity.DirectPairKey(userAID, userBID)
	unlock := uc.lockPair(pairKey)
	defer unlock()

	existing, err := uc.Rooms.FindByPairKey(ctx, uc.DB, pairKey)
	if err != nil {
		return nil, false, apperror.Internal(err, "failed to look up direct room")
	}
	if existing != nil {
		return existing, false, nil
	}

	var room *entity.ChatRoom
	created := false
	err = uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := uc.now()
		candidate := &entity.ChatRoom{
			Type:                 enum.RoomSingle,
			CreatedBy:            userAID,
			CanMemberSendMessage: true,
			LastMessageAt:        now,
			PairKey:              &pairKey,
		}
		inserted, err := uc.Rooms.CreateIfAbsent(ctx, tx, candidate)
		if err != nil {
			return err
		}
		if !inserted {
			// Another writer won the unique pair key; use its room.
			winner, err := uc.Rooms.FindByPairKey(ctx, tx, pairKey)
			if err != nil {
				return err
			}
			if winner == nil {
				return gorm.ErrRecordNotFound
			}
			room = winner
			return nil
		}

		memberships := []entity.RoomMembership{
			{RoomSlug: candidate.Slug, UserID: userAID, Visible: true, LastMessageAt: now},
			{RoomSlug: candidate.Slug, UserID: userBID, Visible: true, LastMessageAt: now},
		}
		if err := uc.Memberships.SaveAll(ctx, tx, &memberships); err != nil {
			return err
		}
		room = candidate
		created = true
		return nil
	})
	if err != nil {
		return nil, false, apperror.Internal(err, "failed to create direct room")
	}

	if created {
		uc.Log.Infof("Created direct room %s for %s and %s", room.Slug, userAID, userBID)
	}
	return room, created, nil
}

func (uc *RoomUsecaseImpl) FindGroupRoom(ctx context.Context, slug string) (*entity.ChatRoom, error) {
	return uc.loadGroup(ctx, uc.DB, slug)
}

func (uc *RoomUsecaseImpl) CreateGroup(ctx context.Context, actorID string, request *req.CreateGroupRequest) (res.GroupResponse, []dispatch.Effect, error) {
	if err := uc.validate(request); err != nil {
		return res.GroupResponse{}, nil, err
	}

	memberIDs := make([]string, 0, len(request.MemberIDs))
	for _, id := range uniqueStrings(request.MemberIDs) {
		if id != actorID {
			memberIDs = append(memberIDs, id)
		}
	}
	if err := uc.requireUsers(ctx, memberIDs); err != nil {
		return res.GroupResponse{}, nil, err
	}

	canSend := true
	if request.CanMemberSendMessage != nil {
		canSend = *request.CanMemberSendMessage
	}
	room := &entity.ChatRoom{
		Type:                 enum.RoomGroup,
		Name:                 request.Name,
		Icon:                 request.Icon,
		CanMemberAddMember:   request.CanMemberAddMember,
		CanMemberSendMessage: canSend,
		CreatedBy:            actorID,
	}

	var memberships []entity.RoomMembership
	badge := uc.newBadge(actorID, "", enum.BadgeCreateGroup)
	err := uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := uc.now()
		room.LastMessageAt = now
		if err := uc.Rooms.Save(ctx, tx, room); err != nil {
			return err
		}

		memberships = append(memberships, entity.RoomMembership{
			RoomSlug: room.Slug, UserID: actorID, IsOwner: true, Visible: true, LastMessageAt: now,
		})
		for _, id := range memberIDs {
			memberships = append(memberships, entity.RoomMembership{
				RoomSlug: room.Slug, UserID: id, Visible: true, LastMessageAt: now,
			})
		}
		if err := uc.Memberships.SaveAll(ctx, tx, &memberships); err != nil {
			return err
		}
		return uc.persistMessage(ctx, tx, room, badge, false)
	})
	if err != nil {
		return res.GroupResponse{}, nil, apperror.Internal(err, "failed to create group")
	}

	uc.Log.Infof("User %s created group %s with %d members", actorID, room.Slug, len(memberships))

	users := uc.lookupUsers(ctx, actorID)
	last := toMessageResponse(badge, users, nil)
	effects := make([]dispatch.Effect, 0, 2*len(memberships))
	for i := range memberships {
		membership := &memberships[i]
		membership.LastMessageAt = room.LastMessageAt
		thread := toChatResponse(room, membership, "", users, &last)
		effects = append(effects,
			dispatch.Join(membership.UserID, room.Slug),
			dispatch.Emit(dispatch.User(membership.UserID), dto.EventNewChatThread, thread),
		)
	}
	return toGroupResponse(room), effects, nil
}
