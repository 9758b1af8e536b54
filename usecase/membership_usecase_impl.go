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

type MembershipUsecaseImpl struct {
	*Core
}

func NewMembershipUsecase(core *Core) *MembershipUsecaseImpl {
	return &MembershipUsecaseImpl{Core: core}
}

type removedGroupPayload struct {
	RoomSlug string `json:"roomSlug"`
	ByUserID string `json:"byUserId"`
}

func (uc *MembershipUsecaseImpl) AddMembers(ctx context.Context, actorID string, request *req.MembersRequest) (res.MemberChangeResponse, []dispatch.Effect, error) {
	if err := uc.validate(request); err != nil {
		return res.MemberChangeResponse{}, nil, err
	}

	unlock := uc.lockRoom(request.RoomSlug)
	defer unlock()

	room, err := uc.loadGroup(ctx, uc.DB, request.RoomSlug)
	if err != nil {
		return res.MemberChangeResponse{}, nil, err
	}
	actor, err := uc.requireActive(ctx, uc.DB, room.Slug, actorID)
	if err != nil {
		return res.MemberChangeResponse{}, nil, err
	}
	if !room.CanMemberAddMember && !actor.IsAdmin() {
		return res.MemberChangeResponse{}, nil, apperror.PermissionDenied("only admins can add members to this group")
	}

	targets := make([]string, 0, len(request.UserIDs))
	for _, id := range uniqueStrings(request.UserIDs) {
		if id != actorID {
			targets = append(targets, id)
		}
	}
	if err := uc.requireUsers(ctx, targets); err != nil {
		return res.MemberChangeResponse{}, nil, err
	}

	var added []*entity.RoomMembership
	var badges []*entity.ChatMessage
	err = uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := uc.Memberships.FindByUsers(ctx, tx, room.Slug, targets)
		if err != nil {
			return err
		}
		for _, target := range targets {
			membership := existing[target]
			next, ok := NextMembershipState(membership.State(), enum.MembershipAdd)
			if !ok {
				continue
			}

			if membership == nil {
				membership = &entity.RoomMembership{RoomSlug: room.Slug, UserID: target, Visible: true}
				membership.SetState(next)
				if err := uc.Memberships.Save(ctx, tx, membership); err != nil {
					return err
				}
			} else {
				// Re-invitation reuses the row that leaving or kicking left behind.
				membership.SetState(next)
				membership.Visible = true
				membership.UnreadCount = 0
				if err := uc.Memberships.Update(ctx, tx, membership); err != nil {
					return err
				}
			}

			badge := uc.newBadge(actorID, target, enum.BadgeAddMember)
			if err := uc.persistMessage(ctx, tx, room, badge, false); err != nil {
				return err
			}
			membership.LastMessageAt = badge.CreatedAt
			added = append(added, membership)
			badges = append(badges, badge)
		}
		return nil
	})
	if err != nil {
		return res.MemberChangeResponse{}, nil, apperror.Internal(err, "failed to add members")
	}

	response := res.MemberChangeResponse{RoomSlug: room.Slug, UserIDs: make([]string, 0, len(added))}
	if len(added) == 0 {
		return response, nil, nil
	}

	ids := []string{actorID}
	for _, membership := range added {
		ids = append(ids, membership.UserID)
	}
	users := uc.lookupUsers(ctx, ids...)
	members, err := uc.activeMembers(ctx, room.Slug)
	if err != nil {
		return res.MemberChangeResponse{}, nil, err
	}

	effects := make([]dispatch.Effect, 0, 4*len(added))
	for i, membership := range added {
		badge := toMessageResponse(badges[i], users, nil)
		effects = append(effects,
			dispatch.Join(membership.UserID, room.Slug),
			dispatch.Emit(dispatch.Room(room.Slug), dto.EventMessageReceived, badge),
			dispatch.Emit(dispatch.Room(room.Slug), dto.EventGroupMembersUpdated, members),
			dispatch.Emit(dispatch.User(membership.UserID), dto.EventAddedToGroup, toChatResponse(room, membership, "", users, &badge)),
		)
		response.UserIDs = append(response.UserIDs, membership.UserID)
	}

	uc.Log.Infof("User %s added %d members to group %s", actorID, len(added), room.Slug)
	return response, effects, nil
}

func (uc *MembershipUsecaseImpl) RemoveMembers(ctx context.Context, actorID string, request *req.MembersRequest) (res.MemberChangeResponse, []dispatch.Effect, error) {
	if err := uc.validate(request); err != nil {
		return res.MemberChangeResponse{}, nil, err
	}

	unlock := uc.lockRoom(request.RoomSlug)
	defer unlock()

	room, err := uc.loadGroup(ctx, uc.DB, request.RoomSlug)
	if err != nil {
		return res.MemberChangeResponse{}, nil, err
	}
	actor, err := uc.requireActive(ctx, uc.DB, room.Slug, actorID)
	if err != nil {
		return res.MemberChangeResponse{}, nil, err
	}
	if !actor.IsAdmin() {
		return res.MemberChangeResponse{}, nil, apperror.PermissionDenied("only admins can remove members")
	}

	targets := uniqueStrings(request.UserIDs)
	var removed []string
	var badges []*entity.ChatMessage
	err = uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := uc.Memberships.FindByUsers(ctx, tx, room.Slug, targets)
		if err != nil {
			return err
		}
		for _, target := range targets {
			membership := existing[target]
			if target == actorID || membership == nil || membership.IsAdmin() {
				continue
			}
			next, ok := NextMembershipState(membership.State(), enum.MembershipKick)
			if !ok {
				continue
			}
			// The badge goes out while the target is still active so it
			// stays inside their readable history.
			badge := uc.newBadge(actorID, target, enum.BadgeRemoveMember)
			if err := uc.persistMessage(ctx, tx, room, badge, false); err != nil {
				return err
			}
			membership.SetState(next)
			membership.LastMessageAt = badge.CreatedAt
			if err := uc.Memberships.Update(ctx, tx, membership); err != nil {
				return err
			}
			removed = append(removed, target)
			badges = append(badges, badge)
		}
		return nil
	})
	if err != nil {
		return res.MemberChangeResponse{}, nil, apperror.Internal(err, "failed to remove members")
	}

	response := res.MemberChangeResponse{RoomSlug: room.Slug, UserIDs: make([]string, 0, len(removed))}
	if len(removed) == 0 {
		return response, nil, nil
	}

	users := uc.lookupUsers(ctx, append([]string{actorID}, removed...)...)
	members, err := uc.activeMembers(ctx, room.Slug)
	if err != nil {
		return res.MemberChangeResponse{}, nil, err
	}

	effects := make([]dispatch.Effect, 0, 4*len(removed))
	for i, target := range removed {
		effects = append(effects,
			dispatch.Leave(target, room.Slug),
			dispatch.Emit(dispatch.Room(room.Slug), dto.EventMessageReceived, toMessageResponse(badges[i], users, nil)),
			dispatch.Emit(dispatch.Room(room.Slug), dto.EventGroupMembersUpdated, members),
			dispatch.Emit(dispatch.User(target), dto.EventRemovedFromGroup, removedGroupPayload{RoomSlug: room.Slug, ByUserID: actorID}),
		)
		response.UserIDs = append(response.UserIDs, target)
	}

	uc.Log.Infof("User %s removed %d members from group %s", actorID, len(removed), room.Slug)
	return response, effects, nil
}

func (uc *MembershipUsecaseImpl) LeaveGroup(ctx context.Context, actorID string, request *req.RoomRequest) (res.MemberChangeResponse, []dispatch.Effect, error) {
	if err := uc.validate(request); err != nil {
		return res.MemberChangeResponse{}, nil, err
	}

	unlock := uc.lockRoom(request.RoomSlug)
	defer unlock()

	room, err := uc.loadGroup(ctx, uc.DB, request.RoomSlug)
	if err != nil {
		return res.MemberChangeResponse{}, nil, err
	}
	actor, err := uc.requireActive(ctx, uc.DB, room.Slug, actorID)
	if err != nil {
		return res.MemberChangeResponse{}, nil, err
	}
	wasAdmin, wasOwner := actor.IsAdmin(), actor.IsOwner

	badge := uc.newBadge(actorID, actorID, enum.BadgeLeaveGroup)
	var promoted *entity.RoomMembership
	err = uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := uc.persistMessage(ctx, tx, room, badge, false); err != nil {
			return err
		}
		next, _ := NextMembershipState(actor.State(), enum.MembershipLeave)
		actor.SetState(next)
		actor.LastMessageAt = badge.CreatedAt
		if err := uc.Memberships.Update(ctx, tx, actor); err != nil {
			return err
		}
		if !wasAdmin {
			return nil
		}

		successor, err := uc.pickSuccessor(ctx, tx, room.Slug)
		if err != nil || successor == nil {
			return err
		}
		if wasOwner {
			successor.IsOwner = true
		} else {
			successor.IsSubAdmin = true
		}
		if err := uc.Memberships.Update(ctx, tx, successor); err != nil {
			return err
		}
		promoted = successor
		return nil
	})
	if err != nil {
		return res.MemberChangeResponse{}, nil, apperror.Internal(err, "failed to leave group")
	}

	ids := []string{actorID}
	if promoted != nil {
		ids = append(ids, promoted.UserID)
	}
	users := uc.lookupUsers(ctx, ids...)
	members, err := uc.activeMembers(ctx, room.Slug)
	if err != nil {
		return res.MemberChangeResponse{}, nil, err
	}

	effects := []dispatch.Effect{
		dispatch.Leave(actorID, room.Slug),
		dispatch.Emit(dispatch.Room(room.Slug), dto.EventMessageReceived, toMessageResponse(badge, users, nil)),
		dispatch.Emit(dispatch.Room(room.Slug), dto.EventGroupMembersUpdated, members),
	}
	response := res.MemberChangeResponse{RoomSlug: room.Slug, UserIDs: []string{actorID}}
	if promoted != nil {
		effects = append(effects, dispatch.Emit(dispatch.User(promoted.UserID), dto.EventPromotedToAdmin, toMemberResponse(promoted, users)))
		response.PromotedID = promoted.UserID
		uc.Log.Infof("User %s promoted to admin of group %s after %s left", promoted.UserID, room.Slug, actorID)
	}

	uc.Log.Infof("User %s left group %s", actorID, room.Slug)
	return response, effects, nil
}

// pickSuccessor returns the member to promote after an admin left, or nil
// when an admin remains or nobody does. The earliest joined member wins,
// ties broken by user id.
func (uc *MembershipUsecaseImpl) pickSuccessor(ctx context.Context, tx *gorm.DB, roomSlug string) (*entity.RoomMembership, error) {
	remaining, err := uc.Memberships.FindActiveByRoom(ctx, tx, roomSlug)
	if err != nil {
		return nil, err
	}
	if len(remaining) == 0 {
		return nil, nil
	}
	for i := range remaining {
		if remaining[i].IsAdmin() {
			return nil, nil
		}
	}
	return &remaining[0], nil
}

func (uc *MembershipUsecaseImpl) PromoteMember(ctx context.Context, actorID string, request *req.MemberRequest) (res.MemberResponse, []dispatch.Effect, error) {
	return uc.setSubAdmin(ctx, actorID, request, true)
}

func (uc *MembershipUsecaseImpl) DemoteMember(ctx context.Context, actorID string, request *req.MemberRequest) (res.MemberResponse, []dispatch.Effect, error) {
	return uc.setSubAdmin(ctx, actorID, request, false)
}

func (uc *MembershipUsecaseImpl) setSubAdmin(ctx context.Context, actorID string, request *req.MemberRequest, subAdmin bool) (res.MemberResponse, []dispatch.Effect, error) {
	if err := uc.validate(request); err != nil {
		return res.MemberResponse{}, nil, err
	}
	if request.UserID == actorID {
		return res.MemberResponse{}, nil, apperror.Validation("you cannot change your own role")
	}

	unlock := uc.lockRoom(request.RoomSlug)
	defer unlock()

	room, err := uc.loadGroup(ctx, uc.DB, request.RoomSlug)
	if err != nil {
		return res.MemberResponse{}, nil, err
	}
	actor, err := uc.requireActive(ctx, uc.DB, room.Slug, actorID)
	if err != nil {
		return res.MemberResponse{}, nil, err
	}
	if !actor.IsOwner {
		return res.MemberResponse{}, nil, apperror.PermissionDenied("only the owner can change member roles")
	}
	target, err := uc.loadMembership(ctx, uc.DB, room.Slug, request.UserID)
	if err != nil {
		return res.MemberResponse{}, nil, err
	}
	if !target.IsActive() {
		return res.MemberResponse{}, nil, apperror.NotFound("user %s is not a member of this group", request.UserID)
	}

	users := uc.lookupUsers(ctx, actorID, target.UserID)
	if target.IsSubAdmin == subAdmin {
		return toMemberResponse(target, users), nil, nil
	}

	var badge *entity.ChatMessage
	err = uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target.IsSubAdmin = subAdmin
		if err := uc.Memberships.UpdateFields(ctx, tx, room.Slug, target.UserID, map[string]any{"is_sub_admin": subAdmin}); err != nil {
			return err
		}
		if !subAdmin {
			return nil
		}
		badge = uc.newBadge(actorID, target.UserID, enum.BadgePromoteAdmin)
		return uc.persistMessage(ctx, tx, room, badge, false)
	})
	if err != nil {
		return res.MemberResponse{}, nil, apperror.Internal(err, "failed to change member role")
	}

	members, err := uc.activeMembers(ctx, room.Slug)
	if err != nil {
		return res.MemberResponse{}, nil, err
	}
	member := toMemberResponse(target, users)
	var effects []dispatch.Effect
	if badge != nil {
		effects = append(effects, dispatch.Emit(dispatch.Room(room.Slug), dto.EventMessageReceived, toMessageResponse(badge, users, nil)))
	}
	effects = append(effects, dispatch.Emit(dispatch.Room(room.Slug), dto.EventGroupMembersUpdated, members))
	if subAdmin {
		effects = append(effects, dispatch.Emit(dispatch.User(target.UserID), dto.EventPromotedToAdmin, member))
	}
	return member, effects, nil
}

func (uc *MembershipUsecaseImpl) UpdateGroup(ctx context.Context, actorID string, request *req.UpdateGroupRequest) (res.GroupResponse, []dispatch.Effect, error) {
	if err := uc.validate(request); err != nil {
		return res.GroupResponse{}, nil, err
	}

	unlock := uc.lockRoom(request.RoomSlug)
	defer unlock()

	room, err := uc.loadGroup(ctx, uc.DB, request.RoomSlug)
	if err != nil {
		return res.GroupResponse{}, nil, err
	}
	actor, err := uc.requireActive(ctx, uc.DB, room.Slug, actorID)
	if err != nil {
		return res.GroupResponse{}, nil, err
	}
	if !actor.IsAdmin() {
		return res.GroupResponse{}, nil, apperror.PermissionDenied("only admins can update the group")
	}

	fields := map[string]any{}
	if request.Name != nil {
		room.Name = *request.Name
		fields["name"] = room.Name
	}
	if request.Icon != nil {
		room.Icon = *request.Icon
		fields["icon"] = room.Icon
	}
	if request.CanMemberAddMember != nil {
		room.CanMemberAddMember = *request.CanMemberAddMember
		fields["can_member_add_member"] = room.CanMemberAddMember
	}
	if request.CanMemberSendMessage != nil {
		room.CanMemberSendMessage = *request.CanMemberSendMessage
		fields["can_member_send_message"] = room.CanMemberSendMessage
	}
	if len(fields) == 0 {
		return toGroupResponse(room), nil, nil
	}

	if err := uc.Rooms.UpdateFields(ctx, uc.DB, room.Slug, fields); err != nil {
		return res.GroupResponse{}, nil, apperror.Internal(err, "failed to update group")
	}

	group := toGroupResponse(room)
	return group, []dispatch.Effect{
		dispatch.Emit(dispatch.Room(room.Slug), dto.EventGroupUpdated, group),
	}, nil
}

func (uc *MembershipUsecaseImpl) DeleteGroup(ctx context.Context, actorID string, request *req.RoomRequest) (res.GroupResponse, []dispatch.Effect, error) {
	if err := uc.validate(request); err != nil {
		return res.GroupResponse{}, nil, err
	}

	unlock := uc.lockRoom(request.RoomSlug)
	defer unlock()

	room, err := uc.loadGroup(ctx, uc.DB, request.RoomSlug)
	if err != nil {
		return res.GroupResponse{}, nil, err
	}
	actor, err := uc.requireActive(ctx, uc.DB, room.Slug, actorID)
	if err != nil {
		return res.GroupResponse{}, nil, err
	}
	if !actor.IsOwner {
		return res.GroupResponse{}, nil, apperror.PermissionDenied("only the owner can delete the group")
	}

	members, err := uc.Memberships.FindActiveByRoom(ctx, uc.DB, room.Slug)
	if err != nil {
		return res.GroupResponse{}, nil, apperror.Internal(err, "failed to load members")
	}
	if err := uc.Rooms.SoftDelete(ctx, uc.DB, room.Slug); err != nil {
		return res.GroupResponse{}, nil, apperror.Internal(err, "failed to delete group")
	}

	group := toGroupResponse(room)
	effects := []dispatch.Effect{
		dispatch.Emit(dispatch.Room(room.Slug), dto.EventGroupDeleted, group),
	}
	for _, member := range members {
		effects = append(effects, dispatch.Leave(member.UserID, room.Slug))
	}

	uc.Log.Infof("User %s deleted group %s", actorID, room.Slug)
	return group, effects, nil
}

func (uc *MembershipUsecaseImpl) GetMembers(ctx context.Context, userID, roomSlug string) (res.MembersResponse, error) {
	if _, err := uc.loadRoom(ctx, uc.DB, roomSlug); err != nil {
		return res.MembersResponse{}, err
	}
	membership, err := uc.loadMembership(ctx, uc.DB, roomSlug, userID)
	if err != nil {
		return res.MembersResponse{}, err
	}
	if membership == nil {
		return res.MembersResponse{}, apperror.PermissionDenied("you are not a member of this room")
	}
	return uc.activeMembers(ctx, roomSlug)
}
