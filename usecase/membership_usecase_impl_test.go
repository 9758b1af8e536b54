package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tango-chat-app/apperror"
	"tango-chat-app/dispatch"
	"tango-chat-app/dto"
	"tango-chat-app/dto/req"
	"tango-chat-app/dto/res"
	"tango-chat-app/entity"
	"tango-chat-app/enum"
	"tango-chat-app/testhelper"
)

func TestAddMembers_ActiveMemberIsNoop(t *testing.T) {
	f := newFixture(t, "owner", "m1")
	room := f.group(t, "owner", "m1")
	badges := f.badgeCount(t, room.Slug)

	response, effects, err := f.memberships.AddMembers(context.Background(), "owner", &req.MembersRequest{
		RoomSlug: room.Slug,
		UserIDs:  []string{"m1", "owner"},
	})
	require.NoError(t, err)
	assert.Empty(t, response.UserIDs)
	assert.Empty(t, effects)
	assert.Equal(t, badges, f.badgeCount(t, room.Slug))
	assert.Equal(t, int64(1), testhelper.Count(t, f.core.DB, &entity.RoomMembership{}, "room_slug = ? AND user_id = ?", room.Slug, "m1"))
}

func TestAddMembers_Effects(t *testing.T) {
	f := newFixture(t, "owner", "m1")
	room := f.group(t, "owner")

	_, effects, err := f.memberships.AddMembers(context.Background(), "owner", &req.MembersRequest{
		RoomSlug: room.Slug,
		UserIDs:  []string{"m1"},
	})
	require.NoError(t, err)
	require.Len(t, effects, 4)

	assert.Equal(t, dispatch.OpJoin, effects[0].Op)
	assert.Equal(t, "m1", effects[0].UserID)
	assert.Equal(t, dto.EventMessageReceived, effects[1].Event)
	assert.Equal(t, dispatch.Room(room.Slug), effects[1].Audience)
	badge := effects[1].Payload.(res.MessageResponse)
	assert.Equal(t, string(enum.BadgeAddMember), badge.BadgeType)
	assert.Equal(t, "m1", badge.TargetUserID)

	assert.Equal(t, dto.EventGroupMembersUpdated, effects[2].Event)
	members := effects[2].Payload.(res.MembersResponse)
	assert.Len(t, members.Members, 2)

	assert.Equal(t, dto.EventAddedToGroup, effects[3].Event)
	assert.Equal(t, dispatch.User("m1"), effects[3].Audience)
}

func TestAddMembers_Permission(t *testing.T) {
	f := newFixture(t, "owner", "m1", "m2")
	room := f.group(t, "owner", "m1")
	ctx := context.Background()

	_, _, err := f.memberships.AddMembers(ctx, "m1", &req.MembersRequest{RoomSlug: room.Slug, UserIDs: []string{"m2"}})
	assert.True(t, apperror.Is(err, apperror.KindPermissionDenied))

	open := true
	_, _, err = f.memberships.UpdateGroup(ctx, "owner", &req.UpdateGroupRequest{RoomSlug: room.Slug, CanMemberAddMember: &open})
	require.NoError(t, err)

	response, _, err := f.memberships.AddMembers(ctx, "m1", &req.MembersRequest{RoomSlug: room.Slug, UserIDs: []string{"m2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, response.UserIDs)

	_, _, err = f.memberships.AddMembers(ctx, "outsider", &req.MembersRequest{RoomSlug: room.Slug, UserIDs: []string{"m2"}})
	assert.True(t, apperror.Is(err, apperror.KindPermissionDenied))
}

func TestRemoveMembers_KickThenReAddReusesRow(t *testing.T) {
	f := newFixture(t, "owner", "m1")
	room := f.group(t, "owner", "m1")
	ctx := context.Background()
	badges := f.badgeCount(t, room.Slug)

	response, effects, err := f.memberships.RemoveMembers(ctx, "owner", &req.MembersRequest{RoomSlug: room.Slug, UserIDs: []string{"m1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, response.UserIDs)
	assert.Equal(t, enum.MembershipKicked, f.membership(t, room.Slug, "m1").State())
	assert.Equal(t, badges+1, f.badgeCount(t, room.Slug))

	require.Len(t, effects, 4)
	assert.Equal(t, dispatch.OpLeave, effects[0].Op)
	removed := emitsOf(effects, dto.EventRemovedFromGroup)
	require.Len(t, removed, 1)
	assert.Equal(t, dispatch.User("m1"), removed[0].Audience)

	_, _, err = f.memberships.AddMembers(ctx, "owner", &req.MembersRequest{RoomSlug: room.Slug, UserIDs: []string{"m1"}})
	require.NoError(t, err)
	assert.Equal(t, enum.MembershipJoined, f.membership(t, room.Slug, "m1").State())
	assert.Equal(t, int64(1), testhelper.Count(t, f.core.DB, &entity.RoomMembership{}, "room_slug = ? AND user_id = ?", room.Slug, "m1"))
}

func TestRemoveMembers_Permissions(t *testing.T) {
	f := newFixture(t, "owner", "admin", "m1", "m2")
	room := f.group(t, "owner", "admin", "m1", "m2")
	ctx := context.Background()

	_, _, err := f.memberships.PromoteMember(ctx, "owner", &req.MemberRequest{RoomSlug: room.Slug, UserID: "admin"})
	require.NoError(t, err)

	_, _, err = f.memberships.RemoveMembers(ctx, "m1", &req.MembersRequest{RoomSlug: room.Slug, UserIDs: []string{"m2"}})
	assert.True(t, apperror.Is(err, apperror.KindPermissionDenied))

	response, effects, err := f.memberships.RemoveMembers(ctx, "admin", &req.MembersRequest{
		RoomSlug: room.Slug,
		UserIDs:  []string{"owner", "admin", "m2", "ghost"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, response.UserIDs)
	assert.Len(t, opsOf(effects, dispatch.OpLeave), 1)
	assert.True(t, f.membership(t, room.Slug, "owner").IsOwner)
}

func TestLeaveGroup_OwnerLeavesWithAdminRemaining(t *testing.T) {
	f := newFixture(t, "owner", "sub", "member")
	room := f.group(t, "owner", "sub", "member")
	ctx := context.Background()

	_, _, err := f.memberships.PromoteMember(ctx, "owner", &req.MemberRequest{RoomSlug: room.Slug, UserID: "sub"})
	require.NoError(t, err)
	badges := f.badgeCount(t, room.Slug)

	response, effects, err := f.memberships.LeaveGroup(ctx, "owner", &req.RoomRequest{RoomSlug: room.Slug})
	require.NoError(t, err)
	assert.Empty(t, response.PromotedID)
	assert.Empty(t, emitsOf(effects, dto.EventPromotedToAdmin))

	owner := f.membership(t, room.Slug, "owner")
	assert.Equal(t, enum.MembershipLeaved, owner.State())
	assert.False(t, owner.IsOwner)
	assert.False(t, f.membership(t, room.Slug, "member").IsAdmin())
	assert.Equal(t, badges+1, f.badgeCount(t, room.Slug))

	var badge entity.ChatMessage
	require.NoError(t, f.core.DB.Where("room_slug = ? AND badge_type = ?", room.Slug, enum.BadgeLeaveGroup).Take(&badge).Error)
	assert.Equal(t, "owner", badge.SenderID)
}

func TestLeaveGroup_OwnerSuccessionPicksEarliestMember(t *testing.T) {
	f := newFixture(t, "owner", "m1", "m2")
	room := f.group(t, "owner", "m1", "m2")

	response, effects, err := f.memberships.LeaveGroup(context.Background(), "owner", &req.RoomRequest{RoomSlug: room.Slug})
	require.NoError(t, err)
	assert.Equal(t, "m1", response.PromotedID)

	promoted := emitsOf(effects, dto.EventPromotedToAdmin)
	require.Len(t, promoted, 1)
	assert.Equal(t, dispatch.User("m1"), promoted[0].Audience)

	assert.True(t, f.membership(t, room.Slug, "m1").IsOwner)
	assert.False(t, f.membership(t, room.Slug, "m2").IsAdmin())
	assert.Equal(t, int64(1), testhelper.Count(t, f.core.DB, &entity.RoomMembership{}, "room_slug = ? AND is_owner = ?", room.Slug, true))
}

func TestLeaveGroup_SubAdminSuccessionPromotesToSubAdmin(t *testing.T) {
	f := newFixture(t, "owner", "sub", "m1")
	room := f.group(t, "owner", "sub", "m1")
	ctx := context.Background()

	_, _, err := f.memberships.PromoteMember(ctx, "owner", &req.MemberRequest{RoomSlug: room.Slug, UserID: "sub"})
	require.NoError(t, err)
	_, _, err = f.memberships.LeaveGroup(ctx, "owner", &req.RoomRequest{RoomSlug: room.Slug})
	require.NoError(t, err)

	response, _, err := f.memberships.LeaveGroup(ctx, "sub", &req.RoomRequest{RoomSlug: room.Slug})
	require.NoError(t, err)
	assert.Equal(t, "m1", response.PromotedID)

	m1 := f.membership(t, room.Slug, "m1")
	assert.True(t, m1.IsSubAdmin)
	assert.False(t, m1.IsOwner)
}

func TestLeaveGroup_LastMemberLeaves(t *testing.T) {
	f := newFixture(t, "owner")
	room := f.group(t, "owner")
	ctx := context.Background()

	response, effects, err := f.memberships.LeaveGroup(ctx, "owner", &req.RoomRequest{RoomSlug: room.Slug})
	require.NoError(t, err)
	assert.Empty(t, response.PromotedID)
	assert.Empty(t, emitsOf(effects, dto.EventPromotedToAdmin))

	_, _, err = f.memberships.LeaveGroup(ctx, "owner", &req.RoomRequest{RoomSlug: room.Slug})
	assert.True(t, apperror.Is(err, apperror.KindPermissionDenied))
}

func TestPromoteDemote_OwnerOnly(t *testing.T) {
	f := newFixture(t, "owner", "m1", "m2")
	room := f.group(t, "owner", "m1", "m2")
	ctx := context.Background()

	_, _, err := f.memberships.PromoteMember(ctx, "m1", &req.MemberRequest{RoomSlug: room.Slug, UserID: "m2"})
	assert.True(t, apperror.Is(err, apperror.KindPermissionDenied))

	member, effects, err := f.memberships.PromoteMember(ctx, "owner", &req.MemberRequest{RoomSlug: room.Slug, UserID: "m1"})
	require.NoError(t, err)
	assert.True(t, member.IsSubAdmin)
	assert.Len(t, emitsOf(effects, dto.EventPromotedToAdmin), 1)
	assert.Len(t, emitsOf(effects, dto.EventMessageReceived), 1)

	member, effects, err = f.memberships.DemoteMember(ctx, "owner", &req.MemberRequest{RoomSlug: room.Slug, UserID: "m1"})
	require.NoError(t, err)
	assert.False(t, member.IsSubAdmin)
	assert.Empty(t, emitsOf(effects, dto.EventPromotedToAdmin))
	assert.False(t, f.membership(t, room.Slug, "m1").IsSubAdmin)

	_, _, err = f.memberships.DemoteMember(ctx, "owner", &req.MemberRequest{RoomSlug: room.Slug, UserID: "owner"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestUpdateGroup(t *testing.T) {
	f := newFixture(t, "owner", "m1")
	room := f.group(t, "owner", "m1")
	ctx := context.Background()
	name := "renamed"

	_, _, err := f.memberships.UpdateGroup(ctx, "m1", &req.UpdateGroupRequest{RoomSlug: room.Slug, Name: &name})
	assert.True(t, apperror.Is(err, apperror.KindPermissionDenied))

	group, effects, err := f.memberships.UpdateGroup(ctx, "owner", &req.UpdateGroupRequest{RoomSlug: room.Slug, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", group.Name)
	require.Len(t, effects, 1)
	assert.Equal(t, dto.EventGroupUpdated, effects[0].Event)

	stored, err := f.rooms.FindGroupRoom(ctx, room.Slug)
	require.NoError(t, err)
	assert.Equal(t, "renamed", stored.Name)
}

func TestDeleteGroup(t *testing.T) {
	f := newFixture(t, "owner", "m1")
	room := f.group(t, "owner", "m1")
	ctx := context.Background()

	_, _, err := f.memberships.DeleteGroup(ctx, "m1", &req.RoomRequest{RoomSlug: room.Slug})
	assert.True(t, apperror.Is(err, apperror.KindPermissionDenied))

	_, effects, err := f.memberships.DeleteGroup(ctx, "owner", &req.RoomRequest{RoomSlug: room.Slug})
	require.NoError(t, err)
	assert.Len(t, emitsOf(effects, dto.EventGroupDeleted), 1)
	assert.Len(t, opsOf(effects, dispatch.OpLeave), 2)

	_, err = f.rooms.FindGroupRoom(ctx, room.Slug)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	threads, err := f.threads.GetChatThreads(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, threads)
}

func TestGetMembers(t *testing.T) {
	f := newFixture(t, "owner", "m1", "outsider")
	room := f.group(t, "owner", "m1")
	ctx := context.Background()

	members, err := f.memberships.GetMembers(ctx, "m1", room.Slug)
	require.NoError(t, err)
	require.Len(t, members.Members, 2)
	assert.Equal(t, "User owner", members.Members[0].Name)

	_, err = f.memberships.GetMembers(ctx, "outsider", room.Slug)
	assert.True(t, apperror.Is(err, apperror.KindPermissionDenied))
}
