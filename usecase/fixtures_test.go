package usecase

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"tango-chat-app/dispatch"
	"tango-chat-app/dto/req"
	"tango-chat-app/entity"
	"tango-chat-app/repository"
	"tango-chat-app/testhelper"
)

type fixture struct {
	core        *Core
	rooms       *RoomUsecaseImpl
	memberships *MembershipUsecaseImpl
	messages    *MessageUsecaseImpl
	threads     *ThreadUsecaseImpl
}

func newFixture(t *testing.T, users ...string) *fixture {
	t.Helper()

	db := testhelper.NewDB(t)
	testhelper.SeedUsers(t, db, users...)

	log := logrus.New()
	log.SetOutput(io.Discard)

	core := NewCore(db, repository.NewUserRepository(db), validator.New(validator.WithRequiredStructEnabled()), log)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int64
	core.Now = func() time.Time {
		return base.Add(time.Duration(atomic.AddInt64(&tick, 1)) * time.Millisecond)
	}

	rooms := NewRoomUsecase(core)
	return &fixture{
		core:        core,
		rooms:       rooms,
		memberships: NewMembershipUsecase(core),
		messages:    NewMessageUsecase(core, rooms),
		threads:     NewThreadUsecase(core),
	}
}

// group creates a group owned by owner with members joined in argument order.
func (f *fixture) group(t *testing.T, owner string, members ...string) *entity.ChatRoom {
	t.Helper()
	ctx := context.Background()

	group, _, err := f.rooms.CreateGroup(ctx, owner, &req.CreateGroupRequest{Name: "team"})
	require.NoError(t, err)
	for _, member := range members {
		_, _, err := f.memberships.AddMembers(ctx, owner, &req.MembersRequest{RoomSlug: group.RoomSlug, UserIDs: []string{member}})
		require.NoError(t, err)
	}

	room, err := f.rooms.FindGroupRoom(ctx, group.RoomSlug)
	require.NoError(t, err)
	return room
}

func (f *fixture) membership(t *testing.T, roomSlug, userID string) *entity.RoomMembership {
	t.Helper()
	membership, err := f.core.Memberships.Find(context.Background(), f.core.DB, roomSlug, userID)
	require.NoError(t, err)
	return membership
}

func (f *fixture) badgeCount(t *testing.T, roomSlug string) int64 {
	t.Helper()
	return testhelper.Count(t, f.core.DB, &entity.ChatMessage{}, "room_slug = ? AND message_type = ?", roomSlug, "BADGE")
}

func emitsOf(effects []dispatch.Effect, event string) []dispatch.Effect {
	var out []dispatch.Effect
	for _, effect := range effects {
		if effect.Op == dispatch.OpEmit && effect.Event == event {
			out = append(out, effect)
		}
	}
	return out
}

func opsOf(effects []dispatch.Effect, op dispatch.Op) []dispatch.Effect {
	var out []dispatch.Effect
	for _, effect := range effects {
		if effect.Op == op {
			out = append(out, effect)
		}
	}
	return out
}

func sendText(t *testing.T, f *fixture, sender, roomSlug, body string) {
	t.Helper()
	_, _, err := f.messages.SendMessage(context.Background(), sender, &req.SendMessageRequest{RoomSlug: roomSlug, Body: body})
	require.NoError(t, err)
}
