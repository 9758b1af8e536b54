package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"tango-chat-app/apperror"
	"tango-chat-app/dto/res"
	"tango-chat-app/entity"
	"tango-chat-app/enum"
	"tango-chat-app/repository"
)

const defaultPageSize = 50

// UserDirectory is the identity provider used to enrich payloads.
type UserDirectory interface {
	FindUsers(ctx context.Context, ids []string) (map[string]entity.User, error)
}

// Core holds what every chat usecase shares, including the per-room and
// per-pair locks that serialise mutations of one room on this node.
type Core struct {
	DB          *gorm.DB
	Rooms       *repository.RoomRepository
	Memberships *repository.MembershipRepository
	Messages    *repository.MessageRepository
	Users       UserDirectory
	Validate    *validator.Validate
	Log         *logrus.Logger
	PageSize    int
	Now         func() time.Time

	locks *keyedMutex
}

func NewCore(db *gorm.DB, users UserDirectory, validate *validator.Validate, log *logrus.Logger) *Core {
	return &Core{
		DB:          db,
		Rooms:       repository.NewRoomRepository(),
		Memberships: repository.NewMembershipRepository(),
		Messages:    repository.NewMessageRepository(),
		Users:       users,
		Validate:    validate,
		Log:         log,
		PageSize:    defaultPageSize,
		Now:         func() time.Time { return time.Now().UTC() },
		locks:       newKeyedMutex(),
	}
}

func (c *Core) lockRoom(slug string) func() {
	return c.locks.Lock("room:" + slug)
}

func (c *Core) lockPair(pairKey string) func() {
	return c.locks.Lock("pair:" + pairKey)
}

func (c *Core) now() time.Time {
	return c.Now().Truncate(time.Microsecond)
}

func (c *Core) validate(request any) error {
	if err := c.Validate.Struct(request); err != nil {
		return apperror.Validation("%s", err.Error())
	}
	return nil
}

func (c *Core) loadRoom(ctx context.Context, db *gorm.DB, slug string) (*entity.ChatRoom, error) {
	var room entity.ChatRoom
	err := c.Rooms.FindBySlug(ctx, db, &room, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("room %s not found", slug)
	}
	if err != nil {
		return nil, apperror.Internal(err, "failed to load room")
	}
	return &room, nil
}

func (c *Core) loadGroup(ctx context.Context, db *gorm.DB, slug string) (*entity.ChatRoom, error) {
	room, err := c.loadRoom(ctx, db, slug)
	if err != nil {
		return nil, err
	}
	if !room.IsGroup() {
		return nil, apperror.Validation("room %s is not a group", slug)
	}
	return room, nil
}

func (c *Core) loadMembership(ctx context.Context, db *gorm.DB, roomSlug, userID string) (*entity.RoomMembership, error) {
	membership, err := c.Memberships.Find(ctx, db, roomSlug, userID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to load membership")
	}
	return membership, nil
}

func (c *Core) requireActive(ctx context.Context, db *gorm.DB, roomSlug, userID string) (*entity.RoomMembership, error) {
	membership, err := c.loadMembership(ctx, db, roomSlug, userID)
	if err != nil {
		return nil, err
	}
	if !membership.IsActive() {
		return nil, apperror.PermissionDenied("you are not an active member of this room")
	}
	return membership, nil
}

// requireUsers fails with NotFound when any id is unknown to the directory.
func (c *Core) requireUsers(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	users, err := c.Users.FindUsers(ctx, ids)
	if err != nil {
		return apperror.Internal(err, "failed to resolve users")
	}
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			return apperror.NotFound("user %s not found", id)
		}
	}
	return nil
}

// lookupUsers is best-effort enrichment after a commit; a directory outage
// degrades payloads to bare ids instead of failing the action.
func (c *Core) lookupUsers(ctx context.Context, ids ...string) map[string]entity.User {
	users, err := c.Users.FindUsers(ctx, uniqueStrings(ids))
	if err != nil {
		c.Log.WithError(err).Warn("Failed to enrich payload with user data")
		return map[string]entity.User{}
	}
	return users
}

// nextMessageTime keeps created_at strictly increasing inside one room.
// Callers hold the room lock.
func (c *Core) nextMessageTime(room *entity.ChatRoom) time.Time {
	at := c.now()
	if !at.After(room.LastMessageAt) {
		at = room.LastMessageAt.Add(time.Microsecond)
	}
	return at
}

// persistMessage stores message with one status row per active member and
// updates the activity bookkeeping of the room and its members.
func (c *Core) persistMessage(ctx context.Context, tx *gorm.DB, room *entity.ChatRoom, message *entity.ChatMessage, countUnread bool) error {
	message.RoomSlug = room.Slug
	message.CreatedAt = c.nextMessageTime(room)
	if err := c.Messages.Save(ctx, tx, message); err != nil {
		return err
	}

	members, err := c.Memberships.FindActiveByRoom(ctx, tx, room.Slug)
	if err != nil {
		return err
	}
	statuses := make([]entity.MessageStatus, 0, len(members))
	for _, member := range members {
		status := entity.MessageStatus{
			MessageSlug: message.Slug,
			UserID:      member.UserID,
			Status:      enum.MessageStatusSent,
		}
		if member.UserID == message.SenderID {
			readAt := message.CreatedAt
			status.Status = enum.MessageStatusRead
			status.ReadAt = &readAt
		}
		statuses = append(statuses, status)
	}
	if err := c.Messages.CreateStatuses(ctx, tx, statuses); err != nil {
		return err
	}

	if err := c.Memberships.RecordMessage(ctx, tx, room.Slug, message.SenderID, message.CreatedAt, countUnread); err != nil {
		return err
	}
	if err := c.Rooms.TouchLastMessageAt(ctx, tx, room.Slug, message.CreatedAt); err != nil {
		return err
	}
	room.LastMessageAt = message.CreatedAt
	return nil
}

func (c *Core) newBadge(actorID, targetID string, badge enum.BadgeType) *entity.ChatMessage {
	return &entity.ChatMessage{
		SenderID:     actorID,
		MessageType:  enum.MessageBadge,
		BadgeType:    badge,
		TargetUserID: targetID,
	}
}

// activeMembers lists the room's active members with display data.
func (c *Core) activeMembers(ctx context.Context, roomSlug string) (res.MembersResponse, error) {
	memberships, err := c.Memberships.FindActiveByRoom(ctx, c.DB, roomSlug)
	if err != nil {
		return res.MembersResponse{}, apperror.Internal(err, "failed to load members")
	}
	ids := make([]string, 0, len(memberships))
	for _, membership := range memberships {
		ids = append(ids, membership.UserID)
	}
	users := c.lookupUsers(ctx, ids...)

	members := make([]res.MemberResponse, 0, len(memberships))
	for i := range memberships {
		members = append(members, toMemberResponse(&memberships[i], users))
	}
	return res.MembersResponse{RoomSlug: roomSlug, Members: members}, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
