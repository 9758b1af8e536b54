package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"tango-chat-app/entity"
)

type MembershipRepository struct {
	Repository[entity.RoomMembership]
}

func NewMembershipRepository() *MembershipRepository {
	return &MembershipRepository{}
}

// Find returns nil, nil when the user never had a row in the room.
func (repository MembershipRepository) Find(ctx context.Context, db *gorm.DB, roomSlug, userID string) (*entity.RoomMembership, error) {
	var membership entity.RoomMembership
	err := db.WithContext(ctx).
		Where("room_slug = ? AND user_id = ?", roomSlug, userID).
		Take(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (repository MembershipRepository) FindByUsers(ctx context.Context, db *gorm.DB, roomSlug string, userIDs []string) (map[string]*entity.RoomMembership, error) {
	var memberships []entity.RoomMembership
	err := db.WithContext(ctx).
		Where("room_slug = ? AND user_id IN ?", roomSlug, userIDs).
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	byUser := make(map[string]*entity.RoomMembership, len(memberships))
	for i := range memberships {
		byUser[memberships[i].UserID] = &memberships[i]
	}
	return byUser, nil
}

// FindByRoom lists every row of the room in join order.
func (repository MembershipRepository) FindByRoom(ctx context.Context, db *gorm.DB, roomSlug string) ([]entity.RoomMembership, error) {
	var memberships []entity.RoomMembership
	err := db.WithContext(ctx).
		Where("room_slug = ?", roomSlug).
		Order("created_at ASC, user_id ASC").
		Find(&memberships).Error
	return memberships, err
}

func (repository MembershipRepository) FindActiveByRoom(ctx context.Context, db *gorm.DB, roomSlug string) ([]entity.RoomMembership, error) {
	var memberships []entity.RoomMembership
	err := db.WithContext(ctx).
		Where("room_slug = ? AND is_leaved = ? AND is_kicked = ?", roomSlug, false, false).
		Order("created_at ASC, user_id ASC").
		Find(&memberships).Error
	return memberships, err
}

// FindThreads returns the rows shown in the user's thread list, newest
// activity first, with their (non-deleted) rooms preloaded.
func (repository MembershipRepository) FindThreads(ctx context.Context, db *gorm.DB, userID string) ([]entity.RoomMembership, error) {
	var memberships []entity.RoomMembership
	err := db.WithContext(ctx).
		Joins("JOIN t_chat_room ON t_chat_room.slug = t_room_membership.room_slug AND t_chat_room.deleted_at IS NULL").
		Where("t_room_membership.user_id = ?", userID).
		Where("t_room_membership.visible = ? OR t_room_membership.unread_count > 0", true).
		Preload("Room").
		Order("t_room_membership.last_message_at DESC").
		Find(&memberships).Error
	return memberships, err
}

// ActiveRoomSlugs lists the rooms whose channel a freshly connected user joins.
func (repository MembershipRepository) ActiveRoomSlugs(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	var slugs []string
	err := db.WithContext(ctx).
		Model(&entity.RoomMembership{}).
		Joins("JOIN t_chat_room ON t_chat_room.slug = t_room_membership.room_slug AND t_chat_room.deleted_at IS NULL").
		Where("t_room_membership.user_id = ? AND t_room_membership.is_leaved = ? AND t_room_membership.is_kicked = ?", userID, false, false).
		Pluck("t_room_membership.room_slug", &slugs).Error
	return slugs, err
}

func (repository MembershipRepository) UpdateFields(ctx context.Context, db *gorm.DB, roomSlug, userID string, fields map[string]any) error {
	return db.WithContext(ctx).
		Model(&entity.RoomMembership{}).
		Where("room_slug = ? AND user_id = ?", roomSlug, userID).
		Updates(fields).Error
}

// RecordMessage bumps last_message_at for every active member. With
// countUnread set it also makes the thread visible again for every active
// member and bumps the unread counter of everyone except the sender. The
// increment happens in SQL so concurrent sends do not lose updates.
func (repository MembershipRepository) RecordMessage(ctx context.Context, db *gorm.DB, roomSlug, senderID string, at time.Time, countUnread bool) error {
	active := db.WithContext(ctx).
		Model(&entity.RoomMembership{}).
		Where("room_slug = ? AND is_leaved = ? AND is_kicked = ?", roomSlug, false, false)

	if !countUnread {
		return active.Updates(map[string]any{"last_message_at": at}).Error
	}

	if err := db.WithContext(ctx).
		Model(&entity.RoomMembership{}).
		Where("room_slug = ? AND user_id = ?", roomSlug, senderID).
		Updates(map[string]any{"last_message_at": at, "visible": true}).Error; err != nil {
		return err
	}

	return db.WithContext(ctx).
		Model(&entity.RoomMembership{}).
		Where("room_slug = ? AND user_id <> ? AND is_leaved = ? AND is_kicked = ?", roomSlug, senderID, false, false).
		Updates(map[string]any{
			"last_message_at": at,
			"visible":         true,
			"unread_count":    gorm.Expr("unread_count + ?", 1),
		}).Error
}

// FindPeers maps each single room to the participant other than userID.
func (repository MembershipRepository) FindPeers(ctx context.Context, db *gorm.DB, roomSlugs []string, userID string) (map[string]string, error) {
	peers := make(map[string]string, len(roomSlugs))
	if len(roomSlugs) == 0 {
		return peers, nil
	}
	var rows []entity.RoomMembership
	err := db.WithContext(ctx).
		Select("room_slug", "user_id").
		Where("room_slug IN ? AND user_id <> ?", roomSlugs, userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		peers[row.RoomSlug] = row.UserID
	}
	return peers, nil
}
