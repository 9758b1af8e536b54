package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"tango-chat-app/entity"
	"tango-chat-app/enum"
)

type MessageRepository struct {
	Repository[entity.ChatMessage]
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (repository MessageRepository) CreateStatuses(ctx context.Context, db *gorm.DB, statuses []entity.MessageStatus) error {
	if len(statuses) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&statuses).Error
}

// FindStatus returns nil, nil when the user was not a recipient.
func (repository MessageRepository) FindStatus(ctx context.Context, db *gorm.DB, messageSlug, userID string) (*entity.MessageStatus, error) {
	var status entity.MessageStatus
	err := db.WithContext(ctx).
		Where("message_slug = ? AND user_id = ?", messageSlug, userID).
		Take(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (repository MessageRepository) FindStatuses(ctx context.Context, db *gorm.DB, messageSlugs []string, userID string) (map[string]entity.MessageStatus, error) {
	statuses := make(map[string]entity.MessageStatus, len(messageSlugs))
	if len(messageSlugs) == 0 {
		return statuses, nil
	}
	var rows []entity.MessageStatus
	err := db.WithContext(ctx).
		Where("message_slug IN ? AND user_id = ?", messageSlugs, userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		statuses[row.MessageSlug] = row
	}
	return statuses, nil
}

func (repository MessageRepository) MarkDeletedForMe(ctx context.Context, db *gorm.DB, messageSlug, userID string) error {
	return db.WithContext(ctx).
		Model(&entity.MessageStatus{}).
		Where("message_slug = ? AND user_id = ?", messageSlug, userID).
		Update("is_deleted", true).Error
}

func (repository MessageRepository) MarkDeletedForEveryone(ctx context.Context, db *gorm.DB, messageSlug string, at time.Time) error {
	return db.WithContext(ctx).
		Model(&entity.ChatMessage{}).
		Where("slug = ?", messageSlug).
		Updates(map[string]any{
			"is_deleted_for_everyone": true,
			"deleted_for_everyone_at": at,
		}).Error
}

// MarkRoomRead flips every status row of userID in the room to read.
func (repository MessageRepository) MarkRoomRead(ctx context.Context, db *gorm.DB, roomSlug, userID string, at time.Time) error {
	roomMessages := db.Session(&gorm.Session{NewDB: true}).
		Model(&entity.ChatMessage{}).
		Select("slug").
		Where("room_slug = ?", roomSlug)

	return db.WithContext(ctx).
		Model(&entity.MessageStatus{}).
		Where("user_id = ? AND status <> ? AND message_slug IN (?)", userID, enum.MessageStatusRead, roomMessages).
		Updates(map[string]any{
			"status":  enum.MessageStatusRead,
			"read_at": at,
		}).Error
}

// MessageFilter narrows a room's history to what one user may see.
type MessageFilter struct {
	RoomSlug string
	UserID   string
	After    *time.Time
	Before   *time.Time
	Limit    int
}

// FindVisible returns the newest messages first, excluding rows the user
// deleted for themselves and anything older than After.
func (repository MessageRepository) FindVisible(ctx context.Context, db *gorm.DB, filter MessageFilter) ([]entity.ChatMessage, error) {
	query := db.WithContext(ctx).
		Model(&entity.ChatMessage{}).
		Joins("LEFT JOIN t_message_status ON t_message_status.message_slug = t_chat_message.slug AND t_message_status.user_id = ?", filter.UserID).
		Where("t_chat_message.room_slug = ?", filter.RoomSlug).
		Where("t_message_status.is_deleted IS NULL OR t_message_status.is_deleted = ?", false)

	if filter.After != nil {
		query = query.Where("t_chat_message.created_at > ?", *filter.After)
	}
	if filter.Before != nil {
		query = query.Where("t_chat_message.created_at < ?", *filter.Before)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var messages []entity.ChatMessage
	err := query.
		Order("t_chat_message.created_at DESC").
		Find(&messages).Error
	return messages, err
}
