package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"tango-chat-app/entity"
)

type RoomRepository struct {
	Repository[entity.ChatRoom]
}

func NewRoomRepository() *RoomRepository {
	return &RoomRepository{}
}

// FindByPairKey returns nil, nil when the pair has no single room yet.
func (repository RoomRepository) FindByPairKey(ctx context.Context, db *gorm.DB, pairKey string) (*entity.ChatRoom, error) {
	var room entity.ChatRoom
	err := db.WithContext(ctx).Where("pair_key = ?", pairKey).Take(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// CreateIfAbsent inserts room unless another room already owns its pair key.
// It reports whether this call created the row.
func (repository RoomRepository) CreateIfAbsent(ctx context.Context, db *gorm.DB, room *entity.ChatRoom) (bool, error) {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).
		Create(room)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (repository RoomRepository) UpdateFields(ctx context.Context, db *gorm.DB, slug string, fields map[string]any) error {
	return db.WithContext(ctx).
		Model(&entity.ChatRoom{}).
		Where("slug = ?", slug).
		Updates(fields).Error
}

func (repository RoomRepository) TouchLastMessageAt(ctx context.Context, db *gorm.DB, slug string, at time.Time) error {
	return repository.UpdateFields(ctx, db, slug, map[string]any{"last_message_at": at})
}

func (repository RoomRepository) SoftDelete(ctx context.Context, db *gorm.DB, slug string) error {
	return db.WithContext(ctx).Where("slug = ?", slug).Delete(&entity.ChatRoom{}).Error
}
