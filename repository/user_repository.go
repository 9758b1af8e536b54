package repository

import (
	"context"

	"gorm.io/gorm"
	"tango-chat-app/entity"
)

type UserRepository struct {
	Repository[entity.User]
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// FindUsers resolves display data for ids; unknown ids are simply absent.
func (repository *UserRepository) FindUsers(ctx context.Context, ids []string) (map[string]entity.User, error) {
	users := make(map[string]entity.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	var rows []entity.User
	if err := repository.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, user := range rows {
		users[user.ID] = user
	}
	return users, nil
}
