package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository carries the generic CRUD every store embeds. The *gorm.DB is
// passed per call so a usecase can thread its transaction through.
type Repository[T any] struct{}

func (repo Repository[T]) Save(ctx context.Context, db *gorm.DB, entity *T) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error
}

func (repo Repository[T]) SaveAll(ctx context.Context, db *gorm.DB, entities *[]T) error {
	if len(*entities) == 0 {
		return nil
	}
	return db.WithContext(ctx).Omit(clause.Associations).Create(entities).Error
}

func (repo Repository[T]) Update(ctx context.Context, db *gorm.DB, entity *T) error {
	return db.WithContext(ctx).Omit(clause.Associations).Save(entity).Error
}

func (repo Repository[T]) FindBySlug(ctx context.Context, db *gorm.DB, entity *T, slug string) error {
	return db.WithContext(ctx).Where("slug = ?", slug).Take(entity).Error
}
