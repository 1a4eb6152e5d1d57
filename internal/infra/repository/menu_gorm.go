package repository

import (
	"context"

	"boothpos/internal/domain/model"

	"gorm.io/gorm"
)

type MenuGormRepository struct {
	db *gorm.DB
}

func NewMenuGormRepository(db *gorm.DB) *MenuGormRepository {
	return &MenuGormRepository{db: db}
}

func (r *MenuGormRepository) FindByIDs(ctx context.Context, menuIDs []int64) ([]model.Menu, error) {
	var menus []model.Menu
	if len(menuIDs) == 0 {
		return menus, nil
	}
	if err := r.db.WithContext(ctx).
		Where("id IN ?", menuIDs).
		Order("id asc").
		Find(&menus).Error; err != nil {
		return nil, err
	}
	return menus, nil
}

func (r *MenuGormRepository) ListByBoothID(ctx context.Context, boothID int64) ([]model.Menu, error) {
	var menus []model.Menu
	if err := r.db.WithContext(ctx).
		Where("booth_id = ?", boothID).
		Order("id asc").
		Find(&menus).Error; err != nil {
		return nil, err
	}
	return menus, nil
}

func (r *MenuGormRepository) FindSetMenusByIDs(ctx context.Context, setMenuIDs []int64) ([]model.SetMenu, error) {
	var sets []model.SetMenu
	if len(setMenuIDs) == 0 {
		return sets, nil
	}
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("id IN ?", setMenuIDs).
		Order("id asc").
		Find(&sets).Error; err != nil {
		return nil, err
	}
	return sets, nil
}

func (r *MenuGormRepository) ListSetMenusByBoothID(ctx context.Context, boothID int64) ([]model.SetMenu, error) {
	var sets []model.SetMenu
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("booth_id = ?", boothID).
		Order("id asc").
		Find(&sets).Error; err != nil {
		return nil, err
	}
	return sets, nil
}
