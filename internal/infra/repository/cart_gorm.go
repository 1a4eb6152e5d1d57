package repository

import (
	"context"
	"time"

	"boothpos/internal/domain/model"
	repo "boothpos/internal/repository"

	"gorm.io/gorm"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// 二重注文を防ぐためカート行をロックして取得
func (r *CartGormRepository) FindByIDForUpdate(ctx context.Context, cartID int64) (model.Cart, error) {
	var cart model.Cart

	err := forUpdate(r.db.WithContext(ctx)).
		Where("id = ?", cartID).
		First(&cart).Error

	if isNotFound(err) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// カートの単品明細
func (r *CartGormRepository) ListMenus(ctx context.Context, cartID int64) ([]model.CartMenu, error) {
	var items []model.CartMenu

	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartMenu{}, err
	}
	return items, nil
}

// カートのセット明細
func (r *CartGormRepository) ListSetMenus(ctx context.Context, cartID int64) ([]model.CartSetMenu, error) {
	var items []model.CartSetMenu

	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartSetMenu{}, err
	}
	return items, nil
}

// 注文済みにする（未注文のときだけ）
func (r *CartGormRepository) MarkOrdered(ctx context.Context, cartID int64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ? AND is_ordered = ?", cartID, false).
		Updates(map[string]any{
			"is_ordered": true,
			"ordered_at": at,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
