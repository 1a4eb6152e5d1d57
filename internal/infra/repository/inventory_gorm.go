package repository

import (
	"context"

	"boothpos/internal/domain/model"
	repo "boothpos/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// デッドロック回避のためID昇順でロック
func (r *InventoryGormRepository) LockMenus(ctx context.Context, menuIDs []int64) ([]model.Menu, error) {
	var menus []model.Menu
	if len(menuIDs) == 0 {
		return menus, nil
	}
	if err := forUpdate(r.db.WithContext(ctx)).
		Where("id IN ?", menuIDs).
		Order("id asc").
		Find(&menus).Error; err != nil {
		return nil, err
	}
	return menus, nil
}

// 在庫が足りるときだけ減らす
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, menuID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Menu{}).
		Where("id = ? AND amount >= ?", menuID, qty).
		Update("amount", gorm.Expr("amount - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// 在庫戻し（キャンセル）
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, menuID int64, qty int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Menu{}).
		Where("id = ?", menuID).
		Update("amount", gorm.Expr("amount + ?", qty))

	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, repo.ErrNotFound
	}

	var amount int64
	if err := r.db.WithContext(ctx).
		Model(&model.Menu{}).
		Where("id = ?", menuID).
		Pluck("amount", &amount).Error; err != nil {
		return 0, err
	}
	return amount, nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}
