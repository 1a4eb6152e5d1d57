package repository

import (
	"context"
	"time"

	"boothpos/internal/domain/model"
	repo "boothpos/internal/repository"

	"gorm.io/gorm"
)

type TableGormRepository struct {
	db *gorm.DB
}

func NewTableGormRepository(db *gorm.DB) *TableGormRepository {
	return &TableGormRepository{db: db}
}

func (r *TableGormRepository) FindByID(ctx context.Context, tableID int64) (model.Table, error) {
	return r.findByID(r.db.WithContext(ctx), tableID)
}

func (r *TableGormRepository) FindByIDForUpdate(ctx context.Context, tableID int64) (model.Table, error) {
	return r.findByID(forUpdate(r.db.WithContext(ctx)), tableID)
}

func (r *TableGormRepository) findByID(q *gorm.DB, tableID int64) (model.Table, error) {
	var t model.Table
	err := q.Where("id = ?", tableID).First(&t).Error
	if isNotFound(err) {
		return model.Table{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Table{}, err
	}
	return t, nil
}

func (r *TableGormRepository) FindByNum(ctx context.Context, boothID int64, tableNum int) (model.Table, error) {
	return r.findByNum(r.db.WithContext(ctx), boothID, tableNum)
}

func (r *TableGormRepository) FindByNumForUpdate(ctx context.Context, boothID int64, tableNum int) (model.Table, error) {
	return r.findByNum(forUpdate(r.db.WithContext(ctx)), boothID, tableNum)
}

func (r *TableGormRepository) findByNum(q *gorm.DB, boothID int64, tableNum int) (model.Table, error) {
	var t model.Table
	err := q.Where("booth_id = ? AND table_num = ?", boothID, tableNum).First(&t).Error
	if isNotFound(err) {
		return model.Table{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Table{}, err
	}
	return t, nil
}

// 新しいセッションを始める
func (r *TableGormRepository) Activate(ctx context.Context, tableID int64, at time.Time) error {
	return r.update(ctx, tableID, map[string]any{
		"status":       model.TableStatusActive,
		"activated_at": at,
	})
}

// セッションを閉じる。activated_at は残さない
func (r *TableGormRepository) Deactivate(ctx context.Context, tableID int64, at time.Time) error {
	return r.update(ctx, tableID, map[string]any{
		"status":         model.TableStatusOut,
		"activated_at":   nil,
		"deactivated_at": at,
	})
}

func (r *TableGormRepository) update(ctx context.Context, tableID int64, values map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&model.Table{}).
		Where("id = ?", tableID).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
