package repository

import (
	"context"
	"time"

	"boothpos/internal/domain/model"
	repo "boothpos/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if isNotFound(err) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) LockByIDs(ctx context.Context, orderIDs []int64) ([]model.Order, error) {
	var orders []model.Order
	if len(orderIDs) == 0 {
		return orders, nil
	}
	if err := forUpdate(r.db.WithContext(ctx)).
		Where("id IN ?", orderIDs).
		Order("id asc").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderGormRepository) UpdateAmount(ctx context.Context, orderID int64, amount int64) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("order_amount", amount)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// servedAt は完了時のみ入る。それ以外は nil に戻す
func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, servedAt *time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"order_status": status,
			"served_at":    servedAt,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) ListByTableSince(ctx context.Context, tableID int64, since time.Time) ([]model.Order, error) {
	var items []model.Order
	err := r.db.WithContext(ctx).
		Where("table_id = ? AND created_at >= ?", tableID, since).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

func (r *OrderGormRepository) CountByTableSince(ctx context.Context, tableID int64, since time.Time) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("table_id = ? AND created_at >= ?", tableID, since).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *OrderGormRepository) ListByBoothAndStatuses(ctx context.Context, boothID int64, statuses []model.OrderStatus) ([]model.Order, error) {
	q := r.db.WithContext(ctx).Where("booth_id = ?", boothID)

	//status 絞り込み
	if len(statuses) > 0 {
		q = q.Where("order_status IN ?", statuses)
	}

	var items []model.Order
	if err := q.Order("id asc").Find(&items).Error; err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

func (r *OrderGormRepository) SumActiveAmount(ctx context.Context, boothID int64) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("COALESCE(SUM(order_amount), 0)").
		Where("booth_id = ? AND order_status <> ?", boothID, model.OrderStatusCancelled).
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return sum, nil
}
