package repository

import (
	"context"

	"boothpos/internal/domain/model"
	repo "boothpos/internal/repository"

	"gorm.io/gorm"
)

type OrderLineGormRepository struct {
	db *gorm.DB
}

func NewOrderLineGormRepository(db *gorm.DB) *OrderLineGormRepository {
	return &OrderLineGormRepository{db: db}
}

// 明細を一括作成
func (r *OrderLineGormRepository) CreateMenus(ctx context.Context, orderID int64, lines []model.OrderMenu) ([]model.OrderMenu, error) {
	if len(lines) == 0 {
		return lines, nil
	}
	for i := range lines {
		lines[i].OrderID = orderID
	}
	if err := r.db.WithContext(ctx).Create(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *OrderLineGormRepository) CreateSetMenu(ctx context.Context, set model.OrderSetMenu) (model.OrderSetMenu, error) {
	if err := r.db.WithContext(ctx).Create(&set).Error; err != nil {
		return model.OrderSetMenu{}, err
	}
	return set, nil
}

func (r *OrderLineGormRepository) FindMenuByID(ctx context.Context, lineID int64) (model.OrderMenu, error) {
	var m model.OrderMenu
	err := r.db.WithContext(ctx).Where("id = ?", lineID).First(&m).Error
	if isNotFound(err) {
		return model.OrderMenu{}, repo.ErrNotFound
	}
	if err != nil {
		return model.OrderMenu{}, err
	}
	return m, nil
}

func (r *OrderLineGormRepository) FindSetMenuByID(ctx context.Context, setLineID int64) (model.OrderSetMenu, error) {
	var s model.OrderSetMenu
	err := r.db.WithContext(ctx).Where("id = ?", setLineID).First(&s).Error
	if isNotFound(err) {
		return model.OrderSetMenu{}, repo.ErrNotFound
	}
	if err != nil {
		return model.OrderSetMenu{}, err
	}
	return s, nil
}

func (r *OrderLineGormRepository) FindMenusByIDs(ctx context.Context, lineIDs []int64) ([]model.OrderMenu, error) {
	return r.menus(r.db.WithContext(ctx).Where("id IN ?", lineIDs), len(lineIDs))
}

func (r *OrderLineGormRepository) FindSetMenusByIDs(ctx context.Context, setLineIDs []int64) ([]model.OrderSetMenu, error) {
	return r.setMenus(r.db.WithContext(ctx).Where("id IN ?", setLineIDs), len(setLineIDs))
}

func (r *OrderLineGormRepository) LockMenus(ctx context.Context, lineIDs []int64) ([]model.OrderMenu, error) {
	return r.menus(forUpdate(r.db.WithContext(ctx)).Where("id IN ?", lineIDs), len(lineIDs))
}

func (r *OrderLineGormRepository) LockSetMenus(ctx context.Context, setLineIDs []int64) ([]model.OrderSetMenu, error) {
	return r.setMenus(forUpdate(r.db.WithContext(ctx)).Where("id IN ?", setLineIDs), len(setLineIDs))
}

// セット構成品をまとめてロック
func (r *OrderLineGormRepository) LockChildren(ctx context.Context, setLineIDs []int64) ([]model.OrderMenu, error) {
	return r.menus(forUpdate(r.db.WithContext(ctx)).Where("order_set_menu_id IN ?", setLineIDs), len(setLineIDs))
}

func (r *OrderLineGormRepository) ListChildren(ctx context.Context, setLineIDs []int64) ([]model.OrderMenu, error) {
	return r.menus(r.db.WithContext(ctx).Where("order_set_menu_id IN ?", setLineIDs), len(setLineIDs))
}

func (r *OrderLineGormRepository) ListMenusByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.OrderMenu, error) {
	return r.menus(r.db.WithContext(ctx).Where("order_id IN ?", orderIDs), len(orderIDs))
}

func (r *OrderLineGormRepository) ListSetMenusByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.OrderSetMenu, error) {
	return r.setMenus(r.db.WithContext(ctx).Where("order_id IN ?", orderIDs), len(orderIDs))
}

func (r *OrderLineGormRepository) menus(q *gorm.DB, n int) ([]model.OrderMenu, error) {
	var items []model.OrderMenu
	if n == 0 {
		return items, nil
	}
	if err := q.Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *OrderLineGormRepository) setMenus(q *gorm.DB, n int) ([]model.OrderSetMenu, error) {
	var items []model.OrderSetMenu
	if n == 0 {
		return items, nil
	}
	if err := q.Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// 楽観的ガード。他の端末が先に更新していたら0件
func (r *OrderLineGormRepository) UpdateMenuStatusGuard(ctx context.Context, lineID int64, from, to model.LineStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.OrderMenu{}).
		Where("id = ? AND status = ?", lineID, from).
		Update("status", to)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *OrderLineGormRepository) UpdateMenuQuantity(ctx context.Context, lineID int64, qty int64) error {
	return r.updateQuantity(ctx, &model.OrderMenu{}, lineID, qty)
}

func (r *OrderLineGormRepository) UpdateSetMenuQuantity(ctx context.Context, setLineID int64, qty int64) error {
	return r.updateQuantity(ctx, &model.OrderSetMenu{}, setLineID, qty)
}

func (r *OrderLineGormRepository) updateQuantity(ctx context.Context, m any, id int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(m).
		Where("id = ?", id).
		Update("quantity", qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderLineGormRepository) DeleteMenu(ctx context.Context, lineID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.OrderMenu{}, lineID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderLineGormRepository) DeleteSetMenu(ctx context.Context, setLineID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.OrderSetMenu{}, setLineID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
