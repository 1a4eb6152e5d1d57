package repository

import (
	"context"

	"boothpos/internal/domain/model"
)

// 単品明細（セット構成品を含む）とセット明細の永続化
type OrderLineRepository interface {
	CreateMenus(ctx context.Context, orderID int64, lines []model.OrderMenu) ([]model.OrderMenu, error)
	CreateSetMenu(ctx context.Context, set model.OrderSetMenu) (model.OrderSetMenu, error)

	FindMenuByID(ctx context.Context, lineID int64) (model.OrderMenu, error)
	FindSetMenuByID(ctx context.Context, setLineID int64) (model.OrderSetMenu, error)
	FindMenusByIDs(ctx context.Context, lineIDs []int64) ([]model.OrderMenu, error)
	FindSetMenusByIDs(ctx context.Context, setLineIDs []int64) ([]model.OrderSetMenu, error)

	// ID昇順でロック
	LockMenus(ctx context.Context, lineIDs []int64) ([]model.OrderMenu, error)
	LockSetMenus(ctx context.Context, setLineIDs []int64) ([]model.OrderSetMenu, error)
	LockChildren(ctx context.Context, setLineIDs []int64) ([]model.OrderMenu, error)
	ListChildren(ctx context.Context, setLineIDs []int64) ([]model.OrderMenu, error)

	ListMenusByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.OrderMenu, error)
	ListSetMenusByOrderIDs(ctx context.Context, orderIDs []int64) ([]model.OrderSetMenu, error)

	// 現在のステータスが from のときだけ to に更新。更新件数を返す
	UpdateMenuStatusGuard(ctx context.Context, lineID int64, from, to model.LineStatus) (int64, error)

	UpdateMenuQuantity(ctx context.Context, lineID int64, qty int64) error
	DeleteMenu(ctx context.Context, lineID int64) error
	UpdateSetMenuQuantity(ctx context.Context, setLineID int64, qty int64) error
	DeleteSetMenu(ctx context.Context, setLineID int64) error
}
