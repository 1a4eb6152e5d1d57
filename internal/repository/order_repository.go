package repository

import (
	"context"
	"time"

	"boothpos/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// ID昇順でロック
	LockByIDs(ctx context.Context, orderIDs []int64) ([]model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	UpdateAmount(ctx context.Context, orderID int64, amount int64) error
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, servedAt *time.Time) error

	// セッション [since, now) の注文
	ListByTableSince(ctx context.Context, tableID int64, since time.Time) ([]model.Order, error)
	CountByTableSince(ctx context.Context, tableID int64, since time.Time) (int64, error)
	ListByBoothAndStatuses(ctx context.Context, boothID int64, statuses []model.OrderStatus) ([]model.Order, error)
	// キャンセル済みを除いた order_amount の合計
	SumActiveAmount(ctx context.Context, boothID int64) (int64, error)
}
