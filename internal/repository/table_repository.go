package repository

import (
	"context"
	"time"

	"boothpos/internal/domain/model"
)

type TableRepository interface {
	FindByID(ctx context.Context, tableID int64) (model.Table, error)
	//注文作成中のリセットを待たせる
	FindByIDForUpdate(ctx context.Context, tableID int64) (model.Table, error)
	FindByNum(ctx context.Context, boothID int64, tableNum int) (model.Table, error)
	FindByNumForUpdate(ctx context.Context, boothID int64, tableNum int) (model.Table, error)
	Activate(ctx context.Context, tableID int64, at time.Time) error
	Deactivate(ctx context.Context, tableID int64, at time.Time) error
}
