package repository

import (
	"context"

	"boothpos/internal/domain/model"
)

type MenuRepository interface {
	FindByIDs(ctx context.Context, menuIDs []int64) ([]model.Menu, error)
	ListByBoothID(ctx context.Context, boothID int64) ([]model.Menu, error)
	// 構成品（Items）込みで取得
	FindSetMenusByIDs(ctx context.Context, setMenuIDs []int64) ([]model.SetMenu, error)
	ListSetMenusByBoothID(ctx context.Context, boothID int64) ([]model.SetMenu, error)
}
