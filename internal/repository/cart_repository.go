package repository

import (
	"context"
	"time"

	"boothpos/internal/domain/model"
)

type CartRepository interface {
	FindByIDForUpdate(ctx context.Context, cartID int64) (model.Cart, error)
	ListMenus(ctx context.Context, cartID int64) ([]model.CartMenu, error)
	ListSetMenus(ctx context.Context, cartID int64) ([]model.CartSetMenu, error)
	MarkOrdered(ctx context.Context, cartID int64, at time.Time) error
}
