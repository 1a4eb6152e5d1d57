package repository

import (
	"context"
	"time"

	"boothpos/internal/domain/model"
)

type CouponRepository interface {
	// Coupon込みでロックして取得
	FindTableCouponForUpdate(ctx context.Context, tableCouponID int64) (model.TableCoupon, error)
	// 未使用のときだけ使用済みにする
	MarkUsed(ctx context.Context, tableCouponID int64, at time.Time) (bool, error)
}
