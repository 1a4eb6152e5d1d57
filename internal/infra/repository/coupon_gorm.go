package repository

import (
	"context"
	"time"

	"boothpos/internal/domain/model"
	repo "boothpos/internal/repository"

	"gorm.io/gorm"
)

type CouponGormRepository struct {
	db *gorm.DB
}

func NewCouponGormRepository(db *gorm.DB) *CouponGormRepository {
	return &CouponGormRepository{db: db}
}

func (r *CouponGormRepository) FindTableCouponForUpdate(ctx context.Context, tableCouponID int64) (model.TableCoupon, error) {
	var tc model.TableCoupon
	err := forUpdate(r.db.WithContext(ctx)).
		Where("id = ?", tableCouponID).
		First(&tc).Error
	if isNotFound(err) {
		return model.TableCoupon{}, repo.ErrNotFound
	}
	if err != nil {
		return model.TableCoupon{}, err
	}

	// Preload とロックを同じクエリに混ぜない
	var c model.Coupon
	err = r.db.WithContext(ctx).Where("id = ?", tc.CouponID).First(&c).Error
	if isNotFound(err) {
		return model.TableCoupon{}, repo.ErrNotFound
	}
	if err != nil {
		return model.TableCoupon{}, err
	}
	tc.Coupon = c
	return tc, nil
}

func (r *CouponGormRepository) MarkUsed(ctx context.Context, tableCouponID int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.TableCoupon{}).
		Where("id = ? AND used_at IS NULL", tableCouponID).
		Update("used_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
