package model

import "time"

type DiscountType string

const (
	DiscountTypePercent DiscountType = "percent"
	DiscountTypeAmount  DiscountType = "amount"
)

type Coupon struct {
	ID            int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	BoothID       int64        `gorm:"not null;index" json:"booth_id"`
	Name          string       `gorm:"type:varchar(100);not null" json:"name"`
	DiscountType  DiscountType `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue int64        `gorm:"not null" json:"discount_value"`
	CreatedAt     time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
}

// テーブルに発行されたクーポン。UsedAt が入ったら使用済み。
type TableCoupon struct {
	ID       int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	TableID  int64      `gorm:"not null;index" json:"table_id"`
	CouponID int64      `gorm:"not null;index" json:"coupon_id"`
	Coupon   Coupon     `gorm:"foreignKey:CouponID" json:"coupon"`
	UsedAt   *time.Time `json:"used_at"`
}

// 座席料を除いた小計に対する割引額（小計を超えない）
func (c Coupon) DiscountFor(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	var d int64
	switch c.DiscountType {
	case DiscountTypePercent:
		d = subtotal * c.DiscountValue / 100
	case DiscountTypeAmount:
		d = c.DiscountValue
	}
	if d < 0 {
		return 0
	}
	if d > subtotal {
		return subtotal
	}
	return d
}
