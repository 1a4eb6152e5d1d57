package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCooked    OrderStatus = "cooked"
	OrderStatusServed    OrderStatus = "served"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// 注文。明細と同時に一括作成し、以後はキャンセルでのみ金額が変わる。
type Order struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	BoothID int64 `gorm:"not null;index" json:"booth_id"`
	TableID int64 `gorm:"not null;index" json:"table_id"`

	//残っている明細の合計 - クーポン割引（0未満にはしない）
	OrderAmount    int64 `gorm:"not null" json:"order_amount"`
	Subtotal       int64 `gorm:"not null" json:"subtotal"`
	FeeAmount      int64 `gorm:"not null;default:0" json:"fee_amount"`
	CouponDiscount int64 `gorm:"not null;default:0" json:"coupon_discount"`

	OrderStatus OrderStatus `gorm:"type:varchar(20);not null;index" json:"order_status"`
	CartID      int64       `gorm:"not null;uniqueIndex" json:"cart_id"`

	ServedAt  *time.Time `json:"served_at"`
	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
