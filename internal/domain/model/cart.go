package model

import "time"

// テーブル端末のカート。注文確定で IsOrdered=true。
type Cart struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	TableID       int64      `gorm:"not null;index" json:"table_id"`
	IsOrdered     bool       `gorm:"not null;default:false" json:"is_ordered"`
	TableCouponID *int64     `json:"table_coupon_id"`
	CreatedAt     time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
	OrderedAt     *time.Time `json:"ordered_at"`
}

type CartMenu struct {
	ID       int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID   int64 `gorm:"not null;index" json:"cart_id"`
	MenuID   int64 `gorm:"not null" json:"menu_id"`
	Quantity int64 `gorm:"not null" json:"quantity"`
}

type CartSetMenu struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64 `gorm:"not null;index" json:"cart_id"`
	SetMenuID int64 `gorm:"not null" json:"set_menu_id"`
	Quantity  int64 `gorm:"not null" json:"quantity"`
}
