package model

import "time"

type AdjustmentReason string

const (
	AdjustmentReasonOrderReserve AdjustmentReason = "order_reserve"
	AdjustmentReasonOrderCancel  AdjustmentReason = "order_cancel"
)

// 在庫増減の履歴。予約（マイナス）とキャンセル戻し（プラス）を残す。
type InventoryAdjustment struct {
	ID        int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	MenuID    int64            `gorm:"not null;index" json:"menu_id"`
	OrderID   int64            `gorm:"not null;index" json:"order_id"`
	Delta     int64            `gorm:"not null" json:"delta"`
	Reason    AdjustmentReason `gorm:"type:varchar(50);not null" json:"reason"`
	CreatedAt time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
}
