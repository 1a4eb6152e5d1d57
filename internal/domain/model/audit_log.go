package model

import "time"

type AuditAction string

const (
	//明細キャンセル
	AuditActionCancelLines AuditAction = "CANCEL_LINES"
	//ステータス差し戻し
	AuditActionRevertStatus AuditAction = "REVERT_STATUS"
	//売上合計の修復
	AuditActionRepairRevenue AuditAction = "REPAIR_REVENUE"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceOrder        AuditResourceType = "order"
	AuditResourceOrderMenu    AuditResourceType = "order_menu"
	AuditResourceOrderSetMenu AuditResourceType = "order_set_menu"
	AuditResourceBooth        AuditResourceType = "booth"
)

// 監査ログ。
// 「どのブースで」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	BoothID int64 `gorm:"not null;index" json:"booth_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
