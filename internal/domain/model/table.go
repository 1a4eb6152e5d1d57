package model

import "time"

type TableStatus string

const (
	TableStatusOut    TableStatus = "out"
	TableStatusActive TableStatus = "active"
)

// テーブル。activated_at から現在までが1セッション。
type Table struct {
	ID            int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	BoothID       int64       `gorm:"not null;index;uniqueIndex:idx_tables_booth_num" json:"booth_id"`
	TableNum      int         `gorm:"not null;uniqueIndex:idx_tables_booth_num" json:"table_num"`
	Status        TableStatus `gorm:"type:varchar(20);not null;default:'out'" json:"status"`
	ActivatedAt   *time.Time  `json:"activated_at"`
	DeactivatedAt *time.Time  `json:"deactivated_at"`
	CreatedAt     time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (t Table) IsActive() bool {
	return t.Status == TableStatusActive && t.ActivatedAt != nil
}
