package model

import "time"

// 座席料ポリシー
type SeatType string

const (
	SeatTypePerPerson SeatType = "PP"
	SeatTypePerTable  SeatType = "PT"
	SeatTypeNone      SeatType = "NO"
)

// ブース（出店者）。テーブル・メニュー・注文・売上の境界。
type Booth struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(100);not null" json:"name"`

	//売上合計。注文作成・キャンセルと同じTxでのみ更新する
	TotalRevenue int64 `gorm:"not null;default:0" json:"total_revenue"`

	//注文確認用4桁パスワード（bcrypt）
	OrderPasswordHash string `gorm:"column:order_password_hash;not null" json:"-"`

	//イベントのコミット順。売上と同じくTx内で行ロックを取って進める
	EventSeq int64 `gorm:"not null;default:0" json:"-"`

	SeatType      SeatType `gorm:"type:varchar(10);not null;default:'NO'" json:"seat_type"`
	SeatTaxPerson int64    `gorm:"not null;default:0" json:"seat_tax_person"`
	SeatTaxTable  int64    `gorm:"not null;default:0" json:"seat_tax_table"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 初回注文に必要な座席料カテゴリ。不要なら空文字。
func (b Booth) RequiredFeeCategory() MenuCategory {
	switch b.SeatType {
	case SeatTypePerPerson:
		return MenuCategorySeat
	case SeatTypePerTable:
		return MenuCategorySeatFee
	default:
		return ""
	}
}
