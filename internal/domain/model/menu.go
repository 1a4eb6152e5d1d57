package model

import "time"

type MenuCategory string

const (
	MenuCategoryMenu  MenuCategory = "menu"
	MenuCategoryDrink MenuCategory = "drink"
	//人数分の座席料（PP）
	MenuCategorySeat MenuCategory = "seat"
	//テーブル単位の座席料（PT）
	MenuCategorySeatFee MenuCategory = "seat_fee"
)

// 座席料系のカテゴリか
func (c MenuCategory) IsFee() bool {
	return c == MenuCategorySeat || c == MenuCategorySeatFee
}

// キッチン・サービング画面に出すカテゴリか
func (c MenuCategory) IsVisible() bool {
	return c == MenuCategoryMenu || c == MenuCategoryDrink
}

// 単品メニュー。Amount が在庫。
type Menu struct {
	ID        int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	BoothID   int64        `gorm:"not null;index" json:"booth_id"`
	Name      string       `gorm:"type:varchar(100);not null" json:"name"`
	Category  MenuCategory `gorm:"type:varchar(20);not null" json:"category"`
	Price     int64        `gorm:"not null" json:"price"`
	Amount    int64        `gorm:"not null;check:amount >= 0" json:"amount"`
	CreatedAt time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type SetMenu struct {
	ID        int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	BoothID   int64         `gorm:"not null;index" json:"booth_id"`
	Name      string        `gorm:"type:varchar(100);not null" json:"name"`
	Price     int64         `gorm:"not null" json:"price"`
	Items     []SetMenuItem `gorm:"foreignKey:SetMenuID" json:"items"`
	CreatedAt time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// セット構成品。Quantity はセット1つあたりの数量。
type SetMenuItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	SetMenuID int64 `gorm:"not null;index" json:"set_menu_id"`
	MenuID    int64 `gorm:"not null;index" json:"menu_id"`
	Quantity  int64 `gorm:"not null" json:"quantity"`
}

// 現在の在庫で作れるセット数 = min(在庫 / 構成数量)
func SetCapacity(items []SetMenuItem, stock map[int64]int64) int64 {
	if len(items) == 0 {
		return 0
	}
	var capacity int64 = -1
	for _, it := range items {
		if it.Quantity <= 0 {
			return 0
		}
		n := stock[it.MenuID] / it.Quantity
		if capacity < 0 || n < capacity {
			capacity = n
		}
	}
	return capacity
}
