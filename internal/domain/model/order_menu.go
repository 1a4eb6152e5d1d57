package model

import "time"

// 注文の単品明細。セット構成品なら OrderSetMenuID を持つ。
type OrderMenu struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64 `gorm:"not null;index" json:"order_id"`
	MenuID  int64 `gorm:"not null;index" json:"menu_id"`

	Quantity int64 `gorm:"not null" json:"quantity"`
	//注文時点の価格。セット構成品は0（金額はセット側で持つ）
	FixedPrice int64 `gorm:"not null" json:"fixed_price"`

	//注文時点のスナップショット
	MenuName string       `gorm:"type:varchar(100);not null" json:"menu_name"`
	Category MenuCategory `gorm:"type:varchar(20);not null" json:"category"`

	Status LineStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	OrderSetMenuID *int64 `gorm:"index" json:"order_set_menu_id"`
	//セット1つあたりの数量（構成品のみ）
	UnitQuantity int64 `gorm:"not null;default:0" json:"unit_quantity"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (m OrderMenu) IsSetChild() bool {
	return m.OrderSetMenuID != nil
}

// 注文のセット明細。ステータスは保存せず構成品から導出する。
type OrderSetMenu struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    int64     `gorm:"not null;index" json:"order_id"`
	SetMenuID  int64     `gorm:"not null;index" json:"set_menu_id"`
	SetName    string    `gorm:"type:varchar(100);not null" json:"set_name"`
	Quantity   int64     `gorm:"not null" json:"quantity"`
	FixedPrice int64     `gorm:"not null" json:"fixed_price"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
