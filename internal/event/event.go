package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeOrderCreated   Type = "order_created"
	TypeLineUpdated    Type = "line_updated"
	TypeOrderCompleted Type = "order_completed"
	TypeRevenueUpdated Type = "revenue_updated"
)

// 購読側の画面
type Screen string

const (
	ScreenKitchen    Screen = "kitchen"
	ScreenServing    Screen = "serving"
	ScreenDashboard  Screen = "dashboard"
	ScreenStatistics Screen = "statistics"
)

func (s Screen) Valid() bool {
	switch s {
	case ScreenKitchen, ScreenServing, ScreenDashboard, ScreenStatistics:
		return true
	}
	return false
}

// ブース単位で配信するイベント。
// Payload は変化後のスナップショットを丸ごと持つので、受信側は重複して受け取っても再描画するだけでよい。
// Seq はブースごとのコミット順。同じTxのイベントは同じ Seq を持つ。0 は順序指定なし
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	BoothID    int64     `json:"booth_id"`
	Seq        int64     `json:"seq,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func New(t Type, boothID int64, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		BoothID:    boothID,
		OccurredAt: time.Now(),
		Payload:    payload,
	}
}

// 明細の変化。削除された明細は Status=cancelled, Quantity=0
type LineUpdated struct {
	LineType  string `json:"line_type"` // menu / set
	LineID    int64  `json:"line_id"`
	OrderID   int64  `json:"order_id"`
	TableNum  int    `json:"table_num"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Quantity  int64  `json:"quantity"`
	SetLineID *int64 `json:"set_line_id,omitempty"`
	SetStatus string `json:"set_status,omitempty"`
}

type OrderCompleted struct {
	OrderID  int64 `json:"order_id"`
	TableNum int   `json:"table_num"`
}

type RevenueUpdated struct {
	BoothID      int64 `json:"booth_id"`
	TotalRevenue int64 `json:"total_revenue"`
}

type OrderCreated struct {
	OrderID     int64 `json:"order_id"`
	TableNum    int   `json:"table_num"`
	OrderAmount int64 `json:"order_amount"`
	LineCount   int   `json:"line_count"`
}

// 同じTxで出たイベントに Seq を振る
func Sequence(seq int64, events []Event) []Event {
	for i := range events {
		events[i].Seq = seq
	}
	return events
}

func LineUpdatedEvent(boothID int64, p LineUpdated) Event {
	return New(TypeLineUpdated, boothID, p)
}

func OrderCompletedEvent(boothID int64, orderID int64, tableNum int) Event {
	return New(TypeOrderCompleted, boothID, OrderCompleted{OrderID: orderID, TableNum: tableNum})
}

func RevenueUpdatedEvent(boothID int64, total int64) Event {
	return New(TypeRevenueUpdated, boothID, RevenueUpdated{BoothID: boothID, TotalRevenue: total})
}

func OrderCreatedEvent(boothID int64, p OrderCreated) Event {
	return New(TypeOrderCreated, boothID, p)
}

// イベント種別ごとの配信先画面
func (e Event) Screens() []Screen {
	switch e.Type {
	case TypeOrderCreated:
		return []Screen{ScreenKitchen, ScreenServing, ScreenDashboard, ScreenStatistics}
	case TypeLineUpdated:
		return []Screen{ScreenKitchen, ScreenServing}
	case TypeOrderCompleted:
		return []Screen{ScreenServing, ScreenDashboard, ScreenStatistics}
	case TypeRevenueUpdated:
		return []Screen{ScreenDashboard, ScreenStatistics}
	default:
		return nil
	}
}
