package usecase

import (
	"encoding/json"
	"sort"

	"boothpos/internal/domain/model"
	"boothpos/internal/event"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// 明細の指定種別
const (
	LineTypeMenu = "menu"
	LineTypeSet  = "set"
)

var tracer = otel.Tracer("boothpos/usecase")

// コミット後のイベント送出先
type EventPublisher interface {
	Publish(events ...event.Event)
}

// 入力チェック（validator パッケージが実装）
type InputValidator interface {
	ValidateCreateOrder(in CreateOrderInput) error
	ValidateTransition(in TransitionInput) error
	ValidateCancel(in CancelInput) error
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// internal のときだけ error で残す。それ以外は業務エラーなので debug
func logResult(logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	if err == nil {
		return
	}
	if ae, ok := AsAppError(err); ok && ae.Kind != KindInternal {
		logger.Debug(msg, append(fields, zap.String("code", ae.Code))...)
		return
	}
	logger.Error(msg, append(fields, zap.Error(err))...)
}

// 監査ログ用
func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// 画面・レスポンス用の明細表現。セットは子明細を持つ
type LineOutput struct {
	Type       string       `json:"type"`
	ID         int64        `json:"id"`
	OrderID    int64        `json:"order_id"`
	ItemID     int64        `json:"item_id"`
	Name       string       `json:"name"`
	Category   string       `json:"category,omitempty"`
	Quantity   int64        `json:"quantity"`
	FixedPrice int64        `json:"fixed_price"`
	Status     string       `json:"status"`
	Children   []LineOutput `json:"children,omitempty"`
}

func menuLineOutput(m model.OrderMenu) LineOutput {
	return LineOutput{
		Type:       LineTypeMenu,
		ID:         m.ID,
		OrderID:    m.OrderID,
		ItemID:     m.MenuID,
		Name:       m.MenuName,
		Category:   string(m.Category),
		Quantity:   m.Quantity,
		FixedPrice: m.FixedPrice,
		Status:     string(m.Status),
	}
}

// 単品 → セット の順。セットのステータスは構成品から導出
func buildLineOutputs(menus []model.OrderMenu, sets []model.OrderSetMenu) []LineOutput {
	children := groupChildren(menus)
	out := make([]LineOutput, 0, len(menus)+len(sets))
	for _, m := range menus {
		if m.IsSetChild() {
			continue
		}
		out = append(out, menuLineOutput(m))
	}
	for _, s := range sets {
		header := model.SetHeaderLine{Set: s, Children: children[s.ID]}
		lo := LineOutput{
			Type:       LineTypeSet,
			ID:         s.ID,
			OrderID:    s.OrderID,
			ItemID:     s.SetMenuID,
			Name:       s.SetName,
			Quantity:   s.Quantity,
			FixedPrice: s.FixedPrice,
			Status:     string(header.CurrentStatus()),
		}
		for _, c := range header.Children {
			lo.Children = append(lo.Children, menuLineOutput(c))
		}
		out = append(out, lo)
	}
	return out
}

// セット明細ID → 構成品
func groupChildren(menus []model.OrderMenu) map[int64][]model.OrderMenu {
	out := make(map[int64][]model.OrderMenu)
	for _, m := range menus {
		if m.IsSetChild() {
			out[*m.OrderSetMenuID] = append(out[*m.OrderSetMenuID], m)
		}
	}
	return out
}

func sortedKeys(m map[int64]int64) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
