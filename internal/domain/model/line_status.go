package model

import (
	"errors"
	"fmt"
)

// 明細ステータス。cancelled はキャンセル結果の表現にだけ使い、保存はしない。
type LineStatus string

const (
	LineStatusPending   LineStatus = "pending"
	LineStatusCooked    LineStatus = "cooked"
	LineStatusServed    LineStatus = "served"
	LineStatusCancelled LineStatus = "cancelled"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidReversal   = errors.New("invalid reversal")
)

func (s LineStatus) Valid() bool {
	switch s {
	case LineStatusPending, LineStatusCooked, LineStatusServed:
		return true
	}
	return false
}

// 遷移できなかったときのエラー。errors.Is で ErrInvalidTransition / ErrInvalidReversal に一致する。
type TransitionError struct {
	From     LineStatus
	To       LineStatus
	Reversal bool
}

func (e *TransitionError) Error() string {
	if e.Reversal {
		return fmt.Sprintf("invalid reversal: %s -> %s", e.From, e.To)
	}
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	if e.Reversal {
		return target == ErrInvalidReversal
	}
	return target == ErrInvalidTransition
}

// 作成時の初期ステータス。飲み物は調理工程がないので cooked から。
func InitialStatus(c MenuCategory) LineStatus {
	if c == MenuCategoryDrink {
		return LineStatusCooked
	}
	return LineStatusPending
}

// 前進は1段階のみ。飲み物だけ pending -> served を許す。
func CheckAdvance(c MenuCategory, from, to LineStatus) error {
	if !c.IsFee() {
		switch to {
		case LineStatusCooked:
			if from == LineStatusPending {
				return nil
			}
		case LineStatusServed:
			if from == LineStatusCooked {
				return nil
			}
			if c == MenuCategoryDrink && from == LineStatusPending {
				return nil
			}
		}
	}
	return &TransitionError{From: from, To: to}
}

// 差し戻しは1段階のみ。飲み物だけ served -> pending を許す。
func CheckRevert(c MenuCategory, from, to LineStatus) error {
	if !c.IsFee() {
		switch {
		case from == LineStatusCooked && to == LineStatusPending:
			return nil
		case from == LineStatusServed && to == LineStatusCooked:
			return nil
		case from == LineStatusServed && to == LineStatusPending && c == MenuCategoryDrink:
			return nil
		}
	}
	return &TransitionError{From: from, To: to, Reversal: true}
}

// 画面に出る明細から導出する。全部 served なら served、全部 cooked 以上なら cooked。
func DeriveStatus(lines []OrderMenu) LineStatus {
	visible := 0
	served := 0
	cookedOrServed := 0
	for _, l := range lines {
		if !l.Category.IsVisible() {
			continue
		}
		visible++
		switch l.Status {
		case LineStatusServed:
			served++
			cookedOrServed++
		case LineStatusCooked:
			cookedOrServed++
		}
	}
	switch {
	case visible == 0:
		return LineStatusPending
	case served == visible:
		return LineStatusServed
	case cookedOrServed == visible:
		return LineStatusCooked
	default:
		return LineStatusPending
	}
}

// 注文全体のステータス。明細が1件も残っていなければ cancelled。
func DeriveOrderStatus(lines []OrderMenu) OrderStatus {
	if len(lines) == 0 {
		return OrderStatusCancelled
	}
	switch DeriveStatus(lines) {
	case LineStatusServed:
		return OrderStatusServed
	case LineStatusCooked:
		return OrderStatusCooked
	default:
		return OrderStatusPending
	}
}

// 注文完了の判定。画面に出る明細が1件以上あり、全部 served。
func IsOrderCompleted(lines []OrderMenu) bool {
	for _, l := range lines {
		if l.Category.IsVisible() {
			return DeriveStatus(lines) == LineStatusServed
		}
	}
	return false
}

// セットを to へ進めるときの構成品ごとの変更。変更なしはエラー。
func PlanSetAdvance(children []OrderMenu, to LineStatus) (map[int64]LineStatus, error) {
	from := DeriveStatus(children)
	changes := make(map[int64]LineStatus)
	for _, c := range children {
		if !c.Category.IsVisible() || c.Status == to || c.Status == LineStatusServed {
			continue
		}
		if err := CheckAdvance(c.Category, c.Status, to); err != nil {
			return nil, &TransitionError{From: from, To: to}
		}
		changes[c.ID] = to
	}
	if len(changes) == 0 {
		return nil, &TransitionError{From: from, To: to}
	}
	return changes, nil
}

// セットを to へ差し戻すときの構成品ごとの変更。
func PlanSetRevert(children []OrderMenu, to LineStatus) (map[int64]LineStatus, error) {
	from := DeriveStatus(children)
	changes := make(map[int64]LineStatus)
	for _, c := range children {
		if !c.Category.IsVisible() || !isAhead(c.Status, to) {
			continue
		}
		if err := CheckRevert(c.Category, c.Status, to); err != nil {
			return nil, &TransitionError{From: from, To: to, Reversal: true}
		}
		changes[c.ID] = to
	}
	if len(changes) == 0 {
		return nil, &TransitionError{From: from, To: to, Reversal: true}
	}
	return changes, nil
}

func rank(s LineStatus) int {
	switch s {
	case LineStatusPending:
		return 0
	case LineStatusCooked:
		return 1
	case LineStatusServed:
		return 2
	}
	return -1
}

func isAhead(s, than LineStatus) bool {
	return rank(s) > rank(than)
}
