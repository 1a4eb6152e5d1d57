package model

// 明細の種類。単品・セット構成品・セット本体を区別する。
type LineKind string

const (
	LineKindDirect    LineKind = "direct"
	LineKindSetChild  LineKind = "set_child"
	LineKindSetHeader LineKind = "set_header"
)

// ステートマシンとキャンセル処理は Line を型で分岐する。
type Line interface {
	Kind() LineKind
	LineID() int64
	OrderRef() int64
	CurrentStatus() LineStatus
}

type DirectLine struct {
	Menu OrderMenu
}

func (l DirectLine) Kind() LineKind            { return LineKindDirect }
func (l DirectLine) LineID() int64             { return l.Menu.ID }
func (l DirectLine) OrderRef() int64           { return l.Menu.OrderID }
func (l DirectLine) CurrentStatus() LineStatus { return l.Menu.Status }

type SetChildLine struct {
	Menu   OrderMenu
	Parent OrderSetMenu
	//Menu 自身を含む同じセットの構成品
	Siblings []OrderMenu
}

func (l SetChildLine) Kind() LineKind            { return LineKindSetChild }
func (l SetChildLine) LineID() int64             { return l.Menu.ID }
func (l SetChildLine) OrderRef() int64           { return l.Menu.OrderID }
func (l SetChildLine) CurrentStatus() LineStatus { return l.Menu.Status }

// 親セットの導出ステータス
func (l SetChildLine) SetStatus() LineStatus { return DeriveStatus(l.Siblings) }

type SetHeaderLine struct {
	Set      OrderSetMenu
	Children []OrderMenu
}

func (l SetHeaderLine) Kind() LineKind            { return LineKindSetHeader }
func (l SetHeaderLine) LineID() int64             { return l.Set.ID }
func (l SetHeaderLine) OrderRef() int64           { return l.Set.OrderID }
func (l SetHeaderLine) CurrentStatus() LineStatus { return DeriveStatus(l.Children) }
