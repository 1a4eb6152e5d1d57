package model

import (
	"errors"
	"fmt"
)

// セット明細と構成品の数量が合わない（データ不整合）
var ErrSetInvariant = errors.New("set line invariant violated")

// 単品のキャンセル可能数。served は0。
func CancellableMenuQuantity(m OrderMenu) int64 {
	if m.Status == LineStatusServed || m.Quantity < 0 {
		return 0
	}
	return m.Quantity
}

// セットのキャンセル可能数
// = min(セット数量, 各構成品の (served なら0、それ以外は数量) / 構成数量)
func CancellableSetQuantity(set OrderSetMenu, children []OrderMenu) (int64, error) {
	if err := CheckSetConsistency(set, children); err != nil {
		return 0, err
	}
	n := set.Quantity
	for _, c := range children {
		var avail int64
		if c.Status != LineStatusServed {
			avail = c.Quantity
		}
		if v := avail / c.UnitQuantity; v < n {
			n = v
		}
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

// 構成品数量 == 構成数量 × セット数量 を確認する
func CheckSetConsistency(set OrderSetMenu, children []OrderMenu) error {
	for _, c := range children {
		if c.OrderSetMenuID == nil || *c.OrderSetMenuID != set.ID {
			return fmt.Errorf("%w: line %d is not a child of set %d", ErrSetInvariant, c.ID, set.ID)
		}
		if c.UnitQuantity <= 0 {
			return fmt.Errorf("%w: line %d has unit quantity %d", ErrSetInvariant, c.ID, c.UnitQuantity)
		}
		if c.Quantity != c.UnitQuantity*set.Quantity {
			return fmt.Errorf("%w: line %d quantity %d != %d x %d", ErrSetInvariant, c.ID, c.Quantity, c.UnitQuantity, set.Quantity)
		}
	}
	return nil
}
