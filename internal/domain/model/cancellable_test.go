package model_test

import (
	"errors"
	"testing"

	"boothpos/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func child(id, setID, unit, qty int64, st model.LineStatus) model.OrderMenu {
	return model.OrderMenu{
		ID:             id,
		OrderSetMenuID: &setID,
		UnitQuantity:   unit,
		Quantity:       qty,
		Status:         st,
		Category:       model.MenuCategoryMenu,
	}
}

func TestCancellableMenuQuantity(t *testing.T) {
	assert.Equal(t, int64(3), model.CancellableMenuQuantity(model.OrderMenu{Quantity: 3, Status: model.LineStatusPending}))
	assert.Equal(t, int64(3), model.CancellableMenuQuantity(model.OrderMenu{Quantity: 3, Status: model.LineStatusCooked}))
	assert.Equal(t, int64(0), model.CancellableMenuQuantity(model.OrderMenu{Quantity: 3, Status: model.LineStatusServed}))
}

func TestCancellableSetQuantity(t *testing.T) {
	set := model.OrderSetMenu{ID: 7, Quantity: 3}

	n, err := model.CancellableSetQuantity(set, []model.OrderMenu{
		child(1, 7, 2, 6, model.LineStatusCooked),
		child(2, 7, 1, 3, model.LineStatusPending),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	//構成品がひとつでも served ならキャンセル不可
	n, err = model.CancellableSetQuantity(set, []model.OrderMenu{
		child(1, 7, 2, 6, model.LineStatusServed),
		child(2, 7, 1, 3, model.LineStatusPending),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCancellableSetQuantity_Inconsistent(t *testing.T) {
	set := model.OrderSetMenu{ID: 7, Quantity: 3}

	_, err := model.CancellableSetQuantity(set, []model.OrderMenu{child(1, 7, 2, 5, model.LineStatusPending)})
	assert.True(t, errors.Is(err, model.ErrSetInvariant))

	_, err = model.CancellableSetQuantity(set, []model.OrderMenu{child(1, 7, 0, 0, model.LineStatusPending)})
	assert.True(t, errors.Is(err, model.ErrSetInvariant))

	_, err = model.CancellableSetQuantity(set, []model.OrderMenu{child(1, 8, 1, 3, model.LineStatusPending)})
	assert.True(t, errors.Is(err, model.ErrSetInvariant))
}

func TestSetCapacity(t *testing.T) {
	items := []model.SetMenuItem{{MenuID: 1, Quantity: 2}, {MenuID: 2, Quantity: 1}}
	assert.Equal(t, int64(3), model.SetCapacity(items, map[int64]int64{1: 7, 2: 5}))
	assert.Equal(t, int64(0), model.SetCapacity(items, map[int64]int64{1: 7}))
	assert.Equal(t, int64(0), model.SetCapacity(nil, map[int64]int64{1: 7}))
}

func TestCouponDiscountFor(t *testing.T) {
	pct := model.Coupon{DiscountType: model.DiscountTypePercent, DiscountValue: 10}
	assert.Equal(t, int64(300), pct.DiscountFor(3000))

	amt := model.Coupon{DiscountType: model.DiscountTypeAmount, DiscountValue: 5000}
	assert.Equal(t, int64(3000), amt.DiscountFor(3000))
	assert.Equal(t, int64(0), amt.DiscountFor(0))
}

func TestBoothRequiredFeeCategory(t *testing.T) {
	assert.Equal(t, model.MenuCategorySeat, model.Booth{SeatType: model.SeatTypePerPerson}.RequiredFeeCategory())
	assert.Equal(t, model.MenuCategorySeatFee, model.Booth{SeatType: model.SeatTypePerTable}.RequiredFeeCategory())
	assert.Equal(t, model.MenuCategory(""), model.Booth{SeatType: model.SeatTypeNone}.RequiredFeeCategory())
}
