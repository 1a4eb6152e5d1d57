package model_test

import (
	"errors"
	"testing"

	"boothpos/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, model.LineStatusPending, model.InitialStatus(model.MenuCategoryMenu))
	assert.Equal(t, model.LineStatusCooked, model.InitialStatus(model.MenuCategoryDrink))
	assert.Equal(t, model.LineStatusPending, model.InitialStatus(model.MenuCategorySeat))
}

func TestCheckAdvance(t *testing.T) {
	cases := []struct {
		name string
		cat  model.MenuCategory
		from model.LineStatus
		to   model.LineStatus
		ok   bool
	}{
		{"menu pending->cooked", model.MenuCategoryMenu, model.LineStatusPending, model.LineStatusCooked, true},
		{"menu cooked->served", model.MenuCategoryMenu, model.LineStatusCooked, model.LineStatusServed, true},
		{"menu pending->served skip", model.MenuCategoryMenu, model.LineStatusPending, model.LineStatusServed, false},
		{"menu served->served", model.MenuCategoryMenu, model.LineStatusServed, model.LineStatusServed, false},
		{"menu cooked->cooked", model.MenuCategoryMenu, model.LineStatusCooked, model.LineStatusCooked, false},
		{"to pending is not forward", model.MenuCategoryMenu, model.LineStatusCooked, model.LineStatusPending, false},
		{"drink pending->served", model.MenuCategoryDrink, model.LineStatusPending, model.LineStatusServed, true},
		{"drink cooked->served", model.MenuCategoryDrink, model.LineStatusCooked, model.LineStatusServed, true},
		{"fee line has no service state", model.MenuCategorySeatFee, model.LineStatusPending, model.LineStatusCooked, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := model.CheckAdvance(tc.cat, tc.from, tc.to)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInvalidTransition))
			var te *model.TransitionError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tc.from, te.From)
			assert.Equal(t, tc.to, te.To)
		})
	}
}

func TestCheckRevert(t *testing.T) {
	cases := []struct {
		name string
		cat  model.MenuCategory
		from model.LineStatus
		to   model.LineStatus
		ok   bool
	}{
		{"cooked->pending", model.MenuCategoryMenu, model.LineStatusCooked, model.LineStatusPending, true},
		{"served->cooked", model.MenuCategoryMenu, model.LineStatusServed, model.LineStatusCooked, true},
		{"menu served->pending", model.MenuCategoryMenu, model.LineStatusServed, model.LineStatusPending, false},
		{"drink served->pending", model.MenuCategoryDrink, model.LineStatusServed, model.LineStatusPending, true},
		{"pending->pending", model.MenuCategoryMenu, model.LineStatusPending, model.LineStatusPending, false},
		{"forward is not reversal", model.MenuCategoryMenu, model.LineStatusPending, model.LineStatusCooked, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := model.CheckRevert(tc.cat, tc.from, tc.to)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, model.ErrInvalidReversal))
			assert.False(t, errors.Is(err, model.ErrInvalidTransition))
		})
	}
}

func line(id int64, cat model.MenuCategory, st model.LineStatus) model.OrderMenu {
	return model.OrderMenu{ID: id, Category: cat, Status: st, Quantity: 1}
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, model.LineStatusPending, model.DeriveStatus(nil))

	assert.Equal(t, model.LineStatusServed, model.DeriveStatus([]model.OrderMenu{
		line(1, model.MenuCategoryMenu, model.LineStatusServed),
		line(2, model.MenuCategoryDrink, model.LineStatusServed),
		//座席料は見ない
		line(3, model.MenuCategorySeat, model.LineStatusPending),
	}))

	assert.Equal(t, model.LineStatusCooked, model.DeriveStatus([]model.OrderMenu{
		line(1, model.MenuCategoryMenu, model.LineStatusServed),
		line(2, model.MenuCategoryDrink, model.LineStatusCooked),
	}))

	assert.Equal(t, model.LineStatusPending, model.DeriveStatus([]model.OrderMenu{
		line(1, model.MenuCategoryMenu, model.LineStatusServed),
		line(2, model.MenuCategoryMenu, model.LineStatusPending),
	}))
}

func TestDeriveOrderStatusAndCompletion(t *testing.T) {
	assert.Equal(t, model.OrderStatusCancelled, model.DeriveOrderStatus(nil))

	feeOnly := []model.OrderMenu{line(1, model.MenuCategorySeatFee, model.LineStatusPending)}
	assert.Equal(t, model.OrderStatusPending, model.DeriveOrderStatus(feeOnly))
	assert.False(t, model.IsOrderCompleted(feeOnly))

	done := []model.OrderMenu{
		line(1, model.MenuCategorySeatFee, model.LineStatusPending),
		line(2, model.MenuCategoryMenu, model.LineStatusServed),
	}
	assert.Equal(t, model.OrderStatusServed, model.DeriveOrderStatus(done))
	assert.True(t, model.IsOrderCompleted(done))
}

func TestPlanSetAdvance(t *testing.T) {
	children := []model.OrderMenu{
		line(1, model.MenuCategoryMenu, model.LineStatusPending),
		line(2, model.MenuCategoryDrink, model.LineStatusCooked),
	}

	changes, err := model.PlanSetAdvance(children, model.LineStatusCooked)
	require.NoError(t, err)
	assert.Equal(t, map[int64]model.LineStatus{1: model.LineStatusCooked}, changes)

	_, err = model.PlanSetAdvance(children, model.LineStatusServed)
	assert.True(t, errors.Is(err, model.ErrInvalidTransition))

	drinksOnly := []model.OrderMenu{
		line(3, model.MenuCategoryDrink, model.LineStatusPending),
		line(4, model.MenuCategoryDrink, model.LineStatusCooked),
	}
	changes, err = model.PlanSetAdvance(drinksOnly, model.LineStatusServed)
	require.NoError(t, err)
	assert.Len(t, changes, 2)

	allServed := []model.OrderMenu{line(5, model.MenuCategoryMenu, model.LineStatusServed)}
	_, err = model.PlanSetAdvance(allServed, model.LineStatusServed)
	assert.Error(t, err)
}

func TestPlanSetRevert(t *testing.T) {
	served := []model.OrderMenu{
		line(1, model.MenuCategoryMenu, model.LineStatusServed),
		line(2, model.MenuCategoryDrink, model.LineStatusServed),
	}
	changes, err := model.PlanSetRevert(served, model.LineStatusCooked)
	require.NoError(t, err)
	assert.Len(t, changes, 2)

	//単品の served -> pending は不可
	_, err = model.PlanSetRevert(served, model.LineStatusPending)
	assert.True(t, errors.Is(err, model.ErrInvalidReversal))

	cooked := []model.OrderMenu{
		line(1, model.MenuCategoryMenu, model.LineStatusCooked),
		line(2, model.MenuCategoryMenu, model.LineStatusPending),
	}
	changes, err = model.PlanSetRevert(cooked, model.LineStatusPending)
	require.NoError(t, err)
	assert.Equal(t, map[int64]model.LineStatus{1: model.LineStatusPending}, changes)
}

func TestSetHeaderLineStatusIsDerived(t *testing.T) {
	var l model.Line = model.SetHeaderLine{
		Set: model.OrderSetMenu{ID: 9, OrderID: 3},
		Children: []model.OrderMenu{
			line(1, model.MenuCategoryMenu, model.LineStatusCooked),
			line(2, model.MenuCategoryDrink, model.LineStatusServed),
		},
	}
	assert.Equal(t, model.LineKindSetHeader, l.Kind())
	assert.Equal(t, int64(3), l.OrderRef())
	assert.Equal(t, model.LineStatusCooked, l.CurrentStatus())
}
