package usecase_test

import (
	"testing"

	"boothpos/internal/domain/model"
	"boothpos/internal/event"
	"boothpos/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) advance(lineType string, id int64, to model.LineStatus) (usecase.TransitionOutput, error) {
	return f.lines.Advance(f.ctx, usecase.TransitionInput{BoothID: f.booth.ID, Type: lineType, ID: id, Status: to})
}

func (f *fixture) revert(lineType string, id int64, to model.LineStatus) (usecase.TransitionOutput, error) {
	return f.lines.Revert(f.ctx, usecase.TransitionInput{BoothID: f.booth.ID, Type: lineType, ID: id, Status: to})
}

func TestAdvance_FoodStepsOneStageAtATime(t *testing.T) {
	f := newFixture(t, model.SeatTypeNone)
	burger := f.menu("Burger", model.MenuCategoryMenu, 800, 10)
	out := f.order(menuLine(burger.ID, 1))
	line := lineFor(t, out, burger.ID)

	_, err := f.advance(usecase.LineTypeMenu, line.ID, model.LineStatusServed)
	ae := requireCode(t, err, usecase.CodeInvalidTransition)
	assert.Equal(t, 409, ae.Status())
	assert.Equal(t, "pending", ae.Details["from"])

	res, err := f.advance(usecase.LineTypeMenu, line.ID, model.LineStatusCooked)
	require.NoError(t, err)
	assert.Equal(t, "cooked", res.Status)
	assert.Equal(t, string(model.OrderStatusCooked), res.OrderStatus)
	assert.False(t, res.OrderCompleted)

	// 同じ遷移の二重送信
	_, err = f.advance(usecase.LineTypeMenu, line.ID, model.LineStatusCooked)
	requireCode(t, err, usecase.CodeInvalidTransition)
}

func TestAdvance_DrinkSkipsCookingAndCompletesOrder(t *testing.T) {
	f := newFixture(t, model.SeatTypeNone)
	cola := f.menu("Cola", model.MenuCategoryDrink, 300, 10)
	burger := f.menu("Burger", model.MenuCategoryMenu, 800, 10)
	out := f.order(menuLine(cola.ID, 1), menuLine(burger.ID, 1))
	colaLine := lineFor(t, out, cola.ID)
	burgerLine := lineFor(t, out, burger.ID)

	// 飲み物は pending へ戻してから直接 served にできる
	_, err := f.revert(usecase.LineTypeMenu, colaLine.ID, model.LineStatusPending)
	require.NoError(t, err)
	res, err := f.advance(usecase.LineTypeMenu, colaLine.ID, model.LineStatusServed)
	require.NoError(t, err)
	assert.Equal(t, "served", res.Status)
	assert.False(t, res.OrderCompleted)

	_, err = f.advance(usecase.LineTypeMenu, burgerLine.ID, model.LineStatusCooked)
	require.NoError(t, err)

	f.pub.Reset()
	res, err = f.advance(usecase.LineTypeMenu, burgerLine.ID, model.LineStatusServed)
	require.NoError(t, err)
	assert.True(t, res.OrderCompleted)
	assert.Equal(t, string(model.OrderStatusServed), res.OrderStatus)

	o := f.loadOrder(out.OrderID)
	assert.Equal(t, model.OrderStatusServed, o.OrderStatus)
	assert.NotNil(t, o.ServedAt)

	assert.Equal(t, []event.Type{event.TypeLineUpdated, event.TypeOrderCompleted}, f.pub.Types())
	lu := f.pub.OfType(event.TypeLineUpdated)[0].Payload.(event.LineUpdated)
	assert.Equal(t, burgerLine.ID, lu.LineID)
	assert.Equal(t, "served", lu.Status)
	assert.Equal(t, 1, lu.TableNum)
	oc := f.pub.OfType(event.TypeOrderCompleted)[0].Payload.(event.OrderCompleted)
	assert.Equal(t, out.OrderID, oc.OrderID)
}

func TestRevert_ClearsServedAtAndWritesAuditLog(t *testing.T) {
	f := newFixture(t, model.SeatTypeNone)
	cola := f.menu("Cola", model.MenuCategoryDrink, 300, 10)
	out := f.order(menuLine(cola.ID, 1))
	line := lineFor(t, out, cola.ID)

	res, err := f.advance(usecase.LineTypeMenu, line.ID, model.LineStatusServed)
	require.NoError(t, err)
	require.True(t, res.OrderCompleted)

	res, err = f.revert(usecase.LineTypeMenu, line.ID, model.LineStatusPending)
	require.NoError(t, err)
	assert.Equal(t, "pending", res.Status)
	assert.Equal(t, string(model.OrderStatusPending), res.OrderStatus)

	o := f.loadOrder(out.OrderID)
	assert.Equal(t, model.OrderStatusPending, o.OrderStatus)
	assert.Nil(t, o.ServedAt)

	var logs []model.AuditLog
	require.NoError(t, f.db.Where("action = ?", model.AuditActionRevertStatus).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, line.ID, logs[0].ResourceID)
	assert.Equal(t, model.AuditResourceOrderMenu, logs[0].ResourceType)
	assert.Contains(t, logs[0].BeforeJSON, "served")
}

func TestRevert_FoodOnlyOneStageBack(t *testing.T) {
	f := newFixture(t, model.SeatTypeNone)
	burger := f.menu("Burger", model.MenuCategoryMenu, 800, 10)
	out := f.order(menuLine(burger.ID, 1))
	line := lineFor(t, out, burger.ID)

	_, err := f.advance(usecase.LineTypeMenu, line.ID, model.LineStatusCooked)
	require.NoError(t, err)
	_, err = f.advance(usecase.LineTypeMenu, line.ID, model.LineStatusServed)
	require.NoError(t, err)

	_, err = f.revert(usecase.LineTypeMenu, line.ID, model.LineStatusPending)
	requireCode(t, err, usecase.CodeInvalidReversal)

	res, err := f.revert(usecase.LineTypeMenu, line.ID, model.LineStatusCooked)
	require.NoError(t, err)
	assert.Equal(t, "cooked", res.Status)
}

func TestAdvance_FeeLineIsNotTransitionable(t *testing.T) {
	f := newFixture(t, model.SeatTypePerTable)
	cola := f.menu("Cola", model.MenuCategoryDrink, 300, 10)
	fee := f.menu("Table charge", model.MenuCategorySeatFee, 500, 1000)
	out := f.order(menuLine(cola.ID, 1), menuLine(fee.ID, 1))
	feeLine := lineFor(t, out, fee.ID)

	_, err := f.advance(usecase.LineTypeMenu, feeLine.ID, model.LineStatusCooked)
	requireCode(t, err, usecase.CodeInvalidTransition)

	// 座席料は完了判定に含めない
	res, err := f.advance(usecase.LineTypeMenu, lineFor(t, out, cola.ID).ID, model.LineStatusServed)
	require.NoError(t, err)
	assert.True(t, res.OrderCompleted)
}

func TestAdvance_SetHeaderMovesComponents(t *testing.T) {
	f := newFixture(t, model.SeatTypeNone)
	cola := f.menu("Cola", model.MenuCategoryDrink, 300, 10)
	burger := f.menu("Burger", model.MenuCategoryMenu, 800, 10)
	combo := f.setMenu("Combo", 1000, item(cola.ID, 2), item(burger.ID, 1))
	out := f.order(setLine(combo.ID, 1))
	set := setFor(t, out, combo.ID)

	f.pub.Reset()
	res, err := f.advance(usecase.LineTypeSet, set.ID, model.LineStatusCooked)
	require.NoError(t, err)
	assert.Equal(t, "cooked", res.Status)
	require.Len(t, res.Children, 2)
	for _, c := range res.Children {
		assert.Equal(t, "cooked", c.Status)
	}
	// 動いたのはハンバーガーだけ + セット本体
	assert.Len(t, f.pub.OfType(event.TypeLineUpdated), 2)

	res, err = f.advance(usecase.LineTypeSet, set.ID, model.LineStatusServed)
	require.NoError(t, err)
	assert.Equal(t, "served", res.Status)
	assert.True(t, res.OrderCompleted)

	_, err = f.advance(usecase.LineTypeSet, set.ID, model.LineStatusServed)
	requireCode(t, err, usecase.CodeInvalidTransition)
}

func TestAdvance_SetChildReportsDerivedSetStatus(t *testing.T) {
	f := newFixture(t, model.SeatTypeNone)
	cola := f.menu("Cola", model.MenuCategoryDrink, 300, 10)
	burger := f.menu("Burger", model.MenuCategoryMenu, 800, 10)
	combo := f.setMenu("Combo", 1000, item(cola.ID, 1), item(burger.ID, 1))
	out := f.order(setLine(combo.ID, 1))
	set := setFor(t, out, combo.ID)

	var burgerChild usecase.LineOutput
	for _, c := range set.Children {
		if c.ItemID == burger.ID {
			burgerChild = c
		}
	}
	require.NotZero(t, burgerChild.ID)

	f.pub.Reset()
	res, err := f.advance(usecase.LineTypeMenu, burgerChild.ID, model.LineStatusCooked)
	require.NoError(t, err)
	require.NotNil(t, res.SetLineID)
	assert.Equal(t, set.ID, *res.SetLineID)
	assert.Equal(t, "cooked", res.SetStatus)

	lu := f.pub.OfType(event.TypeLineUpdated)[0].Payload.(event.LineUpdated)
	require.NotNil(t, lu.SetLineID)
	assert.Equal(t, "cooked", lu.SetStatus)
}

func TestAdvance_OtherBoothCannotSeeLine(t *testing.T) {
	f := newFixture(t, model.SeatTypeNone)
	cola := f.menu("Cola", model.MenuCategoryDrink, 300, 10)
	out := f.order(menuLine(cola.ID, 1))

	_, err := f.lines.Advance(f.ctx, usecase.TransitionInput{
		BoothID: f.booth.ID + 1, Type: usecase.LineTypeMenu, ID: lineFor(t, out, cola.ID).ID, Status: model.LineStatusServed,
	})
	requireCode(t, err, usecase.CodeNotFound)

	_, err = f.advance(usecase.LineTypeMenu, 9999, model.LineStatusServed)
	requireCode(t, err, usecase.CodeNotFound)
}
