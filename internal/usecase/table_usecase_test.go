package usecase_test

import (
	"testing"

	"boothpos/internal/domain/model"
	"boothpos/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSession_ResetStartsNewSession(t *testing.T) {
	f := newFixture(t, model.SeatTypePerTable)
	cola := f.menu("Cola", model.MenuCategoryDrink, 300, 10)
	fee := f.menu("Table charge", model.MenuCategorySeatFee, 500, 1000)

	f.order(menuLine(cola.ID, 1), menuLine(fee.ID, 1))
	f.order(menuLine(cola.ID, 2))

	s, err := f.tables.SessionOrders(f.ctx, f.booth.ID, 1)
	require.NoError(t, err)
	assert.Len(t, s.Orders, 2)
	assert.Equal(t, int64(1400), s.TotalAmount)
	assert.Equal(t, "active", s.Table.Status)

	out, err := f.tables.Reset(f.ctx, f.booth.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "out", out.Status)
	assert.NotNil(t, out.DeactivatedAt)

	s, err = f.tables.SessionOrders(f.ctx, f.booth.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, s.Orders)
	assert.Equal(t, int64(0), s.TotalAmount)

	out, err = f.tables.Activate(f.ctx, f.booth.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "active", out.Status)
	require.NotNil(t, out.ActivatedAt)

	// 新しいセッションでは座席料がまた必要
	_, err = f.createOrder(f.cart(menuLine(cola.ID, 1)).ID)
	requireCode(t, err, usecase.CodeMissingRequiredFee)
}

func TestTableSession_ActivateIsIdempotent(t *testing.T) {
	f := newFixture(t, model.SeatTypeNone)

	first, err := f.tables.Activate(f.ctx, f.booth.ID, 1)
	require.NoError(t, err)
	second, err := f.tables.Activate(f.ctx, f.booth.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, first.ActivatedAt)
	require.NotNil(t, second.ActivatedAt)
	assert.True(t, first.ActivatedAt.Equal(*second.ActivatedAt))
}

func TestTableSession_CancelledOrdersExcludedFromTotal(t *testing.T) {
	f := newFixture(t, model.SeatTypeNone)
	cola := f.menu("Cola", model.MenuCategoryDrink, 300, 10)
	a := f.order(menuLine(cola.ID, 1))
	f.order(menuLine(cola.ID, 1))

	_, err := f.cancel(cancelMenu(1, lineFor(t, a, cola.ID).ID))
	require.NoError(t, err)

	s, err := f.tables.SessionOrders(f.ctx, f.booth.ID, 1)
	require.NoError(t, err)
	require.Len(t, s.Orders, 2)
	assert.Equal(t, string(model.OrderStatusCancelled), s.Orders[0].OrderStatus)
	assert.Empty(t, s.Orders[0].Lines)
	assert.Equal(t, int64(300), s.TotalAmount)
}

func TestTableSession_UnknownTable(t *testing.T) {
	f := newFixture(t, model.SeatTypeNone)

	_, err := f.tables.Activate(f.ctx, f.booth.ID, 42)
	requireCode(t, err, usecase.CodeNotFound)
	_, err = f.tables.SessionOrders(f.ctx, f.booth.ID, 42)
	requireCode(t, err, usecase.CodeNotFound)
}
