package usecase_test

import (
	"testing"

	"boothpos/internal/domain/model"
	"boothpos/internal/event"
	"boothpos/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_KitchenAndServingViews(t *testing.T) {
	f := newFixture(t, model.SeatTypePerTable)
	cola := f.menu("Cola", model.MenuCategoryDrink, 300, 10)
	burger := f.menu("Burger", model.MenuCategoryMenu, 800, 10)
	fee := f.menu("Table charge", model.MenuCategorySeatFee, 500, 1000)
	combo := f.setMenu("Combo", 1000, item(cola.ID, 2), item(burger.ID, 1))

	out := f.order(menuLine(burger.ID, 1), menuLine(fee.ID, 1), setLine(combo.ID, 1))
	_, err := f.advance(usecase.LineTypeMenu, lineFor(t, out, burger.ID).ID, model.LineStatusCooked)
	require.NoError(t, err)

	kitchen, err := f.booths.Board(f.ctx, f.booth.ID, usecase.BoardKitchen)
	require.NoError(t, err)
	// 座席料は出さない。セットは構成品で出す
	assert.Len(t, kitchen.Items, 3)
	setRows := 0
	for _, it := range kitchen.Items {
		assert.NotEqual(t, "Table charge", it.Name)
		assert.Equal(t, 1, it.TableNum)
		if it.SetLineID != nil {
			setRows++
			assert.Equal(t, "Combo", it.SetName)
		}
	}
	assert.Equal(t, 2, setRows)
	assert.Equal(t, f.revenue(), kitchen.TotalRevenue)

	// 在庫: cola 8, burger 8 → Combo は min(8/2, 8/1) = 4
	require.Len(t, kitchen.SetCapacities, 1)
	assert.Equal(t, int64(4), kitchen.SetCapacities[0].Remaining)

	serving, err := f.booths.Board(f.ctx, f.booth.ID, usecase.BoardServing)
	require.NoError(t, err)
	// cooked の単品ハンバーガーとセットのコーラ
	assert.Len(t, serving.Items, 2)

	_, err = f.booths.Board(f.ctx, f.booth.ID, "dashboard")
	requireCode(t, err, usecase.CodeInvalidInput)
}

func TestBoard_CompletedOrdersDropOff(t *testing.T) {
	f := newFixture(t, model.SeatTypeNone)
	cola := f.menu("Cola", model.MenuCategoryDrink, 300, 10)
	out := f.order(menuLine(cola.ID, 1))
	_, err := f.advance(usecase.LineTypeMenu, lineFor(t, out, cola.ID).ID, model.LineStatusServed)
	require.NoError(t, err)

	b, err := f.booths.Board(f.ctx, f.booth.ID, usecase.BoardServing)
	require.NoError(t, err)
	assert.Empty(t, b.Items)
}

func TestRevenueAudit_RepairFixesDrift(t *testing.T) {
	f := newFixture(t, model.SeatTypeNone)
	cola := f.menu("Cola", model.MenuCategoryDrink, 300, 10)
	f.order(menuLine(cola.ID, 2))

	a, err := f.booths.AuditRevenue(f.ctx, f.booth.ID)
	require.NoError(t, err)
	assert.True(t, a.Consistent)
	assert.Equal(t, int64(600), a.Computed)

	// 保存値をずらす
	require.NoError(t, f.db.Model(&model.Booth{}).Where("id = ?", f.booth.ID).Update("total_revenue", 1000).Error)

	a, err = f.booths.AuditRevenue(f.ctx, f.booth.ID)
	require.NoError(t, err)
	assert.False(t, a.Consistent)
	assert.Equal(t, int64(400), a.Drift)

	f.pub.Reset()
	r, err := f.booths.RepairRevenue(f.ctx, f.booth.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), r.Stored)
	assert.Equal(t, int64(600), r.Computed)
	assert.Equal(t, int64(600), f.revenue())

	var logs []model.AuditLog
	require.NoError(t, f.db.Where("action = ?", model.AuditActionRepairRevenue).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditResourceBooth, logs[0].ResourceType)

	rev := f.pub.OfType(event.TypeRevenueUpdated)
	require.Len(t, rev, 1)
	assert.Equal(t, int64(600), rev[0].Payload.(event.RevenueUpdated).TotalRevenue)

	// 一致していれば何もしない
	f.pub.Reset()
	r, err = f.booths.RepairRevenue(f.ctx, f.booth.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), r.Drift)
	assert.Empty(t, f.pub.Types())
}

func TestRevenueAudit_StaysConsistentAcrossLifecycle(t *testing.T) {
	f := newFixture(t, model.SeatTypeNone)
	cola := f.menu("Cola", model.MenuCategoryDrink, 300, 20)
	burger := f.menu("Burger", model.MenuCategoryMenu, 800, 20)
	combo := f.setMenu("Combo", 1000, item(cola.ID, 1), item(burger.ID, 1))

	a := f.order(menuLine(cola.ID, 3), setLine(combo.ID, 2))
	b := f.order(menuLine(burger.ID, 2))
	_, err := f.cancel(cancelMenu(1, lineFor(t, a, cola.ID).ID), cancelSet(1, setFor(t, a, combo.ID).ID))
	require.NoError(t, err)
	_, err = f.cancel(cancelMenu(2, lineFor(t, b, burger.ID).ID))
	require.NoError(t, err)

	audit, err := f.booths.AuditRevenue(f.ctx, f.booth.ID)
	require.NoError(t, err)
	assert.True(t, audit.Consistent)
	assert.Equal(t, int64(1600), audit.Stored)

	// 在庫保存: 初期在庫 = 現在庫 + 有効な明細の数量
	assert.Equal(t, int64(20-2-1), f.stock(cola.ID))
	assert.Equal(t, int64(20-1), f.stock(burger.ID))
}
