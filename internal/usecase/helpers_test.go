package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"boothpos/internal/domain/model"
	"boothpos/internal/event"
	"boothpos/internal/infra/db"
	infrarepo "boothpos/internal/infra/repository"
	repo "boothpos/internal/repository"
	"boothpos/internal/usecase"
	"boothpos/internal/validator"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "1234"

// コミット後に流れたイベントを記録する
type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(events ...event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
}

func (p *recordingPublisher) Types() []event.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) OfType(t event.Type) []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []event.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (p *recordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

// sqlite（インメモリ）上に1ブース・1テーブルを用意する
type fixture struct {
	t     *testing.T
	ctx   context.Context
	db    *gorm.DB
	repos repo.TxRepos
	pub   *recordingPublisher

	orders  *usecase.OrderUsecase
	lines   *usecase.LineStatusUsecase
	cancels *usecase.CancelUsecase
	tables  *usecase.TableUsecase
	booths  *usecase.BoothUsecase

	booth model.Booth
	table model.Table
}

func newFixture(t *testing.T, seat model.SeatType) *fixture {
	t.Helper()

	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	booth := model.Booth{
		Name:              "yakisoba",
		OrderPasswordHash: string(hash),
		SeatType:          seat,
		SeatTaxPerson:     200,
		SeatTaxTable:      500,
	}
	require.NoError(t, gdb.Create(&booth).Error)

	activated := time.Now().Add(-time.Hour)
	table := model.Table{
		BoothID:     booth.ID,
		TableNum:    1,
		Status:      model.TableStatusActive,
		ActivatedAt: &activated,
	}
	require.NoError(t, gdb.Create(&table).Error)

	repos := infrarepo.NewRepos(gdb)
	tx := infrarepo.NewTxManagerGorm(gdb)
	pub := &recordingPublisher{}
	v := validator.NewOrderValidator()
	logger := zap.NewNop()

	return &fixture{
		t:       t,
		ctx:     context.Background(),
		db:      gdb,
		repos:   repos,
		pub:     pub,
		orders:  usecase.NewOrderUsecase(tx, repos.Booths(), repos.Tables(), v, pub, logger),
		lines:   usecase.NewLineStatusUsecase(tx, repos.Lines(), v, pub, logger),
		cancels: usecase.NewCancelUsecase(tx, repos.Orders(), repos.Lines(), v, pub, logger),
		tables:  usecase.NewTableUsecase(tx, repos.Tables(), repos.Orders(), repos.Lines(), logger),
		booths:  usecase.NewBoothUsecase(tx, repos.Booths(), repos.Tables(), repos.Menus(), repos.Orders(), repos.Lines(), pub, logger),
		booth:   booth,
		table:   table,
	}
}

// Tx開始の直前に一度だけ before を走らせる。事前チェックとロックの間に他端末が書いた状態を作る
type interleavedTx struct {
	inner  repo.TransactionManager
	before func()
}

func (tm *interleavedTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if tm.before != nil {
		before := tm.before
		tm.before = nil
		before()
	}
	return tm.inner.WithinTx(ctx, fn)
}

func (f *fixture) interleaved(before func()) *interleavedTx {
	return &interleavedTx{inner: infrarepo.NewTxManagerGorm(f.db), before: before}
}

func (f *fixture) cancelsBefore(before func()) *usecase.CancelUsecase {
	return usecase.NewCancelUsecase(f.interleaved(before), f.repos.Orders(), f.repos.Lines(),
		validator.NewOrderValidator(), f.pub, zap.NewNop())
}

func (f *fixture) ordersBefore(before func(), pub usecase.EventPublisher) *usecase.OrderUsecase {
	return usecase.NewOrderUsecase(f.interleaved(before), f.repos.Booths(), f.repos.Tables(),
		validator.NewOrderValidator(), pub, zap.NewNop())
}

func (f *fixture) menu(name string, category model.MenuCategory, price, stock int64) model.Menu {
	f.t.Helper()
	m := model.Menu{BoothID: f.booth.ID, Name: name, Category: category, Price: price, Amount: stock}
	require.NoError(f.t, f.db.Create(&m).Error)
	return m
}

func (f *fixture) setMenu(name string, price int64, items ...model.SetMenuItem) model.SetMenu {
	f.t.Helper()
	s := model.SetMenu{BoothID: f.booth.ID, Name: name, Price: price, Items: items}
	require.NoError(f.t, f.db.Create(&s).Error)
	return s
}

func item(menuID, qty int64) model.SetMenuItem {
	return model.SetMenuItem{MenuID: menuID, Quantity: qty}
}

type cartLine struct {
	menuID int64
	setID  int64
	qty    int64
}

func menuLine(menuID, qty int64) cartLine { return cartLine{menuID: menuID, qty: qty} }
func setLine(setID, qty int64) cartLine   { return cartLine{setID: setID, qty: qty} }

func (f *fixture) cart(lines ...cartLine) model.Cart {
	f.t.Helper()
	c := model.Cart{TableID: f.table.ID}
	require.NoError(f.t, f.db.Create(&c).Error)
	for _, l := range lines {
		if l.setID != 0 {
			require.NoError(f.t, f.db.Create(&model.CartSetMenu{CartID: c.ID, SetMenuID: l.setID, Quantity: l.qty}).Error)
			continue
		}
		require.NoError(f.t, f.db.Create(&model.CartMenu{CartID: c.ID, MenuID: l.menuID, Quantity: l.qty}).Error)
	}
	return c
}

func (f *fixture) createOrder(cartID int64) (usecase.CreateOrderOutput, error) {
	return f.orders.CreateOrder(f.ctx, usecase.CreateOrderInput{
		BoothID:  f.booth.ID,
		TableID:  f.table.ID,
		CartID:   cartID,
		Password: testPassword,
	})
}

// カートを作って注文まで通す
func (f *fixture) order(lines ...cartLine) usecase.CreateOrderOutput {
	f.t.Helper()
	out, err := f.createOrder(f.cart(lines...).ID)
	require.NoError(f.t, err)
	return out
}

func (f *fixture) stock(menuID int64) int64 {
	f.t.Helper()
	var m model.Menu
	require.NoError(f.t, f.db.First(&m, menuID).Error)
	return m.Amount
}

func (f *fixture) revenue() int64 {
	f.t.Helper()
	b, err := f.repos.Booths().FindByID(f.ctx, f.booth.ID)
	require.NoError(f.t, err)
	return b.TotalRevenue
}

func (f *fixture) loadOrder(orderID int64) model.Order {
	f.t.Helper()
	o, err := f.repos.Orders().FindByID(f.ctx, orderID)
	require.NoError(f.t, err)
	return o
}

func (f *fixture) orderLines(orderID int64) []model.OrderMenu {
	f.t.Helper()
	lines, err := f.repos.Lines().ListMenusByOrderIDs(f.ctx, []int64{orderID})
	require.NoError(f.t, err)
	return lines
}

func (f *fixture) count(v any) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(v).Count(&n).Error)
	return n
}

// 注文結果から単品明細（セット以外）を引く
func lineFor(t *testing.T, out usecase.CreateOrderOutput, menuID int64) usecase.LineOutput {
	t.Helper()
	for _, l := range out.Lines {
		if l.Type == usecase.LineTypeMenu && l.ItemID == menuID {
			return l
		}
	}
	t.Fatalf("no line for menu %d", menuID)
	return usecase.LineOutput{}
}

func setFor(t *testing.T, out usecase.CreateOrderOutput, setMenuID int64) usecase.LineOutput {
	t.Helper()
	for _, l := range out.Lines {
		if l.Type == usecase.LineTypeSet && l.ItemID == setMenuID {
			return l
		}
	}
	t.Fatalf("no set line for set menu %d", setMenuID)
	return usecase.LineOutput{}
}

func requireCode(t *testing.T, err error, code string) *usecase.AppError {
	t.Helper()
	require.Error(t, err)
	ae, ok := usecase.AsAppError(err)
	require.True(t, ok, "not an AppError: %v", err)
	require.Equal(t, code, ae.Code, ae.Error())
	return ae
}
