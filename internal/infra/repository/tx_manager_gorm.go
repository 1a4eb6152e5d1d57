package repository

import (
	"context"

	repo "boothpos/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	booths    repo.BoothRepository
	tables    repo.TableRepository
	menus     repo.MenuRepository
	inventory repo.InventoryRepository
	carts     repo.CartRepository
	coupons   repo.CouponRepository
	orders    repo.OrderRepository
	lines     repo.OrderLineRepository
	auditLogs repo.AuditLogRepository
}

func (r *txReposGorm) Booths() repo.BoothRepository        { return r.booths }
func (r *txReposGorm) Tables() repo.TableRepository        { return r.tables }
func (r *txReposGorm) Menus() repo.MenuRepository          { return r.menus }
func (r *txReposGorm) Inventory() repo.InventoryRepository { return r.inventory }
func (r *txReposGorm) Carts() repo.CartRepository          { return r.carts }
func (r *txReposGorm) Coupons() repo.CouponRepository      { return r.coupons }
func (r *txReposGorm) Orders() repo.OrderRepository        { return r.orders }
func (r *txReposGorm) Lines() repo.OrderLineRepository     { return r.lines }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository  { return r.auditLogs }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		return fn(NewRepos(tx))
	})
}

// 非Tx用にも同じ束を使う
func NewRepos(db *gorm.DB) repo.TxRepos {
	return &txReposGorm{
		booths:    NewBoothGormRepository(db),
		tables:    NewTableGormRepository(db),
		menus:     NewMenuGormRepository(db),
		inventory: NewInventoryGormRepository(db),
		carts:     NewCartGormRepository(db),
		coupons:   NewCouponGormRepository(db),
		orders:    NewOrderGormRepository(db),
		lines:     NewOrderLineGormRepository(db),
		auditLogs: NewAuditLogGormRepository(db),
	}
}
