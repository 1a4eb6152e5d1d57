package repository

import "context"

// トランザクション内で使う約束。
// ロック順は 注文 -> 明細 -> 在庫 -> ブース に揃える。
type TxRepos interface {
	Booths() BoothRepository
	Tables() TableRepository
	Menus() MenuRepository
	Inventory() InventoryRepository
	Carts() CartRepository
	Coupons() CouponRepository
	Orders() OrderRepository
	Lines() OrderLineRepository
	AuditLogs() AuditLogRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
