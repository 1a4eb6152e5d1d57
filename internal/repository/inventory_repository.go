package repository

import (
	"context"

	"boothpos/internal/domain/model"
)

// メニュー在庫（カタログ側の amount）の窓口
type InventoryRepository interface {
	// ID昇順でロックして取得
	LockMenus(ctx context.Context, menuIDs []int64) ([]model.Menu, error)

	// 在庫が足りるときだけ減算
	DecreaseStockIfEnough(ctx context.Context, menuID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセル）。戻した後の在庫を返す
	IncreaseStock(ctx context.Context, menuID int64, qty int64) (int64, error)

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
