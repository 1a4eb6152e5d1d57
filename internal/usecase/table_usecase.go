package usecase

import (
	"context"
	"errors"
	"time"

	"boothpos/internal/domain/model"
	repo "boothpos/internal/repository"

	"go.uber.org/zap"
)

// テーブルのセッション管理（activated_at から現在まで）
type TableUsecase struct {
	tx     repo.TransactionManager
	tables repo.TableRepository
	orders repo.OrderRepository
	lines  repo.OrderLineRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewTableUsecase(
	tx repo.TransactionManager,
	tables repo.TableRepository,
	orders repo.OrderRepository,
	lines repo.OrderLineRepository,
	logger *zap.Logger,
) *TableUsecase {
	return &TableUsecase{tx: tx, tables: tables, orders: orders, lines: lines, logger: logger, now: time.Now}
}

type TableOutput struct {
	ID            int64      `json:"id"`
	TableNum      int        `json:"table_num"`
	Status        string     `json:"status"`
	ActivatedAt   *time.Time `json:"activated_at"`
	DeactivatedAt *time.Time `json:"deactivated_at"`
}

type SessionOrderOutput struct {
	ID          int64        `json:"id"`
	OrderAmount int64        `json:"order_amount"`
	OrderStatus string       `json:"order_status"`
	CreatedAt   time.Time    `json:"created_at"`
	ServedAt    *time.Time   `json:"served_at"`
	Lines       []LineOutput `json:"lines"`
}

type SessionOutput struct {
	Table       TableOutput          `json:"table"`
	Orders      []SessionOrderOutput `json:"orders"`
	TotalAmount int64                `json:"total_amount"`
}

func toTableOutput(t model.Table) TableOutput {
	return TableOutput{
		ID:            t.ID,
		TableNum:      t.TableNum,
		Status:        string(t.Status),
		ActivatedAt:   t.ActivatedAt,
		DeactivatedAt: t.DeactivatedAt,
	}
}

// 既に active なら何もしない
func (u *TableUsecase) Activate(ctx context.Context, boothID int64, tableNum int) (TableOutput, error) {
	var out TableOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := u.lockTable(ctx, r, boothID, tableNum)
		if err != nil {
			return err
		}
		if t.IsActive() {
			out = toTableOutput(t)
			return nil
		}
		now := u.now()
		if err := r.Tables().Activate(ctx, t.ID, now); err != nil {
			return ErrInternal(err)
		}
		t.Status = model.TableStatusActive
		t.ActivatedAt = &now
		out = toTableOutput(t)
		return nil
	})
	if err != nil {
		logResult(u.logger, "activate table failed", err, zap.Int64("booth_id", boothID), zap.Int("table_num", tableNum))
		return TableOutput{}, wrap(err)
	}
	return out, nil
}

// セッションを閉じる。以後の注文は次のセッションに属する
func (u *TableUsecase) Reset(ctx context.Context, boothID int64, tableNum int) (TableOutput, error) {
	var out TableOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := u.lockTable(ctx, r, boothID, tableNum)
		if err != nil {
			return err
		}
		now := u.now()
		if err := r.Tables().Deactivate(ctx, t.ID, now); err != nil {
			return ErrInternal(err)
		}
		t.Status = model.TableStatusOut
		t.ActivatedAt = nil
		t.DeactivatedAt = &now
		out = toTableOutput(t)
		return nil
	})
	if err != nil {
		logResult(u.logger, "reset table failed", err, zap.Int64("booth_id", boothID), zap.Int("table_num", tableNum))
		return TableOutput{}, wrap(err)
	}
	return out, nil
}

// 現セッションの注文。out のテーブルは空
func (u *TableUsecase) SessionOrders(ctx context.Context, boothID int64, tableNum int) (SessionOutput, error) {
	t, err := u.tables.FindByNum(ctx, boothID, tableNum)
	if errors.Is(err, repo.ErrNotFound) {
		return SessionOutput{}, ErrNotFound("table", int64(tableNum))
	}
	if err != nil {
		return SessionOutput{}, ErrInternal(err)
	}

	out := SessionOutput{Table: toTableOutput(t), Orders: []SessionOrderOutput{}}
	if !t.IsActive() {
		return out, nil
	}

	orders, err := u.orders.ListByTableSince(ctx, t.ID, *t.ActivatedAt)
	if err != nil {
		return SessionOutput{}, ErrInternal(err)
	}
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	menus, err := u.lines.ListMenusByOrderIDs(ctx, ids)
	if err != nil {
		return SessionOutput{}, ErrInternal(err)
	}
	sets, err := u.lines.ListSetMenusByOrderIDs(ctx, ids)
	if err != nil {
		return SessionOutput{}, ErrInternal(err)
	}

	for _, o := range orders {
		out.Orders = append(out.Orders, SessionOrderOutput{
			ID:          o.ID,
			OrderAmount: o.OrderAmount,
			OrderStatus: string(o.OrderStatus),
			CreatedAt:   o.CreatedAt,
			ServedAt:    o.ServedAt,
			Lines:       buildLineOutputs(filterByOrder(menus, o.ID), filterSetsByOrder(sets, o.ID)),
		})
		if o.OrderStatus != model.OrderStatusCancelled {
			out.TotalAmount += o.OrderAmount
		}
	}
	return out, nil
}

func (u *TableUsecase) lockTable(ctx context.Context, r repo.TxRepos, boothID int64, tableNum int) (model.Table, error) {
	t, err := r.Tables().FindByNumForUpdate(ctx, boothID, tableNum)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Table{}, ErrNotFound("table", int64(tableNum))
	}
	if err != nil {
		return model.Table{}, ErrInternal(err)
	}
	return t, nil
}

func filterSetsByOrder(sets []model.OrderSetMenu, orderID int64) []model.OrderSetMenu {
	out := []model.OrderSetMenu{}
	for _, s := range sets {
		if s.OrderID == orderID {
			out = append(out, s)
		}
	}
	return out
}
