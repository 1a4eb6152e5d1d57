package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"boothpos/internal/domain/model"
	"boothpos/internal/event"
	repo "boothpos/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// スキップ理由
const (
	SkipReasonServed                  = "served"
	SkipReasonNotFound                = "not_found"
	SkipReasonInsufficientCancellable = "insufficient_cancellable"
)

type CancelUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	lines     repo.OrderLineRepository
	validator InputValidator
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewCancelUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	lines repo.OrderLineRepository,
	validator InputValidator,
	publisher EventPublisher,
	logger *zap.Logger,
) *CancelUsecase {
	return &CancelUsecase{
		tx:        tx,
		orders:    orders,
		lines:     lines,
		validator: validator,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

type CancelItemInput struct {
	Type     string  // menu / set
	LineIDs  []int64 // 同じ商品の明細（新しいものから減らす）
	Quantity int64
}

type CancelInput struct {
	BoothID int64
	Items   []CancelItemInput
}

type RestoredStock struct {
	MenuID     int64 `json:"menu_id"`
	Quantity   int64 `json:"quantity"`
	StockAfter int64 `json:"stock_after"`
}

type UpdatedItem struct {
	Type              string          `json:"type"`
	LineID            int64           `json:"line_id"`
	OrderID           int64           `json:"order_id"`
	Name              string          `json:"name"`
	CancelledQuantity int64           `json:"cancelled_quantity"`
	RemainingQuantity int64           `json:"remaining_quantity"`
	Refund            int64           `json:"refund"`
	RestoredStock     []RestoredStock `json:"restored_stock"`
}

type SkippedItem struct {
	Type     string `json:"type"`
	LineID   int64  `json:"line_id,omitempty"`
	Quantity int64  `json:"quantity,omitempty"`
	Reason   string `json:"reason"`
}

type CancelOutput struct {
	RefundTotal       int64         `json:"refund_total"`
	BoothRevenueAfter int64         `json:"booth_revenue_after"`
	UpdatedItems      []UpdatedItem `json:"updated_items"`
	SkippedItems      []SkippedItem `json:"skipped_items"`
	Partial           bool          `json:"partial"`
}

// 事前チェックを通ったリクエスト
type cancelRequest struct {
	item     CancelItemInput
	orderIDs []int64
}

// Tx内で積み上げる変更
type cancelBatch struct {
	boothID   int64
	tableNums map[int64]int // order_id → テーブル番号
	updated   []UpdatedItem
	skipped   []SkippedItem
	restore   map[int64]int64           // menu_id → 戻す数
	adjust    map[int64]map[int64]int64 // menu_id → order_id → 戻す数
	refunds   map[int64]int64           // order_id → 返金額
	events    []event.Event
	children  map[int64][]model.OrderMenu
}

func (b *cancelBatch) restoreStock(menuID, orderID, qty int64) {
	b.restore[menuID] += qty
	if b.adjust[menuID] == nil {
		b.adjust[menuID] = map[int64]int64{}
	}
	b.adjust[menuID][orderID] += qty
}

// キャンセル。
// 1) ロックなしで検証と「要求数 > キャンセル可能数」の事前チェック（ここで落ちたら何も書かない）
// 2) Tx内でロックし直して再計算し、新しい明細から減らす。途中で変わっていた分は skipped に積む
func (u *CancelUsecase) Cancel(ctx context.Context, in CancelInput) (out CancelOutput, err error) {
	ctx, span := tracer.Start(ctx, "CancelUsecase.Cancel", trace.WithAttributes(
		attribute.Int64("booth_id", in.BoothID),
		attribute.Int("items", len(in.Items)),
	))
	defer func() {
		logResult(u.logger, "cancel failed", err, zap.Int64("booth_id", in.BoothID))
		endSpan(span, err)
	}()

	if err := u.validator.ValidateCancel(in); err != nil {
		return CancelOutput{}, err
	}

	active, preSkipped, err := u.precheck(ctx, in)
	if err != nil {
		return CancelOutput{}, err
	}
	if len(active) == 0 {
		return CancelOutput{}, ErrNothingCancellable(preSkipped)
	}

	batch := &cancelBatch{
		boothID:   in.BoothID,
		tableNums: map[int64]int{},
		skipped:   preSkipped,
		restore:   map[int64]int64{},
		adjust:    map[int64]map[int64]int64{},
		refunds:   map[int64]int64{},
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var orderIDs, menuIDs, setIDs []int64
		for _, req := range active {
			orderIDs = append(orderIDs, req.orderIDs...)
			if req.item.Type == LineTypeSet {
				setIDs = append(setIDs, req.item.LineIDs...)
			} else {
				menuIDs = append(menuIDs, req.item.LineIDs...)
			}
		}

		// 注文 → 明細 の順でロック
		orders, err := r.Orders().LockByIDs(ctx, uniqueSorted(orderIDs))
		if err != nil {
			return ErrInternal(err)
		}
		orderByID := make(map[int64]model.Order, len(orders))
		for _, o := range orders {
			orderByID[o.ID] = o
			if _, ok := batch.tableNums[o.ID]; ok {
				continue
			}
			t, err := r.Tables().FindByID(ctx, o.TableID)
			if err != nil {
				return ErrInternal(err)
			}
			batch.tableNums[o.ID] = t.TableNum
		}

		menus, err := r.Lines().LockMenus(ctx, uniqueSorted(menuIDs))
		if err != nil {
			return ErrInternal(err)
		}
		sets, err := r.Lines().LockSetMenus(ctx, uniqueSorted(setIDs))
		if err != nil {
			return ErrInternal(err)
		}
		children, err := r.Lines().LockChildren(ctx, uniqueSorted(setIDs))
		if err != nil {
			return ErrInternal(err)
		}
		batch.children = groupChildren(children)

		beforeLines, err := r.Lines().ListMenusByOrderIDs(ctx, uniqueSorted(orderIDs))
		if err != nil {
			return ErrInternal(err)
		}

		menuByID := make(map[int64]model.OrderMenu, len(menus))
		for _, m := range menus {
			menuByID[m.ID] = m
		}
		setByID := make(map[int64]model.OrderSetMenu, len(sets))
		for _, s := range sets {
			setByID[s.ID] = s
		}

		for _, req := range active {
			var err error
			if req.item.Type == LineTypeSet {
				err = u.cancelSets(ctx, r, req.item, setByID, batch)
			} else {
				err = u.cancelMenus(ctx, r, req.item, menuByID, batch)
			}
			if err != nil {
				return err
			}
		}

		if len(batch.updated) == 0 {
			return ErrNothingCancellable(batch.skipped)
		}

		// 在庫（menu_id 昇順）
		stockAfter, err := u.applyStock(ctx, r, batch)
		if err != nil {
			return err
		}
		for i := range batch.updated {
			for j := range batch.updated[i].RestoredStock {
				rs := &batch.updated[i].RestoredStock[j]
				rs.StockAfter = stockAfter[rs.MenuID]
			}
		}

		// 注文金額・ステータス
		var reduction int64
		for _, id := range sortedKeys(batch.refunds) {
			o, ok := orderByID[id]
			if !ok {
				return ErrInvariant(errors.New("cancelled line without locked order"))
			}
			drop, err := u.settleOrder(ctx, r, o, filterByOrder(beforeLines, id), batch)
			if err != nil {
				return err
			}
			reduction += drop
		}

		// 最後にブース
		if _, err := r.Booths().FindByIDForUpdate(ctx, in.BoothID); err != nil {
			return ErrInternal(err)
		}
		revenue, err := r.Booths().AddRevenue(ctx, in.BoothID, -reduction)
		if err != nil {
			return ErrInternal(err)
		}
		seq, err := r.Booths().NextEventSeq(ctx, in.BoothID)
		if err != nil {
			return ErrInternal(err)
		}

		batch.events = append(batch.events, event.RevenueUpdatedEvent(in.BoothID, revenue))
		event.Sequence(seq, batch.events)
		out = CancelOutput{
			RefundTotal:       reduction,
			BoothRevenueAfter: revenue,
			UpdatedItems:      batch.updated,
			SkippedItems:      batch.skipped,
			Partial:           len(batch.skipped) > 0,
		}
		return nil
	})
	if err != nil {
		return CancelOutput{}, wrap(err)
	}
	if out.SkippedItems == nil {
		out.SkippedItems = []SkippedItem{}
	}

	u.publisher.Publish(batch.events...)
	u.logger.Info("lines cancelled",
		zap.Int64("booth_id", in.BoothID),
		zap.Int64("refund_total", out.RefundTotal),
		zap.Int("updated", len(out.UpdatedItems)),
		zap.Int("skipped", len(out.SkippedItems)),
	)
	return out, nil
}

// ロックなしのスナップショットで検証する
func (u *CancelUsecase) precheck(ctx context.Context, in CancelInput) ([]cancelRequest, []SkippedItem, error) {
	var active []cancelRequest
	var skipped []SkippedItem
	orderCache := map[int64]model.Order{}

	ownOrder := func(orderID int64, lineType string, lineID int64) error {
		o, ok := orderCache[orderID]
		if !ok {
			var err error
			o, err = u.orders.FindByID(ctx, orderID)
			if errors.Is(err, repo.ErrNotFound) {
				return ErrNotFound(lineType+" line", lineID)
			}
			if err != nil {
				return ErrInternal(err)
			}
			orderCache[orderID] = o
		}
		if o.BoothID != in.BoothID {
			return ErrNotFound(lineType+" line", lineID)
		}
		return nil
	}

	for _, it := range in.Items {
		var eligible int64
		var orderIDs []int64

		if it.Type == LineTypeSet {
			sets, err := u.lines.FindSetMenusByIDs(ctx, uniqueSorted(it.LineIDs))
			if err != nil {
				return nil, nil, ErrInternal(err)
			}
			byID := make(map[int64]model.OrderSetMenu, len(sets))
			for _, s := range sets {
				byID[s.ID] = s
			}
			children, err := u.lines.ListChildren(ctx, uniqueSorted(it.LineIDs))
			if err != nil {
				return nil, nil, ErrInternal(err)
			}
			grouped := groupChildren(children)
			for _, id := range it.LineIDs {
				s, ok := byID[id]
				if !ok {
					return nil, nil, ErrNotFound("set line", id)
				}
				if err := ownOrder(s.OrderID, LineTypeSet, id); err != nil {
					return nil, nil, err
				}
				n, err := model.CancellableSetQuantity(s, grouped[id])
				if err != nil {
					return nil, nil, ErrInvariant(err)
				}
				eligible += n
				orderIDs = append(orderIDs, s.OrderID)
			}
		} else {
			menus, err := u.lines.FindMenusByIDs(ctx, uniqueSorted(it.LineIDs))
			if err != nil {
				return nil, nil, ErrInternal(err)
			}
			byID := make(map[int64]model.OrderMenu, len(menus))
			for _, m := range menus {
				byID[m.ID] = m
			}
			for _, id := range it.LineIDs {
				m, ok := byID[id]
				if !ok {
					return nil, nil, ErrNotFound("menu line", id)
				}
				if err := ownOrder(m.OrderID, LineTypeMenu, id); err != nil {
					return nil, nil, err
				}
				if m.IsSetChild() {
					return nil, nil, ErrValidation("set component lines are cancelled through their set")
				}
				eligible += model.CancellableMenuQuantity(m)
				orderIDs = append(orderIDs, m.OrderID)
			}
		}

		//全部 served なら書き込みせずスキップ
		if eligible == 0 {
			for _, id := range it.LineIDs {
				skipped = append(skipped, SkippedItem{Type: it.Type, LineID: id, Reason: SkipReasonServed})
			}
			continue
		}
		if it.Quantity > eligible {
			return nil, nil, ErrExceedsCancellable(it.Type, it.Quantity, eligible)
		}
		active = append(active, cancelRequest{item: it, orderIDs: orderIDs})
	}
	return active, skipped, nil
}

func (u *CancelUsecase) cancelMenus(ctx context.Context, r repo.TxRepos, it CancelItemInput, locked map[int64]model.OrderMenu, b *cancelBatch) error {
	lines := make([]model.OrderMenu, 0, len(it.LineIDs))
	for _, id := range it.LineIDs {
		m, ok := locked[id]
		if !ok {
			b.skipped = append(b.skipped, SkippedItem{Type: LineTypeMenu, LineID: id, Reason: SkipReasonNotFound})
			continue
		}
		lines = append(lines, m)
	}
	sortNewestFirst(lines)

	//提供済みの行は、要求数を満たせなかったときだけ skipped に出す
	var served []SkippedItem
	remaining := it.Quantity
	for _, m := range lines {
		if remaining == 0 {
			break
		}
		c := model.CancellableMenuQuantity(m)
		if c == 0 {
			served = append(served, SkippedItem{Type: LineTypeMenu, LineID: m.ID, Reason: SkipReasonServed})
			continue
		}
		take := min(remaining, c)
		left := m.Quantity - take
		if err := u.shrinkMenu(ctx, r, m.ID, left); err != nil {
			return err
		}
		b.restoreStock(m.MenuID, m.OrderID, take)
		refund := m.FixedPrice * take
		b.refunds[m.OrderID] += refund
		b.updated = append(b.updated, UpdatedItem{
			Type:              LineTypeMenu,
			LineID:            m.ID,
			OrderID:           m.OrderID,
			Name:              m.MenuName,
			CancelledQuantity: take,
			RemainingQuantity: left,
			Refund:            refund,
			RestoredStock:     []RestoredStock{{MenuID: m.MenuID, Quantity: take}},
		})
		b.events = append(b.events, b.lineEvent(LineTypeMenu, m.ID, m.OrderID, m.MenuName, m.Status, left, nil, ""))
		remaining -= take
	}

	if remaining > 0 {
		b.skipped = append(b.skipped, served...)
		b.skipped = append(b.skipped, SkippedItem{Type: LineTypeMenu, Quantity: remaining, Reason: SkipReasonInsufficientCancellable})
	}
	return nil
}

func (u *CancelUsecase) cancelSets(ctx context.Context, r repo.TxRepos, it CancelItemInput, locked map[int64]model.OrderSetMenu, b *cancelBatch) error {
	sets := make([]model.OrderSetMenu, 0, len(it.LineIDs))
	for _, id := range it.LineIDs {
		s, ok := locked[id]
		if !ok {
			b.skipped = append(b.skipped, SkippedItem{Type: LineTypeSet, LineID: id, Reason: SkipReasonNotFound})
			continue
		}
		sets = append(sets, s)
	}
	sort.SliceStable(sets, func(i, j int) bool {
		if !sets[i].CreatedAt.Equal(sets[j].CreatedAt) {
			return sets[i].CreatedAt.After(sets[j].CreatedAt)
		}
		return sets[i].ID > sets[j].ID
	})

	var served []SkippedItem
	remaining := it.Quantity
	for _, s := range sets {
		if remaining == 0 {
			break
		}
		children := b.children[s.ID]
		n, err := model.CancellableSetQuantity(s, children)
		if err != nil {
			//数量が割り切れない等はデータ不整合。全部ロールバック
			return ErrInvariant(err)
		}
		if n == 0 {
			served = append(served, SkippedItem{Type: LineTypeSet, LineID: s.ID, Reason: SkipReasonServed})
			continue
		}
		take := min(remaining, n)
		setLeft := s.Quantity - take

		item := UpdatedItem{
			Type:              LineTypeSet,
			LineID:            s.ID,
			OrderID:           s.OrderID,
			Name:              s.SetName,
			CancelledQuantity: take,
			RemainingQuantity: setLeft,
			Refund:            s.FixedPrice * take,
		}

		setID := s.ID
		touched := make([]model.OrderMenu, 0, len(children))
		remainingChildren := make([]model.OrderMenu, 0, len(children))
		for _, c := range children {
			dec := c.UnitQuantity * take
			left := c.Quantity - dec
			if err := u.shrinkMenu(ctx, r, c.ID, left); err != nil {
				return err
			}
			b.restoreStock(c.MenuID, s.OrderID, dec)
			item.RestoredStock = append(item.RestoredStock, RestoredStock{MenuID: c.MenuID, Quantity: dec})
			c.Quantity = left
			touched = append(touched, c)
			if left > 0 {
				remainingChildren = append(remainingChildren, c)
			}
		}
		b.children[s.ID] = remainingChildren

		setStatus := model.DeriveStatus(remainingChildren)
		for _, c := range touched {
			b.events = append(b.events, b.lineEvent(LineTypeMenu, c.ID, c.OrderID, c.MenuName, c.Status, c.Quantity, &setID, string(setStatus)))
		}

		if setLeft == 0 {
			if err := r.Lines().DeleteSetMenu(ctx, s.ID); err != nil {
				return ErrInternal(err)
			}
		} else if err := r.Lines().UpdateSetMenuQuantity(ctx, s.ID, setLeft); err != nil {
			return ErrInternal(err)
		}

		b.refunds[s.OrderID] += item.Refund
		b.updated = append(b.updated, item)
		b.events = append(b.events, b.lineEvent(LineTypeSet, s.ID, s.OrderID, s.SetName, setStatus, setLeft, nil, ""))
		remaining -= take
	}

	if remaining > 0 {
		b.skipped = append(b.skipped, served...)
		b.skipped = append(b.skipped, SkippedItem{Type: LineTypeSet, Quantity: remaining, Reason: SkipReasonInsufficientCancellable})
	}
	return nil
}

// 0 になったら行ごと消す
func (u *CancelUsecase) shrinkMenu(ctx context.Context, r repo.TxRepos, lineID int64, left int64) error {
	var err error
	if left == 0 {
		err = r.Lines().DeleteMenu(ctx, lineID)
	} else {
		err = r.Lines().UpdateMenuQuantity(ctx, lineID, left)
	}
	if err != nil {
		return ErrInternal(err)
	}
	return nil
}

func (u *CancelUsecase) applyStock(ctx context.Context, r repo.TxRepos, b *cancelBatch) (map[int64]int64, error) {
	after := make(map[int64]int64, len(b.restore))
	for _, menuID := range sortedKeys(b.restore) {
		amount, err := r.Inventory().IncreaseStock(ctx, menuID, b.restore[menuID])
		if err != nil {
			return nil, ErrInternal(err)
		}
		after[menuID] = amount

		perOrder := b.adjust[menuID]
		for _, orderID := range sortedKeys(perOrder) {
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				MenuID:  menuID,
				OrderID: orderID,
				Delta:   perOrder[orderID],
				Reason:  model.AdjustmentReasonOrderCancel,
			}); err != nil {
				return nil, ErrInternal(err)
			}
		}
	}
	return after, nil
}

// 注文金額を減らし（0未満にしない）、ステータスを合わせる。実際に減った額を返す
func (u *CancelUsecase) settleOrder(ctx context.Context, r repo.TxRepos, o model.Order, before []model.OrderMenu, b *cancelBatch) (int64, error) {
	amount := o.OrderAmount - b.refunds[o.ID]
	if amount < 0 {
		amount = 0
	}
	drop := o.OrderAmount - amount
	if drop != 0 {
		if err := r.Orders().UpdateAmount(ctx, o.ID, amount); err != nil {
			return 0, ErrInternal(err)
		}
	}

	after, err := r.Lines().ListMenusByOrderIDs(ctx, []int64{o.ID})
	if err != nil {
		return 0, ErrInternal(err)
	}
	status, completed, err := syncOrderStatus(ctx, r, o, before, after, u.now())
	if err != nil {
		return 0, err
	}

	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		BoothID:      o.BoothID,
		Action:       model.AuditActionCancelLines,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   o.ID,
		BeforeJSON:   toJSON(map[string]any{"order_amount": o.OrderAmount, "order_status": o.OrderStatus}),
		AfterJSON: toJSON(map[string]any{
			"order_amount": amount,
			"order_status": status,
			"items":        itemsForOrder(b.updated, o.ID),
		}),
		CreatedAt: u.now(),
	}); err != nil {
		return 0, ErrInternal(err)
	}

	if completed {
		b.events = append(b.events, event.OrderCompletedEvent(o.BoothID, o.ID, b.tableNums[o.ID]))
	}
	return drop, nil
}

// 残り0の明細は cancelled として流す
func (b *cancelBatch) lineEvent(lineType string, id, orderID int64, name string, status model.LineStatus, left int64, setLineID *int64, setStatus string) event.Event {
	st := string(status)
	if left == 0 {
		st = string(model.LineStatusCancelled)
	}
	return event.LineUpdatedEvent(b.boothID, event.LineUpdated{
		LineType:  lineType,
		LineID:    id,
		OrderID:   orderID,
		TableNum:  b.tableNums[orderID],
		Name:      name,
		Status:    st,
		Quantity:  left,
		SetLineID: setLineID,
		SetStatus: setStatus,
	})
}

func sortNewestFirst(lines []model.OrderMenu) {
	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].CreatedAt.Equal(lines[j].CreatedAt) {
			return lines[i].CreatedAt.After(lines[j].CreatedAt)
		}
		return lines[i].ID > lines[j].ID
	})
}

func filterByOrder(lines []model.OrderMenu, orderID int64) []model.OrderMenu {
	out := []model.OrderMenu{}
	for _, l := range lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	return out
}

func itemsForOrder(items []UpdatedItem, orderID int64) []UpdatedItem {
	out := []UpdatedItem{}
	for _, it := range items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	return out
}
