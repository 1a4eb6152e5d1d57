package usecase

import (
	"context"
	"errors"
	"time"

	"boothpos/internal/domain/model"
	"boothpos/internal/event"
	repo "boothpos/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	booths    repo.BoothRepository
	tables    repo.TableRepository
	validator InputValidator
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	booths repo.BoothRepository,
	tables repo.TableRepository,
	validator InputValidator,
	publisher EventPublisher,
	logger *zap.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:        tx,
		booths:    booths,
		tables:    tables,
		validator: validator,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

type CreateOrderInput struct {
	BoothID  int64
	TableID  int64
	CartID   int64
	Password string
}

type CreateOrderOutput struct {
	OrderID        int64        `json:"order_id"`
	TableNum       int          `json:"table_num"`
	OrderAmount    int64        `json:"order_amount"`
	Subtotal       int64        `json:"subtotal"`
	FeeAmount      int64        `json:"fee_amount"`
	CouponDiscount int64        `json:"coupon_discount,omitempty"`
	OrderStatus    string       `json:"order_status"`
	Lines          []LineOutput `json:"lines"`
}

// カートから組み立てた注文内容
type orderPlan struct {
	direct   []model.OrderMenu
	sets     []plannedSet
	required map[int64]int64 // menu_id → 必要在庫
	menus    map[int64]model.Menu
	subtotal int64
	fee      int64
}

type plannedSet struct {
	set      model.OrderSetMenu
	children []model.OrderMenu
}

// カートを注文に確定する。在庫チェックが全部通ってから書き込む
func (u *OrderUsecase) CreateOrder(ctx context.Context, in CreateOrderInput) (out CreateOrderOutput, err error) {
	ctx, span := tracer.Start(ctx, "OrderUsecase.CreateOrder", trace.WithAttributes(
		attribute.Int64("booth_id", in.BoothID),
		attribute.Int64("table_id", in.TableID),
		attribute.Int64("cart_id", in.CartID),
	))
	defer func() {
		logResult(u.logger, "create order failed", err,
			zap.Int64("booth_id", in.BoothID), zap.Int64("cart_id", in.CartID))
		endSpan(span, err)
	}()

	if err := u.validator.ValidateCreateOrder(in); err != nil {
		return CreateOrderOutput{}, err
	}

	booth, err := u.booths.FindByID(ctx, in.BoothID)
	if errors.Is(err, repo.ErrNotFound) {
		return CreateOrderOutput{}, ErrNotFound("booth", in.BoothID)
	}
	if err != nil {
		return CreateOrderOutput{}, ErrInternal(err)
	}

	//4桁の確認用パスワード
	if err := bcrypt.CompareHashAndPassword([]byte(booth.OrderPasswordHash), []byte(in.Password)); err != nil {
		return CreateOrderOutput{}, ErrInvalidPassword()
	}

	table, err := u.tables.FindByID(ctx, in.TableID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && table.BoothID != booth.ID) {
		return CreateOrderOutput{}, ErrNotFound("table", in.TableID)
	}
	if err != nil {
		return CreateOrderOutput{}, ErrInternal(err)
	}
	if !table.IsActive() {
		return CreateOrderOutput{}, ErrTableInactive(table.TableNum)
	}

	var revenue, seq int64
	var lineCount int

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// テーブル → カート → 在庫 → ブース の順でロック。
		// セッション境界（activated_at）はロックを取ってから読み直す
		locked, err := r.Tables().FindByIDForUpdate(ctx, table.ID)
		if err != nil {
			return ErrInternal(err)
		}
		table = locked
		if !table.IsActive() {
			return ErrTableInactive(table.TableNum)
		}

		//同じカートの二重注文を防ぐ
		cart, err := r.Carts().FindByIDForUpdate(ctx, in.CartID)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && cart.TableID != table.ID) {
			return ErrNotFound("cart", in.CartID)
		}
		if err != nil {
			return ErrInternal(err)
		}
		if cart.IsOrdered {
			return ErrCartAlreadyOrdered(cart.ID)
		}

		cartMenus, err := r.Carts().ListMenus(ctx, cart.ID)
		if err != nil {
			return ErrInternal(err)
		}
		cartSets, err := r.Carts().ListSetMenus(ctx, cart.ID)
		if err != nil {
			return ErrInternal(err)
		}
		if len(cartMenus)+len(cartSets) == 0 {
			return ErrEmptyCart()
		}

		plan, err := u.buildPlan(ctx, r, booth, cartMenus, cartSets)
		if err != nil {
			return err
		}

		//セッション最初の注文は座席料が必要
		if err := u.checkSeatFee(ctx, r, booth, table, plan); err != nil {
			return err
		}

		//在庫チェック（書き込み前に全部）
		menuIDs := sortedKeys(plan.required)
		for _, id := range menuIDs {
			m := plan.menus[id]
			if m.Amount < plan.required[id] {
				return ErrInsufficientStock(m.Name, plan.required[id], m.Amount)
			}
		}

		//クーポン
		var coupon *model.TableCoupon
		var discount int64
		if cart.TableCouponID != nil {
			tc, err := r.Coupons().FindTableCouponForUpdate(ctx, *cart.TableCouponID)
			if errors.Is(err, repo.ErrNotFound) {
				return ErrNotFound("coupon", *cart.TableCouponID)
			}
			if err != nil {
				return ErrInternal(err)
			}
			if tc.TableID != table.ID || tc.Coupon.BoothID != booth.ID || tc.UsedAt != nil {
				return ErrValidation("coupon is not usable")
			}
			coupon = &tc
			discount = tc.Coupon.DiscountFor(plan.subtotal)
		}

		// ここから書き込み
		now := u.now()
		all := append([]model.OrderMenu{}, plan.direct...)
		for _, ps := range plan.sets {
			all = append(all, ps.children...)
		}

		order := model.Order{
			BoothID:        booth.ID,
			TableID:        table.ID,
			OrderAmount:    plan.subtotal + plan.fee - discount,
			Subtotal:       plan.subtotal,
			FeeAmount:      plan.fee,
			CouponDiscount: discount,
			OrderStatus:    model.DeriveOrderStatus(all),
			CartID:         cart.ID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return ErrInternal(err)
		}
		order.ID = orderID

		menus, err := r.Lines().CreateMenus(ctx, orderID, plan.direct)
		if err != nil {
			return ErrInternal(err)
		}
		sets := make([]model.OrderSetMenu, 0, len(plan.sets))
		for _, ps := range plan.sets {
			ps.set.OrderID = orderID
			set, err := r.Lines().CreateSetMenu(ctx, ps.set)
			if err != nil {
				return ErrInternal(err)
			}
			setID := set.ID
			for i := range ps.children {
				ps.children[i].OrderSetMenuID = &setID
			}
			children, err := r.Lines().CreateMenus(ctx, orderID, ps.children)
			if err != nil {
				return ErrInternal(err)
			}
			sets = append(sets, set)
			menus = append(menus, children...)
		}

		//在庫を減らして履歴を残す
		for _, id := range menuIDs {
			need := plan.required[id]
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, id, need)
			if err != nil {
				return ErrInternal(err)
			}
			if !ok {
				m := plan.menus[id]
				return ErrInsufficientStock(m.Name, need, m.Amount)
			}
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				MenuID:  id,
				OrderID: orderID,
				Delta:   -need,
				Reason:  model.AdjustmentReasonOrderReserve,
			}); err != nil {
				return ErrInternal(err)
			}
		}

		if coupon != nil {
			ok, err := r.Coupons().MarkUsed(ctx, coupon.ID, now)
			if err != nil {
				return ErrInternal(err)
			}
			if !ok {
				return ErrValidation("coupon is not usable")
			}
		}

		revenue, err = r.Booths().AddRevenue(ctx, booth.ID, order.OrderAmount)
		if err != nil {
			return ErrInternal(err)
		}
		seq, err = r.Booths().NextEventSeq(ctx, booth.ID)
		if err != nil {
			return ErrInternal(err)
		}

		if err := r.Carts().MarkOrdered(ctx, cart.ID, now); err != nil {
			return ErrInternal(err)
		}

		lineCount = len(menus) + len(sets)
		out = CreateOrderOutput{
			OrderID:        orderID,
			TableNum:       table.TableNum,
			OrderAmount:    order.OrderAmount,
			Subtotal:       order.Subtotal,
			FeeAmount:      order.FeeAmount,
			CouponDiscount: order.CouponDiscount,
			OrderStatus:    string(order.OrderStatus),
			Lines:          buildLineOutputs(menus, sets),
		}
		return nil
	})
	if err != nil {
		return CreateOrderOutput{}, wrap(err)
	}

	u.publisher.Publish(event.Sequence(seq, []event.Event{
		event.OrderCreatedEvent(booth.ID, event.OrderCreated{
			OrderID:     out.OrderID,
			TableNum:    out.TableNum,
			OrderAmount: out.OrderAmount,
			LineCount:   lineCount,
		}),
		event.RevenueUpdatedEvent(booth.ID, revenue),
	})...)
	u.logger.Info("order created",
		zap.Int64("booth_id", booth.ID),
		zap.Int64("order_id", out.OrderID),
		zap.Int64("order_amount", out.OrderAmount),
	)
	return out, nil
}

// カタログを引いて明細・必要在庫・金額を組み立てる。在庫はここでロックする
func (u *OrderUsecase) buildPlan(ctx context.Context, r repo.TxRepos, booth model.Booth, cartMenus []model.CartMenu, cartSets []model.CartSetMenu) (orderPlan, error) {
	plan := orderPlan{required: map[int64]int64{}}

	setIDs := make([]int64, 0, len(cartSets))
	for _, cs := range cartSets {
		if cs.Quantity <= 0 {
			return orderPlan{}, ErrValidation("quantity must be positive")
		}
		setIDs = append(setIDs, cs.SetMenuID)
	}
	catalogSets, err := r.Menus().FindSetMenusByIDs(ctx, uniqueSorted(setIDs))
	if err != nil {
		return orderPlan{}, ErrInternal(err)
	}
	setByID := make(map[int64]model.SetMenu, len(catalogSets))
	for _, s := range catalogSets {
		setByID[s.ID] = s
	}

	menuIDs := []int64{}
	for _, cm := range cartMenus {
		if cm.Quantity <= 0 {
			return orderPlan{}, ErrValidation("quantity must be positive")
		}
		menuIDs = append(menuIDs, cm.MenuID)
	}
	for _, cs := range cartSets {
		s, ok := setByID[cs.SetMenuID]
		if !ok || s.BoothID != booth.ID {
			return orderPlan{}, ErrNotFound("set menu", cs.SetMenuID)
		}
		for _, it := range s.Items {
			menuIDs = append(menuIDs, it.MenuID)
		}
	}

	//ID昇順でロック
	locked, err := r.Inventory().LockMenus(ctx, uniqueSorted(menuIDs))
	if err != nil {
		return orderPlan{}, ErrInternal(err)
	}
	plan.menus = make(map[int64]model.Menu, len(locked))
	for _, m := range locked {
		plan.menus[m.ID] = m
	}
	lookup := func(id int64) (model.Menu, error) {
		m, ok := plan.menus[id]
		if !ok || m.BoothID != booth.ID {
			return model.Menu{}, ErrNotFound("menu", id)
		}
		return m, nil
	}

	for _, cm := range cartMenus {
		m, err := lookup(cm.MenuID)
		if err != nil {
			return orderPlan{}, err
		}
		plan.direct = append(plan.direct, model.OrderMenu{
			MenuID:     m.ID,
			Quantity:   cm.Quantity,
			FixedPrice: m.Price,
			MenuName:   m.Name,
			Category:   m.Category,
			Status:     model.InitialStatus(m.Category),
		})
		plan.required[m.ID] += cm.Quantity
		if m.Category.IsFee() {
			plan.fee += m.Price * cm.Quantity
		} else {
			plan.subtotal += m.Price * cm.Quantity
		}
	}

	for _, cs := range cartSets {
		s := setByID[cs.SetMenuID]
		if len(s.Items) == 0 {
			return orderPlan{}, ErrValidation("set menu has no items")
		}
		ps := plannedSet{set: model.OrderSetMenu{
			SetMenuID:  s.ID,
			SetName:    s.Name,
			Quantity:   cs.Quantity,
			FixedPrice: s.Price,
		}}
		for _, it := range s.Items {
			m, err := lookup(it.MenuID)
			if err != nil {
				return orderPlan{}, err
			}
			if it.Quantity <= 0 {
				return orderPlan{}, ErrValidation("set menu item quantity must be positive")
			}
			ps.children = append(ps.children, model.OrderMenu{
				MenuID:       m.ID,
				Quantity:     it.Quantity * cs.Quantity,
				FixedPrice:   0,
				MenuName:     m.Name,
				Category:     m.Category,
				Status:       model.InitialStatus(m.Category),
				UnitQuantity: it.Quantity,
			})
			plan.required[m.ID] += it.Quantity * cs.Quantity
		}
		plan.sets = append(plan.sets, ps)
		plan.subtotal += s.Price * cs.Quantity
	}

	return plan, nil
}

func (u *OrderUsecase) checkSeatFee(ctx context.Context, r repo.TxRepos, booth model.Booth, table model.Table, plan orderPlan) error {
	required := booth.RequiredFeeCategory()
	if required == "" {
		return nil
	}
	for _, l := range plan.direct {
		if l.Category == required {
			return nil
		}
	}
	n, err := r.Orders().CountByTableSince(ctx, table.ID, *table.ActivatedAt)
	if err != nil {
		return ErrInternal(err)
	}
	if n == 0 {
		return ErrMissingRequiredFee(string(required))
	}
	return nil
}
