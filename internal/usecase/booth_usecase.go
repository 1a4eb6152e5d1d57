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
)

// 画面の種類
const (
	BoardKitchen = "kitchen"
	BoardServing = "serving"
)

// 画面の初期表示と売上の監査
type BoothUsecase struct {
	tx        repo.TransactionManager
	booths    repo.BoothRepository
	tables    repo.TableRepository
	menus     repo.MenuRepository
	orders    repo.OrderRepository
	lines     repo.OrderLineRepository
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewBoothUsecase(
	tx repo.TransactionManager,
	booths repo.BoothRepository,
	tables repo.TableRepository,
	menus repo.MenuRepository,
	orders repo.OrderRepository,
	lines repo.OrderLineRepository,
	publisher EventPublisher,
	logger *zap.Logger,
) *BoothUsecase {
	return &BoothUsecase{
		tx:        tx,
		booths:    booths,
		tables:    tables,
		menus:     menus,
		orders:    orders,
		lines:     lines,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

type BoardItem struct {
	Type      string    `json:"type"`
	LineID    int64     `json:"line_id"`
	OrderID   int64     `json:"order_id"`
	TableNum  int       `json:"table_num"`
	Name      string    `json:"name"`
	Quantity  int64     `json:"quantity"`
	Status    string    `json:"status"`
	SetLineID *int64    `json:"set_line_id,omitempty"`
	SetName   string    `json:"set_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SetCapacityOutput struct {
	SetMenuID int64  `json:"set_menu_id"`
	Name      string `json:"name"`
	Remaining int64  `json:"remaining"`
}

type BoardOutput struct {
	View          string              `json:"view"`
	TotalRevenue  int64               `json:"total_revenue"`
	Items         []BoardItem         `json:"items"`
	SetCapacities []SetCapacityOutput `json:"set_capacities"`
}

type RevenueAuditOutput struct {
	BoothID    int64 `json:"booth_id"`
	Stored     int64 `json:"stored"`
	Computed   int64 `json:"computed"`
	Drift      int64 `json:"drift"`
	Consistent bool  `json:"consistent"`
}

// 厨房は pending/cooked、配膳は cooked/served の明細。セットは構成品に展開する
func (u *BoothUsecase) Board(ctx context.Context, boothID int64, view string) (out BoardOutput, err error) {
	ctx, span := tracer.Start(ctx, "BoothUsecase.Board", trace.WithAttributes(
		attribute.Int64("booth_id", boothID),
		attribute.String("view", view),
	))
	defer func() { endSpan(span, err) }()

	var show map[model.LineStatus]bool
	switch view {
	case BoardKitchen:
		show = map[model.LineStatus]bool{model.LineStatusPending: true, model.LineStatusCooked: true}
	case BoardServing:
		show = map[model.LineStatus]bool{model.LineStatusCooked: true, model.LineStatusServed: true}
	default:
		return BoardOutput{}, ErrValidation("type must be kitchen or serving")
	}

	booth, err := u.booths.FindByID(ctx, boothID)
	if errors.Is(err, repo.ErrNotFound) {
		return BoardOutput{}, ErrNotFound("booth", boothID)
	}
	if err != nil {
		return BoardOutput{}, ErrInternal(err)
	}

	orders, err := u.orders.ListByBoothAndStatuses(ctx, boothID, []model.OrderStatus{model.OrderStatusPending, model.OrderStatusCooked})
	if err != nil {
		return BoardOutput{}, ErrInternal(err)
	}
	ids := make([]int64, 0, len(orders))
	tableNums := map[int64]int{}
	for _, o := range orders {
		ids = append(ids, o.ID)
		if _, ok := tableNums[o.TableID]; !ok {
			t, err := u.tables.FindByID(ctx, o.TableID)
			if err != nil {
				return BoardOutput{}, ErrInternal(err)
			}
			tableNums[o.TableID] = t.TableNum
		}
	}
	orderTable := map[int64]int{}
	for _, o := range orders {
		orderTable[o.ID] = tableNums[o.TableID]
	}

	menus, err := u.lines.ListMenusByOrderIDs(ctx, ids)
	if err != nil {
		return BoardOutput{}, ErrInternal(err)
	}
	sets, err := u.lines.ListSetMenusByOrderIDs(ctx, ids)
	if err != nil {
		return BoardOutput{}, ErrInternal(err)
	}
	setNames := map[int64]string{}
	for _, s := range sets {
		setNames[s.ID] = s.SetName
	}

	out = BoardOutput{View: view, TotalRevenue: booth.TotalRevenue, Items: []BoardItem{}}
	for _, m := range menus {
		if !m.Category.IsVisible() || !show[m.Status] {
			continue
		}
		item := BoardItem{
			Type:      LineTypeMenu,
			LineID:    m.ID,
			OrderID:   m.OrderID,
			TableNum:  orderTable[m.OrderID],
			Name:      m.MenuName,
			Quantity:  m.Quantity,
			Status:    string(m.Status),
			CreatedAt: m.CreatedAt,
		}
		if m.IsSetChild() {
			item.SetLineID = m.OrderSetMenuID
			item.SetName = setNames[*m.OrderSetMenuID]
		}
		out.Items = append(out.Items, item)
	}

	out.SetCapacities, err = u.setCapacities(ctx, boothID)
	if err != nil {
		return BoardOutput{}, err
	}
	return out, nil
}

func (u *BoothUsecase) setCapacities(ctx context.Context, boothID int64) ([]SetCapacityOutput, error) {
	sets, err := u.menus.ListSetMenusByBoothID(ctx, boothID)
	if err != nil {
		return nil, ErrInternal(err)
	}
	menus, err := u.menus.ListByBoothID(ctx, boothID)
	if err != nil {
		return nil, ErrInternal(err)
	}
	stock := make(map[int64]int64, len(menus))
	for _, m := range menus {
		stock[m.ID] = m.Amount
	}
	out := make([]SetCapacityOutput, 0, len(sets))
	for _, s := range sets {
		out = append(out, SetCapacityOutput{
			SetMenuID: s.ID,
			Name:      s.Name,
			Remaining: model.SetCapacity(s.Items, stock),
		})
	}
	return out, nil
}

// 保存値と Σ order_amount（キャンセル済みを除く）の比較
func (u *BoothUsecase) AuditRevenue(ctx context.Context, boothID int64) (RevenueAuditOutput, error) {
	booth, err := u.booths.FindByID(ctx, boothID)
	if errors.Is(err, repo.ErrNotFound) {
		return RevenueAuditOutput{}, ErrNotFound("booth", boothID)
	}
	if err != nil {
		return RevenueAuditOutput{}, ErrInternal(err)
	}
	sum, err := u.orders.SumActiveAmount(ctx, boothID)
	if err != nil {
		return RevenueAuditOutput{}, ErrInternal(err)
	}
	return RevenueAuditOutput{
		BoothID:    boothID,
		Stored:     booth.TotalRevenue,
		Computed:   sum,
		Drift:      booth.TotalRevenue - sum,
		Consistent: booth.TotalRevenue == sum,
	}, nil
}

// 保存値を再計算値で上書きする。運用ツール用
func (u *BoothUsecase) RepairRevenue(ctx context.Context, boothID int64) (out RevenueAuditOutput, err error) {
	ctx, span := tracer.Start(ctx, "BoothUsecase.RepairRevenue", trace.WithAttributes(attribute.Int64("booth_id", boothID)))
	defer func() { endSpan(span, err) }()

	var seq int64
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		booth, err := r.Booths().FindByIDForUpdate(ctx, boothID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound("booth", boothID)
		}
		if err != nil {
			return ErrInternal(err)
		}
		sum, err := r.Orders().SumActiveAmount(ctx, boothID)
		if err != nil {
			return ErrInternal(err)
		}
		out = RevenueAuditOutput{
			BoothID:    boothID,
			Stored:     booth.TotalRevenue,
			Computed:   sum,
			Drift:      booth.TotalRevenue - sum,
			Consistent: true,
		}
		if booth.TotalRevenue == sum {
			return nil
		}
		if err := r.Booths().SetRevenue(ctx, boothID, sum); err != nil {
			return ErrInternal(err)
		}
		if seq, err = r.Booths().NextEventSeq(ctx, boothID); err != nil {
			return ErrInternal(err)
		}
		return r.AuditLogs().Create(ctx, model.AuditLog{
			BoothID:      boothID,
			Action:       model.AuditActionRepairRevenue,
			ResourceType: model.AuditResourceBooth,
			ResourceID:   boothID,
			BeforeJSON:   toJSON(map[string]any{"total_revenue": booth.TotalRevenue}),
			AfterJSON:    toJSON(map[string]any{"total_revenue": sum}),
			CreatedAt:    u.now(),
		})
	})
	if err != nil {
		logResult(u.logger, "repair revenue failed", err, zap.Int64("booth_id", boothID))
		return RevenueAuditOutput{}, wrap(err)
	}

	if out.Drift != 0 {
		u.logger.Warn("revenue repaired",
			zap.Int64("booth_id", boothID),
			zap.Int64("stored", out.Stored),
			zap.Int64("computed", out.Computed),
		)
		u.publisher.Publish(event.Sequence(seq, []event.Event{event.RevenueUpdatedEvent(boothID, out.Computed)})...)
	}
	return out, nil
}
