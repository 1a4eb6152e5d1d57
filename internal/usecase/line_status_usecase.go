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

// 厨房・配膳画面からのステータス変更
type LineStatusUsecase struct {
	tx        repo.TransactionManager
	lines     repo.OrderLineRepository
	validator InputValidator
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewLineStatusUsecase(
	tx repo.TransactionManager,
	lines repo.OrderLineRepository,
	validator InputValidator,
	publisher EventPublisher,
	logger *zap.Logger,
) *LineStatusUsecase {
	return &LineStatusUsecase{
		tx:        tx,
		lines:     lines,
		validator: validator,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

type TransitionInput struct {
	BoothID int64
	Type    string // menu / set
	ID      int64
	Status  model.LineStatus
}

type LineStateOutput struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Status   string `json:"status"`
}

type TransitionOutput struct {
	Type     string `json:"type"`
	ID       int64  `json:"id"`
	OrderID  int64  `json:"order_id"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Status   string `json:"status"`
	// 構成品を動かしたときの親セット
	SetLineID *int64            `json:"set_line_id,omitempty"`
	SetStatus string            `json:"set_status,omitempty"`
	Children  []LineStateOutput `json:"children,omitempty"`

	OrderStatus    string `json:"order_status"`
	OrderCompleted bool   `json:"order_completed"`
}

// pending → cooked → served（飲み物は pending → served も可）
func (u *LineStatusUsecase) Advance(ctx context.Context, in TransitionInput) (TransitionOutput, error) {
	return u.transition(ctx, in, false)
}

// 1段階戻す（飲み物は served → pending も可）
func (u *LineStatusUsecase) Revert(ctx context.Context, in TransitionInput) (TransitionOutput, error) {
	return u.transition(ctx, in, true)
}

func (u *LineStatusUsecase) transition(ctx context.Context, in TransitionInput, reversal bool) (out TransitionOutput, err error) {
	op := "LineStatusUsecase.Advance"
	if reversal {
		op = "LineStatusUsecase.Revert"
	}
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(
		attribute.Int64("booth_id", in.BoothID),
		attribute.String("line_type", in.Type),
		attribute.Int64("line_id", in.ID),
		attribute.String("to", string(in.Status)),
	))
	defer func() {
		logResult(u.logger, "status transition failed", err,
			zap.Int64("booth_id", in.BoothID), zap.String("type", in.Type), zap.Int64("line_id", in.ID))
		endSpan(span, err)
	}()

	if err := u.validator.ValidateTransition(in); err != nil {
		return TransitionOutput{}, err
	}

	//Tx前に存在確認して注文IDを得る
	orderID, err := u.resolveOrderID(ctx, in)
	if err != nil {
		return TransitionOutput{}, err
	}

	var events []event.Event

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().LockByIDs(ctx, []int64{orderID})
		if err != nil {
			return ErrInternal(err)
		}
		if len(orders) == 0 || orders[0].BoothID != in.BoothID {
			return ErrNotFound(in.Type+" line", in.ID)
		}
		order := orders[0]

		before, err := r.Lines().ListMenusByOrderIDs(ctx, []int64{order.ID})
		if err != nil {
			return ErrInternal(err)
		}

		line, err := u.lockLine(ctx, r, in)
		if err != nil {
			return err
		}

		changes, err := planTransition(line, in.Status, reversal)
		if err != nil {
			return err
		}

		//他端末が先に動かしていたら0件
		current := make(map[int64]model.OrderMenu, len(before))
		for _, m := range before {
			current[m.ID] = m
		}
		for id, to := range changes {
			n, err := r.Lines().UpdateMenuStatusGuard(ctx, id, current[id].Status, to)
			if err != nil {
				return ErrInternal(err)
			}
			if n == 0 {
				return conflictFor(reversal, current[id].Status, to)
			}
		}

		after := make([]model.OrderMenu, 0, len(before))
		for _, m := range before {
			if to, ok := changes[m.ID]; ok {
				m.Status = to
			}
			after = append(after, m)
		}

		status, completed, err := syncOrderStatus(ctx, r, order, before, after, u.now())
		if err != nil {
			return err
		}

		table, err := r.Tables().FindByID(ctx, order.TableID)
		if err != nil {
			return ErrInternal(err)
		}

		out = buildTransitionOutput(line, after)
		out.OrderStatus = string(status)
		out.OrderCompleted = completed

		if reversal {
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				BoothID:      in.BoothID,
				Action:       model.AuditActionRevertStatus,
				ResourceType: auditResourceFor(line),
				ResourceID:   line.LineID(),
				BeforeJSON:   toJSON(map[string]any{"status": line.CurrentStatus()}),
				AfterJSON:    toJSON(map[string]any{"status": out.Status, "changes": changes}),
				CreatedAt:    u.now(),
			}); err != nil {
				return ErrInternal(err)
			}
		}

		events = transitionEvents(in.BoothID, table.TableNum, line, after, changes)
		if completed {
			events = append(events, event.OrderCompletedEvent(in.BoothID, order.ID, table.TableNum))
		}

		// 最後にブース（連番）
		seq, err := r.Booths().NextEventSeq(ctx, in.BoothID)
		if err != nil {
			return ErrInternal(err)
		}
		event.Sequence(seq, events)
		return nil
	})
	if err != nil {
		return TransitionOutput{}, wrap(err)
	}

	u.publisher.Publish(events...)
	return out, nil
}

func (u *LineStatusUsecase) resolveOrderID(ctx context.Context, in TransitionInput) (int64, error) {
	switch in.Type {
	case LineTypeSet:
		s, err := u.lines.FindSetMenuByID(ctx, in.ID)
		if errors.Is(err, repo.ErrNotFound) {
			return 0, ErrNotFound("set line", in.ID)
		}
		if err != nil {
			return 0, ErrInternal(err)
		}
		return s.OrderID, nil
	default:
		m, err := u.lines.FindMenuByID(ctx, in.ID)
		if errors.Is(err, repo.ErrNotFound) {
			return 0, ErrNotFound("menu line", in.ID)
		}
		if err != nil {
			return 0, ErrInternal(err)
		}
		return m.OrderID, nil
	}
}

// 明細をロックして種類ごとの Line にする
func (u *LineStatusUsecase) lockLine(ctx context.Context, r repo.TxRepos, in TransitionInput) (model.Line, error) {
	if in.Type == LineTypeSet {
		sets, err := r.Lines().LockSetMenus(ctx, []int64{in.ID})
		if err != nil {
			return nil, ErrInternal(err)
		}
		if len(sets) == 0 {
			return nil, ErrNotFound("set line", in.ID)
		}
		children, err := r.Lines().LockChildren(ctx, []int64{in.ID})
		if err != nil {
			return nil, ErrInternal(err)
		}
		return model.SetHeaderLine{Set: sets[0], Children: children}, nil
	}

	menus, err := r.Lines().LockMenus(ctx, []int64{in.ID})
	if err != nil {
		return nil, ErrInternal(err)
	}
	if len(menus) == 0 {
		return nil, ErrNotFound("menu line", in.ID)
	}
	m := menus[0]
	if !m.IsSetChild() {
		return model.DirectLine{Menu: m}, nil
	}

	parents, err := r.Lines().LockSetMenus(ctx, []int64{*m.OrderSetMenuID})
	if err != nil {
		return nil, ErrInternal(err)
	}
	if len(parents) == 0 {
		return nil, ErrInvariant(model.ErrSetInvariant)
	}
	siblings, err := r.Lines().LockChildren(ctx, []int64{*m.OrderSetMenuID})
	if err != nil {
		return nil, ErrInternal(err)
	}
	return model.SetChildLine{Menu: m, Parent: parents[0], Siblings: siblings}, nil
}

// 明細ID → 遷移後ステータス
func planTransition(line model.Line, to model.LineStatus, reversal bool) (map[int64]model.LineStatus, error) {
	var changes map[int64]model.LineStatus
	var err error

	switch l := line.(type) {
	case model.DirectLine:
		err = checkMenu(l.Menu, to, reversal)
		changes = map[int64]model.LineStatus{l.Menu.ID: to}
	case model.SetChildLine:
		err = checkMenu(l.Menu, to, reversal)
		changes = map[int64]model.LineStatus{l.Menu.ID: to}
	case model.SetHeaderLine:
		if reversal {
			changes, err = model.PlanSetRevert(l.Children, to)
		} else {
			changes, err = model.PlanSetAdvance(l.Children, to)
		}
	}
	if err != nil {
		var te *model.TransitionError
		if errors.As(err, &te) {
			return nil, conflictFor(te.Reversal, te.From, te.To)
		}
		return nil, ErrInternal(err)
	}
	return changes, nil
}

func checkMenu(m model.OrderMenu, to model.LineStatus, reversal bool) error {
	if reversal {
		return model.CheckRevert(m.Category, m.Status, to)
	}
	return model.CheckAdvance(m.Category, m.Status, to)
}

func conflictFor(reversal bool, from, to model.LineStatus) *AppError {
	if reversal {
		return ErrInvalidReversal(string(from), string(to))
	}
	return ErrInvalidTransition(string(from), string(to))
}

// 注文ステータスと served_at を明細に合わせる。今回の変更で完了したかを返す
func syncOrderStatus(ctx context.Context, r repo.TxRepos, order model.Order, before, after []model.OrderMenu, now time.Time) (model.OrderStatus, bool, error) {
	status := model.DeriveOrderStatus(after)
	completed := !model.IsOrderCompleted(before) && model.IsOrderCompleted(after)

	var servedAt *time.Time
	if status == model.OrderStatusServed {
		servedAt = order.ServedAt
		if servedAt == nil {
			servedAt = &now
		}
	}
	if status == order.OrderStatus && sameTime(servedAt, order.ServedAt) {
		return status, completed, nil
	}
	if err := r.Orders().UpdateStatus(ctx, order.ID, status, servedAt); err != nil {
		return "", false, ErrInternal(err)
	}
	return status, completed, nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func auditResourceFor(line model.Line) model.AuditResourceType {
	if line.Kind() == model.LineKindSetHeader {
		return model.AuditResourceOrderSetMenu
	}
	return model.AuditResourceOrderMenu
}

// after は注文の全明細（変更後）
func buildTransitionOutput(line model.Line, after []model.OrderMenu) TransitionOutput {
	byID := make(map[int64]model.OrderMenu, len(after))
	for _, m := range after {
		byID[m.ID] = m
	}
	children := groupChildren(after)

	switch l := line.(type) {
	case model.SetHeaderLine:
		header := model.SetHeaderLine{Set: l.Set, Children: children[l.Set.ID]}
		out := TransitionOutput{
			Type:     LineTypeSet,
			ID:       l.Set.ID,
			OrderID:  l.Set.OrderID,
			Name:     l.Set.SetName,
			Quantity: l.Set.Quantity,
			Status:   string(header.CurrentStatus()),
		}
		for _, c := range header.Children {
			out.Children = append(out.Children, LineStateOutput{ID: c.ID, Name: c.MenuName, Quantity: c.Quantity, Status: string(c.Status)})
		}
		return out
	case model.SetChildLine:
		m := byID[l.Menu.ID]
		setID := l.Parent.ID
		return TransitionOutput{
			Type:      LineTypeMenu,
			ID:        m.ID,
			OrderID:   m.OrderID,
			Name:      m.MenuName,
			Quantity:  m.Quantity,
			Status:    string(m.Status),
			SetLineID: &setID,
			SetStatus: string(model.DeriveStatus(children[setID])),
		}
	default:
		m := byID[line.LineID()]
		return TransitionOutput{
			Type:     LineTypeMenu,
			ID:       m.ID,
			OrderID:  m.OrderID,
			Name:     m.MenuName,
			Quantity: m.Quantity,
			Status:   string(m.Status),
		}
	}
}

// 変わった構成品ごとに1件、セット本体にも1件
func transitionEvents(boothID int64, tableNum int, line model.Line, after []model.OrderMenu, changes map[int64]model.LineStatus) []event.Event {
	children := groupChildren(after)
	var events []event.Event
	for _, m := range after {
		if _, ok := changes[m.ID]; !ok {
			continue
		}
		p := event.LineUpdated{
			LineType: LineTypeMenu,
			LineID:   m.ID,
			OrderID:  m.OrderID,
			TableNum: tableNum,
			Name:     m.MenuName,
			Status:   string(m.Status),
			Quantity: m.Quantity,
		}
		if m.IsSetChild() {
			p.SetLineID = m.OrderSetMenuID
			p.SetStatus = string(model.DeriveStatus(children[*m.OrderSetMenuID]))
		}
		events = append(events, event.LineUpdatedEvent(boothID, p))
	}
	if h, ok := line.(model.SetHeaderLine); ok {
		events = append(events, event.LineUpdatedEvent(boothID, event.LineUpdated{
			LineType: LineTypeSet,
			LineID:   h.Set.ID,
			OrderID:  h.Set.OrderID,
			TableNum: tableNum,
			Name:     h.Set.SetName,
			Status:   string(model.DeriveStatus(children[h.Set.ID])),
			Quantity: h.Set.Quantity,
		}))
	}
	return events
}
