package validator

import (
	"fmt"
	"regexp"

	"boothpos/internal/domain/model"
	"boothpos/internal/usecase"
)

// 注文確認用の4桁コード
var passwordPattern = regexp.MustCompile(`^[0-9]{4}$`)

type orderValidator struct{}

// Usecaseは interface を依存注入
func NewOrderValidator() usecase.InputValidator {
	return &orderValidator{}
}

// 注文作成の入力を検証
func (v *orderValidator) ValidateCreateOrder(in usecase.CreateOrderInput) error {
	if in.BoothID <= 0 {
		return usecase.ErrValidation("booth id is required")
	}
	if in.TableID <= 0 {
		return usecase.ErrValidation("table id is required")
	}
	if in.CartID <= 0 {
		return usecase.ErrValidation("cart_id is required")
	}
	if !passwordPattern.MatchString(in.Password) {
		return usecase.ErrValidation("password must be 4 digits")
	}
	return nil
}

// ステータス変更・差し戻しの入力を検証
func (v *orderValidator) ValidateTransition(in usecase.TransitionInput) error {
	if in.BoothID <= 0 {
		return usecase.ErrValidation("booth id is required")
	}
	if err := checkLineType(in.Type); err != nil {
		return err
	}
	if in.ID <= 0 {
		return usecase.ErrValidation("id must be positive")
	}
	// cancelled はキャンセルAPIでのみ
	switch in.Status {
	case model.LineStatusPending, model.LineStatusCooked, model.LineStatusServed:
	default:
		return usecase.ErrValidation(fmt.Sprintf("status %q is not allowed", in.Status))
	}
	return nil
}

// キャンセルの入力を検証
func (v *orderValidator) ValidateCancel(in usecase.CancelInput) error {
	if in.BoothID <= 0 {
		return usecase.ErrValidation("booth id is required")
	}
	if len(in.Items) == 0 {
		return usecase.ErrValidation("cancel_items is empty")
	}

	seen := map[string]bool{}
	for i, it := range in.Items {
		if err := checkLineType(it.Type); err != nil {
			return err
		}
		if len(it.LineIDs) == 0 {
			return usecase.ErrValidation(fmt.Sprintf("cancel_items[%d].line_ids is empty", i))
		}
		if it.Quantity <= 0 {
			return usecase.ErrValidation(fmt.Sprintf("cancel_items[%d].quantity must be positive", i))
		}
		for _, id := range it.LineIDs {
			if id <= 0 {
				return usecase.ErrValidation(fmt.Sprintf("cancel_items[%d] has invalid line id", i))
			}
			// 同じ明細を2回指定させない
			key := fmt.Sprintf("%s:%d", it.Type, id)
			if seen[key] {
				return usecase.ErrValidation(fmt.Sprintf("line %s is listed twice", key))
			}
			seen[key] = true
		}
	}
	return nil
}

func checkLineType(t string) error {
	if t != usecase.LineTypeMenu && t != usecase.LineTypeSet {
		return usecase.ErrValidation("type must be menu or set")
	}
	return nil
}
