package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindUnauthorized ErrorKind = "unauthorized"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindInternal     ErrorKind = "internal"
)

// エラーコード（レスポンスの error にそのまま出す）
const (
	CodeInvalidInput       = "invalid_input"
	CodeInvalidPassword    = "invalid_password"
	CodeEmptyCart          = "empty_cart"
	CodeInsufficientStock  = "insufficient_stock"
	CodeMissingRequiredFee = "missing_required_fee"
	CodeTableInactive      = "table_inactive"
	CodeCartAlreadyOrdered = "cart_already_ordered"
	CodeNotFound           = "not_found"
	CodeInvalidTransition  = "invalid_transition"
	CodeInvalidReversal    = "invalid_reversal"
	CodeExceedsCancellable = "exceeds_cancellable_quantity"
	CodeNothingCancellable = "nothing_cancellable"
	CodeInvariantViolation = "invariant_violation"
	CodeInternal           = "internal"
)

// usecase が返すエラー。Kind で HTTP ステータスが決まる
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

func newError(kind ErrorKind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

func (e *AppError) with(key string, v any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = v
	return e
}

func ErrValidation(message string) *AppError {
	return newError(KindValidation, CodeInvalidInput, message)
}

func ErrNotFound(what string, id int64) *AppError {
	return newError(KindNotFound, CodeNotFound, what+" not found").with("id", id)
}

func ErrInvalidPassword() *AppError {
	return newError(KindUnauthorized, CodeInvalidPassword, "order password does not match")
}

func ErrEmptyCart() *AppError {
	return newError(KindValidation, CodeEmptyCart, "cart is empty")
}

func ErrInsufficientStock(itemName string, required, available int64) *AppError {
	return newError(KindConflict, CodeInsufficientStock, "not enough stock for "+itemName).
		with("item_name", itemName).
		with("required", required).
		with("available", available)
}

func ErrMissingRequiredFee(category string) *AppError {
	return newError(KindValidation, CodeMissingRequiredFee, "first order of a session must include a seat fee").
		with("category", category)
}

func ErrTableInactive(tableNum int) *AppError {
	return newError(KindConflict, CodeTableInactive, "table is not active").with("table_num", tableNum)
}

func ErrCartAlreadyOrdered(cartID int64) *AppError {
	return newError(KindConflict, CodeCartAlreadyOrdered, "cart already ordered").with("cart_id", cartID)
}

func ErrInvalidTransition(from, to string) *AppError {
	return newError(KindConflict, CodeInvalidTransition, "status cannot move "+from+" -> "+to).
		with("from", from).
		with("to", to)
}

func ErrInvalidReversal(from, to string) *AppError {
	return newError(KindConflict, CodeInvalidReversal, "status cannot revert "+from+" -> "+to).
		with("from", from).
		with("to", to)
}

func ErrExceedsCancellable(lineType string, requested, cancellable int64) *AppError {
	return newError(KindConflict, CodeExceedsCancellable, "requested quantity exceeds cancellable quantity").
		with("type", lineType).
		with("requested", requested).
		with("cancellable", cancellable)
}

func ErrNothingCancellable(skipped []SkippedItem) *AppError {
	return newError(KindConflict, CodeNothingCancellable, "nothing could be cancelled").
		with("skipped_items", skipped)
}

// Tx内の想定外エラー。WithinTx に返してロールバックさせる
func ErrInternal(err error) *AppError {
	return &AppError{Kind: KindInternal, Code: CodeInternal, Message: "internal error", Err: err}
}

func ErrInvariant(err error) *AppError {
	return &AppError{Kind: KindInternal, Code: CodeInvariantViolation, Message: "data invariant violated", Err: err}
}

// AppError 以外は internal に包む
func wrap(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsAppError(err); ok {
		return err
	}
	return ErrInternal(err)
}
