package handler

import (
	"net/http"
	"strconv"

	"boothpos/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if ae, ok := usecase.AsAppError(err); ok {
		//500 は中身を出さない
		if ae.Status() == http.StatusInternalServerError {
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ae.Code, Message: "internal error"})
		}
		return c.JSON(ae.Status(), ErrorResponse{Error: ae.Code, Message: ae.Message, Details: ae.Details})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: usecase.CodeInternal, Message: "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: usecase.CodeInvalidInput, Message: msg})
}

// パスの正の整数
func paramID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
