package handler

import (
	"net/http"

	"boothpos/internal/domain/model"
	"boothpos/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 厨房・配膳画面のステータス操作
type LineHandler struct {
	uc *usecase.LineStatusUsecase
}

func NewLineHandler(uc *usecase.LineStatusUsecase) *LineHandler {
	return &LineHandler{uc: uc}
}

type LineStatusRequest struct {
	Type   string `json:"type"`
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type LineRevertRequest struct {
	Type         string `json:"type"`
	ID           int64  `json:"id"`
	TargetStatus string `json:"target_status"`
}

// g は /booths/:boothId
func (h *LineHandler) RegisterRoutes(g *echo.Group) {
	g.PATCH("/lines/status", h.advance)
	g.PATCH("/lines/revert", h.revert)
}

func (h *LineHandler) advance(c echo.Context) error {
	boothID, ok := paramID(c, "boothId")
	if !ok {
		return badRequest(c, "invalid booth id")
	}
	var req LineStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Advance(c.Request().Context(), usecase.TransitionInput{
		BoothID: boothID,
		Type:    req.Type,
		ID:      req.ID,
		Status:  model.LineStatus(req.Status),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LineHandler) revert(c echo.Context) error {
	boothID, ok := paramID(c, "boothId")
	if !ok {
		return badRequest(c, "invalid booth id")
	}
	var req LineRevertRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Revert(c.Request().Context(), usecase.TransitionInput{
		BoothID: boothID,
		Type:    req.Type,
		ID:      req.ID,
		Status:  model.LineStatus(req.TargetStatus),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
