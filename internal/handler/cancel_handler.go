package handler

import (
	"net/http"

	"boothpos/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CancelHandler struct {
	uc *usecase.CancelUsecase
}

func NewCancelHandler(uc *usecase.CancelUsecase) *CancelHandler {
	return &CancelHandler{uc: uc}
}

type CancelItemRequest struct {
	Type     string  `json:"type"`
	LineIDs  []int64 `json:"line_ids"`
	Quantity int64   `json:"quantity"`
}

type CancelRequest struct {
	CancelItems []CancelItemRequest `json:"cancel_items"`
}

func (h *CancelHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/cancel", h.cancel)
}

func (h *CancelHandler) cancel(c echo.Context) error {
	boothID, ok := paramID(c, "boothId")
	if !ok {
		return badRequest(c, "invalid booth id")
	}
	var req CancelRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	in := usecase.CancelInput{BoothID: boothID}
	for _, it := range req.CancelItems {
		in.Items = append(in.Items, usecase.CancelItemInput{
			Type:     it.Type,
			LineIDs:  it.LineIDs,
			Quantity: it.Quantity,
		})
	}

	out, err := h.uc.Cancel(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
