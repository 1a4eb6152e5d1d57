package handler

import (
	"net/http"
	"strconv"

	"boothpos/internal/usecase"

	"github.com/labstack/echo/v4"
)

// テーブル端末からの注文
type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderCreateRequest struct {
	CartID   int64  `json:"cart_id"`
	Password string `json:"password"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/tables/:tableId/orders", h.create)
}

func (h *OrderHandler) create(c echo.Context) error {
	//ブースはヘッダーで受け取る（テーブル端末はログインしない）
	boothID, err := strconv.ParseInt(c.Request().Header.Get("Booth-ID"), 10, 64)
	if err != nil || boothID <= 0 {
		return badRequest(c, "Booth-ID header is required")
	}
	tableID, ok := paramID(c, "tableId")
	if !ok {
		return badRequest(c, "invalid table id")
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), usecase.CreateOrderInput{
		BoothID:  boothID,
		TableID:  tableID,
		CartID:   req.CartID,
		Password: req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}
