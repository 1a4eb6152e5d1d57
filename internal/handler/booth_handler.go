package handler

import (
	"net/http"
	"strconv"

	"boothpos/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 画面の初期表示・テーブル・売上監査
type BoothHandler struct {
	booths *usecase.BoothUsecase
	tables *usecase.TableUsecase
}

func NewBoothHandler(booths *usecase.BoothUsecase, tables *usecase.TableUsecase) *BoothHandler {
	return &BoothHandler{booths: booths, tables: tables}
}

func (h *BoothHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/board", h.board)

	g.POST("/tables/:tableNum/activate", h.activate)
	g.POST("/tables/:tableNum/reset", h.reset)
	g.GET("/tables/:tableNum/orders", h.sessionOrders)

	g.GET("/revenue/audit", h.auditRevenue)
	g.POST("/revenue/repair", h.repairRevenue)
}

func (h *BoothHandler) board(c echo.Context) error {
	boothID, ok := paramID(c, "boothId")
	if !ok {
		return badRequest(c, "invalid booth id")
	}
	out, err := h.booths.Board(c.Request().Context(), boothID, c.QueryParam("type"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BoothHandler) activate(c echo.Context) error {
	boothID, tableNum, ok := tableParams(c)
	if !ok {
		return badRequest(c, "invalid booth id or table number")
	}
	out, err := h.tables.Activate(c.Request().Context(), boothID, tableNum)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BoothHandler) reset(c echo.Context) error {
	boothID, tableNum, ok := tableParams(c)
	if !ok {
		return badRequest(c, "invalid booth id or table number")
	}
	out, err := h.tables.Reset(c.Request().Context(), boothID, tableNum)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BoothHandler) sessionOrders(c echo.Context) error {
	boothID, tableNum, ok := tableParams(c)
	if !ok {
		return badRequest(c, "invalid booth id or table number")
	}
	out, err := h.tables.SessionOrders(c.Request().Context(), boothID, tableNum)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BoothHandler) auditRevenue(c echo.Context) error {
	boothID, ok := paramID(c, "boothId")
	if !ok {
		return badRequest(c, "invalid booth id")
	}
	out, err := h.booths.AuditRevenue(c.Request().Context(), boothID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BoothHandler) repairRevenue(c echo.Context) error {
	boothID, ok := paramID(c, "boothId")
	if !ok {
		return badRequest(c, "invalid booth id")
	}
	out, err := h.booths.RepairRevenue(c.Request().Context(), boothID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func tableParams(c echo.Context) (int64, int, bool) {
	boothID, ok := paramID(c, "boothId")
	if !ok {
		return 0, 0, false
	}
	n, err := strconv.Atoi(c.Param("tableNum"))
	if err != nil || n <= 0 {
		return 0, 0, false
	}
	return boothID, n, true
}
