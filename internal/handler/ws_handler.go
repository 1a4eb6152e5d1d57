package handler

import (
	"net/http"

	"boothpos/internal/event"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// 画面ごとの購読口
type Subscriber interface {
	Serve(w http.ResponseWriter, r *http.Request, boothID int64, screen event.Screen) error
}

type WSHandler struct {
	hub    Subscriber
	logger *zap.Logger
}

func NewWSHandler(hub Subscriber, logger *zap.Logger) *WSHandler {
	return &WSHandler{hub: hub, logger: logger}
}

// g は /ws/booths/:boothId
func (h *WSHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/:screen", h.subscribe)
}

func (h *WSHandler) subscribe(c echo.Context) error {
	boothID, ok := paramID(c, "boothId")
	if !ok {
		return badRequest(c, "invalid booth id")
	}
	screen := event.Screen(c.Param("screen"))
	if !screen.Valid() {
		return badRequest(c, "screen must be kitchen, serving, dashboard or statistics")
	}

	//Upgrade 失敗時のレスポンスは upgrader が書く
	if err := h.hub.Serve(c.Response(), c.Request(), boothID, screen); err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Int64("booth_id", boothID), zap.Error(err))
		return nil
	}
	h.logger.Debug("subscribed", zap.Int64("booth_id", boothID), zap.String("screen", string(screen)))
	return nil
}

