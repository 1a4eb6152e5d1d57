package server

import (
	"net/http"

	"boothpos/internal/config"
	"boothpos/internal/handler"
	"boothpos/internal/middleware"
	"boothpos/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Order  *handler.OrderHandler
	Line   *handler.LineHandler
	Cancel *handler.CancelHandler
	Booth  *handler.BoothHandler
	WS     *handler.WSHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, booths repository.BoothRepository, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	//テーブル端末（Booth-ID ヘッダー + 4桁パスワード）
	h.Order.RegisterRoutes(e)

	//スタッフ端末（JWT の booth_id とパスが一致すること）
	staff := []echo.MiddlewareFunc{
		middleware.AuthJWT(cfg),
		middleware.BoothExistsGuard(booths),
		middleware.BoothScopeGuard(),
	}

	g := e.Group("/booths/:boothId", staff...)
	h.Line.RegisterRoutes(g)
	h.Cancel.RegisterRoutes(g)
	h.Booth.RegisterRoutes(g)

	ws := e.Group("/ws/booths/:boothId", staff...)
	h.WS.RegisterRoutes(ws)
}
