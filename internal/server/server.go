package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"boothpos/internal/config"
	"boothpos/internal/middleware"
	"boothpos/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func New(cfg config.Config, logger *zap.Logger, booths repository.BoothRepository, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: cfg.AllowedOrigins,
			AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, "Booth-ID"},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		}))
	}

	RegisterRoutes(e, cfg, booths, h)
	return e
}

// ctx が終わったら graceful shutdown
func Start(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
