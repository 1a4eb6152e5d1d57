package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"boothpos/internal/repository"

	"github.com/labstack/echo/v4"
)

// パスの :boothId とトークンの booth_id が一致するか確認します。
func BoothScopeGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			boothID, ok := BoothIDFromContext(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			pathID, err := strconv.ParseInt(c.Param("boothId"), 10, 64)
			if err != nil || pathID <= 0 {
				return c.JSON(http.StatusBadRequest, errorJSON("invalid booth id"))
			}

			//他ブースの操作は拒否
			if pathID != boothID {
				return c.JSON(http.StatusForbidden, errorJSON("booth mismatch"))
			}

			return next(c)
		}
	}
}

// トークンのブースがまだ存在するか確認。削除済みブースのトークンは401
func BoothExistsGuard(booths repository.BoothRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			boothID, ok := BoothIDFromContext(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			_, err := booths.FindByID(c.Request().Context(), boothID)
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if err != nil {
				return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
			}

			return next(c)
		}
	}
}
