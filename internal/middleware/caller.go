package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Заголовки, которые выставляет шлюз после аутентификации.
const (
	HeaderUserID   = "X-User-ID"
	HeaderTenantID = "X-Tenant-ID"
)

// Ключи контекста Echo.
const (
	UserIDKey   = "user_id"
	TenantIDKey = "tenant_id"
)

// CallerIdentity reads the already-authenticated caller from gateway headers
// and stores the ids in the echo context. Requests without a valid user id
// are rejected.
func CallerIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := uuid.Parse(c.Request().Header.Get(HeaderUserID))
			if err != nil || userID == uuid.Nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "caller identity missing")
			}
			c.Set(UserIDKey, userID.String())

			if raw := c.Request().Header.Get(HeaderTenantID); raw != "" {
				tenantID, err := uuid.Parse(raw)
				if err != nil {
					return echo.NewHTTPError(http.StatusBadRequest, "invalid tenant id")
				}
				c.Set(TenantIDKey, tenantID.String())
			}
			return next(c)
		}
	}
}
