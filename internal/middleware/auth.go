package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/jwtutil"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/pkg/logger"
	"github.com/PaultheAICoder/SkuInventoryDatabase-sub007/prometheus"
)

// AuthMiddleware validates the JWT token and extracts tenant information.
// Requests without a tenant-scoped token never reach a handler.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		if claims.TenantID == nil {
			log.Warn("JWT token does not contain tenant_id")
			prometheus.TenantContextMissingCounter.Inc()
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required in the token"})
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("tenant_id", *claims.TenantID)
		c.Set("tenant_name", claims.TenantName)
		c.Set("user_role", claims.Role)

		return next(c)
	}
}

// RequireWriteRole rejects viewers on mutating routes
func RequireWriteRole(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get("user_role").(string)
		if !jwtutil.CanMutate(role) {
			logger.FromContext(c).Warn("Role not permitted to mutate", zap.String("role", role))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient role"})
		}
		return next(c)
	}
}

// TenantIDFromContext retrieves the tenant ID set by AuthMiddleware
func TenantIDFromContext(c echo.Context) (uint, bool) {
	tenantID, ok := c.Get("tenant_id").(uint)
	return tenantID, ok
}

// UserIDFromContext retrieves the authenticated user ID
func UserIDFromContext(c echo.Context) (uint, bool) {
	userID, ok := c.Get("user_id").(uint)
	return userID, ok
}
