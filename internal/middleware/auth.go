package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"hoarding-service/internal/model"
	"hoarding-service/internal/response"
	"hoarding-service/pkg/database"
	"hoarding-service/pkg/jwtutil"
	"hoarding-service/pkg/logger"
	"hoarding-service/prometheus"
)

const userContextKey = "user"

// AuthMiddleware validates the bearer token and resolves it to a live
// user record. No handler behind it runs without a resolved acting user.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return response.Error(c, http.StatusUnauthorized, "Authentication required", "missing authorization token")
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return response.Error(c, http.StatusUnauthorized, "Authentication required", "invalid authorization format, expected Bearer token")
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return response.Error(c, http.StatusUnauthorized, "Authentication required", "invalid or expired token")
		}

		// The token may outlive the account; resolve to a live record
		var user model.User
		if err := database.GetDB().First(&user, claims.UserID).Error; err != nil {
			log.Error("Token user no longer exists", zap.Uint("user_id", claims.UserID))
			prometheus.RecordAuthError("user_not_found")
			return response.Error(c, http.StatusUnauthorized, "Authentication required", "user no longer exists")
		}

		c.Set(userContextKey, &user)
		return next(c)
	}
}

// CurrentUser returns the acting user attached by AuthMiddleware.
func CurrentUser(c echo.Context) *model.User {
	user, ok := c.Get(userContextKey).(*model.User)
	if !ok {
		return nil
	}
	return user
}
