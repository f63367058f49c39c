package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/creativetrack/core/internal/application/services"
	"github.com/creativetrack/core/internal/domain/entities"
)

// httpActor returns the authenticated user placed in the context by
// authMiddleware, or nil.
func httpActor(c echo.Context) *entities.User {
	user, _ := c.Get("actor").(*entities.User)
	return user
}

// authMiddleware validates JWT tokens and loads the acting user into the
// request context. Handlers and services downstream read the full user
// record, not just the claims, so role checks always see current state.
func (s *Server) authMiddleware(authService *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				s.logger.LogSecurityEvent("invalid_token", "", c.RealIP(), map[string]interface{}{
					"error": err.Error(),
				})
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token subject")
			}

			user, err := s.userRepo.GetByID(c.Request().Context(), userID)
			if err != nil {
				s.logger.LogSecurityEvent("unknown_token_subject", claims.UserID, c.RealIP(), nil)
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}
			if !user.IsActive {
				return echo.NewHTTPError(http.StatusUnauthorized, "Account is deactivated")
			}

			c.Set("actor", user)

			return next(c)
		}
	}
}

// requireAdmin gates admin-only routes. Finer-grained checks that depend
// on the target record live in the service layer.
func (s *Server) requireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := httpActor(c)
			if actor == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}

			if !actor.Role.IsAdmin() {
				s.logger.LogSecurityEvent("insufficient_permissions",
					actor.ID.String(),
					c.RealIP(),
					map[string]interface{}{
						"user_role": actor.Role,
						"endpoint":  c.Request().URL.Path,
					})
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}

			return next(c)
		}
	}
}
