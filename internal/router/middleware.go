package router

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"kingspos/internal/auth"
	"kingspos/internal/errors"
	"kingspos/internal/handler"
	"kingspos/internal/model"
	"kingspos/internal/service"
)

// resolveSession loads the session named by a verified token. Requests
// without a token, or whose session is gone, continue anonymously and are
// stopped by the gates below where a session is required.
func resolveSession(sessions service.AuthService, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return next(c)
			}
			id, err := auth.SessionIDFromToken(token)
			if err != nil {
				return next(c)
			}
			c.Set(handler.SessionIDContextKey, id)

			sess, err := sessions.Resolve(c.Request().Context(), id)
			if err != nil {
				log.Error().Err(err).Msg("session lookup failed")
				return toHTTPError(err)
			}
			if sess != nil {
				c.Set(handler.SessionContextKey, sess)
			}
			return next(c)
		}
	}
}

// requireAuth admits any live session.
func requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := auth.RequireAuthenticated(handler.CurrentSession(c), time.Now()); err != nil {
			return toHTTPError(err)
		}
		return next(c)
	}
}

// requireRole admits live sessions holding one of roles. Anonymous requests
// get 401, authenticated ones with the wrong role 403.
func requireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := auth.RequireRole(handler.CurrentSession(c), time.Now(), roles...); err != nil {
				return toHTTPError(err)
			}
			return next(c)
		}
	}
}

var (
	adminOnly    = requireRole(model.RoleAdmin)
	catalogStaff = requireRole(model.RoleAdmin, model.RoleManager)
)

func toHTTPError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}
