package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stampwise/loyalty-platform/internal/api/middleware"
	"github.com/stampwise/loyalty-platform/internal/core/domain"
)

// ctxClaims extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call: both the subject and
// the role must be present.
func ctxClaims(c echo.Context) (userID, role string, err error) {
	userID, _ = c.Get(middleware.ContextUserID).(string)
	role, _ = c.Get(middleware.ContextRole).(string)
	if userID == "" || role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, domain.NormalizeRole(role), nil
}

// ctxSessionUser returns the session user placed by the page Guard, if any.
func ctxSessionUser(c echo.Context) *domain.SessionUser {
	s, _ := c.Get(middleware.ContextSession).(*domain.Session)
	if !s.Authenticated() {
		return nil
	}
	return s.User
}
