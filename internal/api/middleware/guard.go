package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stampwise/loyalty-platform/internal/api/metrics"
	"github.com/stampwise/loyalty-platform/internal/api/session"
	"github.com/stampwise/loyalty-platform/internal/core/domain"
	"github.com/stampwise/loyalty-platform/internal/core/service"
)

// ContextSession holds the *domain.Session of a request that passed Guard.
const ContextSession = "session"

// ReadVerifiedSession reads the cookie session and checks its token. A
// token that is not a valid HS256 JWT signed with jwtSecret, or whose role
// claim differs from the stored user record, yields no session.
func ReadVerifiedSession(c echo.Context, jwtSecret string) *domain.Session {
	sess := service.ReadSession(session.NewCookieStore(c, session.Options{}))
	if !sess.Authenticated() {
		return sess
	}
	claims, err := parseToken(jwtSecret, sess.Token)
	if err != nil {
		return nil
	}
	if domain.NormalizeRole(claimString(claims["role"])) != domain.NormalizeRole(sess.User.Role) {
		return nil
	}
	return sess
}

// Guard protects a page with the session stored in cookies. Visitors
// without a valid session are redirected to the login page; signed-in users
// whose role is not allowed are redirected to the dashboard. No roles
// means any signed-in user.
func Guard(jwtSecret string, allowedRoles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			sess := ReadVerifiedSession(c, jwtSecret)
			decision := service.Authorize(sess, req.RequestURI, allowedRoles...)
			metrics.GuardDecisionsTotal.WithLabelValues(c.Path(), string(decision.Verdict)).Inc()

			if decision.Allowed() {
				c.Set(ContextSession, sess)
				return next(c)
			}

			location := decision.Location
			if location == req.URL.Path {
				// Already on the fallback page: send the user to their own
				// landing page instead of looping.
				location = domain.DefaultRouteFor(sess.User.Role)
				if location == req.URL.Path {
					return domain.ErrForbidden
				}
			}
			return c.Redirect(http.StatusFound, location)
		}
	}
}
