package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stampwise/loyalty-platform/internal/api/middleware"
	"github.com/stampwise/loyalty-platform/internal/core/service"
)

// PageHandler serves the page routes of the web app. Rendering belongs to
// the frontend; these endpoints return the page name and the session user
// once the Guard has let the request through.
type PageHandler struct {
	jwtSecret string
}

func NewPageHandler(jwtSecret string) *PageHandler {
	return &PageHandler{jwtSecret: jwtSecret}
}

// Login serves the login page. A visitor who already holds a session is
// sent straight on to the requested page or their landing page.
//
// @Summary      Login page
// @Tags         pages
// @Produce      json
// @Param        redirect  query     string  false  "Page to return to after login"
// @Success      200       {object}  pageResponse
// @Success      302
// @Router       /login [get]
func (h *PageHandler) Login(c echo.Context) error {
	target := c.QueryParam("redirect")
	if s := middleware.ReadVerifiedSession(c, h.jwtSecret); s.Authenticated() {
		return c.Redirect(http.StatusFound, service.PostLoginLocation(target, s.User.Role))
	}
	return c.JSON(http.StatusOK, pageResponse{Page: "login", Redirect: target})
}

// Page returns a handler for a page. Behind the Guard the session user
// comes from the context; public pages read the cookies themselves.
func (h *PageHandler) Page(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := pageResponse{Page: name}
		u := ctxSessionUser(c)
		if u == nil {
			if s := middleware.ReadVerifiedSession(c, h.jwtSecret); s.Authenticated() {
				u = s.User
			}
		}
		if u != nil {
			resp.User = u.Profile
		}
		return c.JSON(http.StatusOK, resp)
	}
}
