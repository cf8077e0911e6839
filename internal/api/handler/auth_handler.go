package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stampwise/loyalty-platform/internal/api/metrics"
	"github.com/stampwise/loyalty-platform/internal/api/session"
	"github.com/stampwise/loyalty-platform/internal/core/domain"
	"github.com/stampwise/loyalty-platform/internal/core/ports"
	"github.com/stampwise/loyalty-platform/internal/core/service"
)

type AuthHandler struct {
	authService ports.AuthService
	cookies     session.Options
}

func NewAuthHandler(authService ports.AuthService, cookies session.Options) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// Register creates a merchant or customer account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Password:   req.Password,
		Role:       req.Role,
		MerchantID: req.MerchantID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResponse{User: user})
}

// CreateUser lets an admin create an account with any role.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/users [post]
func (h *AuthHandler) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResponse{User: user})
}

// Login authenticates a user, stores the session cookies and tells the
// client where to go next.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body      body      loginRequest  true   "Login credentials"
// @Param        redirect  query     string        false  "Page to return to"
// @Success      200       {object}  authResponse
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		// Unknown e-mail and wrong password look the same to the client.
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidCredentials
		}
		return err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	if err := service.WriteSession(session.NewCookieStore(c, h.cookies), token, user); err != nil {
		return err
	}

	target := req.Redirect
	if target == "" {
		target = c.QueryParam("redirect")
	}
	return c.JSON(http.StatusOK, authResponse{
		Token:      token,
		User:       user,
		RedirectTo: service.PostLoginLocation(target, user.Role),
	})
}

// Logout clears the session cookies.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  logoutResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	service.ClearSession(session.NewCookieStore(c, h.cookies))
	return c.JSON(http.StatusOK, logoutResponse{RedirectTo: domain.RouteLogin.Path()})
}
