package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/stampwise/loyalty-platform/docs"
	"github.com/stampwise/loyalty-platform/internal/api/handler"
	"github.com/stampwise/loyalty-platform/internal/api/middleware"
	"github.com/stampwise/loyalty-platform/internal/api/session"
	"github.com/stampwise/loyalty-platform/internal/core/domain"
	"github.com/stampwise/loyalty-platform/internal/core/ports"
)

// Deps are the services and settings the router wires into handlers.
type Deps struct {
	JWTSecret     string
	Cookies       session.Options
	Auth          ports.AuthService
	Coupons       ports.CouponService
	PasswordReset ports.PasswordResetService
	Readiness     map[string]handler.DependencyCheck
	Logger        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddleware("loyalty"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Cookies)
	resetHandler := handler.NewPasswordResetHandler(d.PasswordReset)
	subscriptionHandler := handler.NewSubscriptionHandler(d.Coupons)
	couponHandler := handler.NewCouponHandler(d.Coupons)
	pageHandler := handler.NewPageHandler(d.JWTSecret)

	authMiddleware := middleware.Auth(d.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/forgot-password", resetHandler.RequestCode)
	auth.POST("/forgot-password/resend", resetHandler.ResendCode)
	auth.POST("/forgot-password/verify", resetHandler.VerifyCode)
	auth.POST("/reset-password", resetHandler.ResetPassword)

	// --- Bearer API ---
	v1 := e.Group("/v1", authMiddleware)
	v1.GET("/plans", subscriptionHandler.ListPlans)
	v1.POST("/subscription/quote", subscriptionHandler.Quote)
	v1.GET("/coupons", couponHandler.List, adminOnly)
	v1.POST("/coupons", couponHandler.Create, adminOnly)
	v1.POST("/users", authHandler.CreateUser, adminOnly)

	// --- Pages (cookie session) ---
	e.GET(domain.RouteLogin.Path(), pageHandler.Login)
	e.GET(domain.RouteHome.Path(), pageHandler.Page("home"))
	e.GET(domain.RouteDashboard.Path(), pageHandler.Page("dashboard"),
		middleware.Guard(d.JWTSecret, domain.RoleMerchant, domain.RoleStaff, domain.RoleAdmin))
	e.GET(domain.RouteAdmin.Path(), pageHandler.Page("admin"), middleware.Guard(d.JWTSecret, domain.RoleAdmin))
	e.GET(domain.RouteSubscription.Path(), pageHandler.Page("subscription"),
		middleware.Guard(d.JWTSecret, domain.RoleMerchant, domain.RoleAdmin))

	// --- Ops ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Readiness)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
