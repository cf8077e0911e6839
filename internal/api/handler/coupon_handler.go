package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
	"github.com/stampwise/loyalty-platform/internal/core/ports"
)

// CouponHandler manages the coupon catalog. Admin only.
type CouponHandler struct {
	service ports.CouponService
}

func NewCouponHandler(service ports.CouponService) *CouponHandler {
	return &CouponHandler{service: service}
}

// List handles GET /v1/coupons.
//
// @Summary      List coupons
// @Tags         coupons
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  couponsResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/coupons [get]
func (h *CouponHandler) List(c echo.Context) error {
	coupons, err := h.service.ListCoupons(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, couponsResponse{Coupons: coupons})
}

// Create handles POST /v1/coupons.
//
// @Summary      Create a coupon
// @Tags         coupons
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCouponRequest  true  "Coupon"
// @Success      201   {object}  domain.Coupon
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/coupons [post]
func (h *CouponHandler) Create(c echo.Context) error {
	if _, _, err := ctxClaims(c); err != nil {
		return err
	}

	var req createCouponRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	coupon, err := h.service.CreateCoupon(c.Request().Context(), domain.Coupon{
		Code:        req.Code,
		Type:        domain.CouponType(req.Type),
		Value:       req.Value,
		MinPurchase: req.MinPurchase,
		Status:      req.Status,
		PlanScope:   req.PlanScope,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, coupon)
}
