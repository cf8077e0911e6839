package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stampwise/loyalty-platform/internal/api/metrics"
	"github.com/stampwise/loyalty-platform/internal/core/domain"
	"github.com/stampwise/loyalty-platform/internal/core/ports"
)

// SubscriptionHandler prices plans for the subscription checkout.
type SubscriptionHandler struct {
	service ports.CouponService
}

func NewSubscriptionHandler(service ports.CouponService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

// ListPlans handles GET /v1/plans.
//
// @Summary      List subscription plans
// @Tags         subscription
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  plansResponse
// @Router       /v1/plans [get]
func (h *SubscriptionHandler) ListPlans(c echo.Context) error {
	return c.JSON(http.StatusOK, plansResponse{Plans: h.service.ListPlans()})
}

// Quote handles POST /v1/subscription/quote. Without coupon_code the plan
// is priced as is; with one the coupon is resolved and rejections come back
// as 422 with the rejection kind.
//
// @Summary      Price a plan, optionally with a coupon
// @Tags         subscription
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      quoteRequest  true  "Plan and optional coupon"
// @Success      200   {object}  quoteResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/subscription/quote [post]
func (h *SubscriptionHandler) Quote(c echo.Context) error {
	if _, _, err := ctxClaims(c); err != nil {
		return err
	}

	var req quoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ctx := c.Request().Context()
	if req.CouponCode == nil {
		q, err := h.service.Quote(ctx, req.Plan)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, toQuoteResponse(q))
	}

	q, err := h.service.ApplyCoupon(ctx, req.Plan, *req.CouponCode)
	if ce, ok := domain.IsCouponError(err); ok {
		metrics.CouponApplicationsTotal.WithLabelValues(string(ce.Kind)).Inc()
	}
	if err != nil {
		return err
	}
	metrics.CouponApplicationsTotal.WithLabelValues("applied").Inc()
	return c.JSON(http.StatusOK, toQuoteResponse(q))
}

func toQuoteResponse(q *ports.QuoteResult) quoteResponse {
	return quoteResponse{
		Plan:           q.Plan,
		AppliedCoupon:  q.AppliedCoupon,
		DiscountAmount: q.DiscountAmount,
		FinalPrice:     q.FinalPrice,
	}
}
