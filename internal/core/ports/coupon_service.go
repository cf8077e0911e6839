package ports

import (
	"context"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
)

// QuoteResult is a priced checkout.
type QuoteResult struct {
	Plan           domain.Plan
	AppliedCoupon  *domain.Coupon
	DiscountAmount float64
	FinalPrice     float64
}

// CouponService prices subscriptions and manages the coupon catalog.
type CouponService interface {
	ListPlans() []domain.Plan
	Quote(ctx context.Context, planRef string) (*QuoteResult, error)
	// ApplyCoupon prices planRef with code. Rejections are *domain.CouponError.
	ApplyCoupon(ctx context.Context, planRef, code string) (*QuoteResult, error)
	ListCoupons(ctx context.Context) ([]domain.Coupon, error)
	CreateCoupon(ctx context.Context, coupon domain.Coupon) (*domain.Coupon, error)
}
