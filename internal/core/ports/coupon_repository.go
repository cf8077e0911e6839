package ports

import (
	"context"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
)

// CouponRepository stores the coupon catalog.
type CouponRepository interface {
	List(ctx context.Context) ([]domain.Coupon, error)
	Create(ctx context.Context, coupon domain.Coupon) error
}

// PlanCatalog lists the subscription plans on sale.
type PlanCatalog interface {
	List() []domain.Plan
	// Find resolves a plan by internal id or display name.
	Find(ref string) (domain.Plan, error)
}
