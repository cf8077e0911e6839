package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const today = "2026-10-18"

func testCatalog() []Coupon {
	return []Coupon{
		{Code: "SAVE20", Type: CouponPercentage, Value: 20, MinPurchase: 100, Status: CouponStatusActive, PlanScope: PlanScopeAll, StartDate: "2026-01-01", EndDate: "2026-12-31"},
		{Code: "flat500", Type: CouponFixed, Value: 500, MinPurchase: 0, Status: CouponStatusActive, PlanScope: "pro", StartDate: "2026-01-01", EndDate: today},
		{Code: "BIGFLAT", Type: CouponFixed, Value: 5000, Status: CouponStatusActive, PlanScope: PlanScopeAll, StartDate: "2026-01-01", EndDate: "2026-12-31"},
		{Code: "OLD10", Type: CouponPercentage, Value: 10, Status: CouponStatusActive, PlanScope: PlanScopeAll, StartDate: "2025-01-01", EndDate: "2025-12-31"},
		{Code: "SOON", Type: CouponPercentage, Value: 10, Status: CouponStatusActive, PlanScope: PlanScopeAll, StartDate: "2026-11-01", EndDate: "2026-12-31"},
		{Code: "PAUSED", Type: CouponPercentage, Value: 10, Status: CouponStatusInactive, PlanScope: PlanScopeAll, StartDate: "2025-01-01", EndDate: "2025-01-02"},
	}
}

var (
	proPlan   = Plan{ID: "pro", Name: "Pro Plan", Price: 1000}
	basicPlan = Plan{ID: "basic", Name: "Basic", Price: 50}
)

func TestApplyCoupon_PercentageDiscount(t *testing.T) {
	applied, err := ApplyCoupon("SAVE20", proPlan, testCatalog(), today)
	require.NoError(t, err)
	assert.Equal(t, "SAVE20", applied.Coupon.Code)
	assert.Equal(t, 200.0, applied.DiscountAmount)

	checkout := Checkout{Plan: proPlan}
	checkout.Apply(applied)
	assert.Equal(t, 800.0, checkout.FinalPrice())
}

func TestApplyCoupon_NormalisesCode(t *testing.T) {
	applied, err := ApplyCoupon("  flat500 ", proPlan, testCatalog(), today)
	require.NoError(t, err)
	assert.Equal(t, 500.0, applied.DiscountAmount)
}

func TestApplyCoupon_FixedDiscountIsClamped(t *testing.T) {
	applied, err := ApplyCoupon("BIGFLAT", proPlan, testCatalog(), today)
	require.NoError(t, err)
	assert.Equal(t, proPlan.Price, applied.DiscountAmount)

	checkout := Checkout{Plan: proPlan}
	checkout.Apply(applied)
	assert.Equal(t, 0.0, checkout.FinalPrice())
}

func TestApplyCoupon_Errors(t *testing.T) {
	tests := []struct {
		name string
		code string
		plan Plan
		want CouponErrorKind
	}{
		{"empty", "   ", proPlan, CouponEmptyCode},
		{"unknown", "NOPE", proPlan, CouponNotFound},
		{"inactive wins over expired", "PAUSED", proPlan, CouponInactive},
		{"past window", "OLD10", proPlan, CouponExpired},
		{"future window", "SOON", proPlan, CouponExpired},
		{"wrong plan", "FLAT500", basicPlan, CouponNotApplicable},
		{"below minimum", "SAVE20", basicPlan, CouponMinPurchaseNotMet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applied, err := ApplyCoupon(tt.code, tt.plan, testCatalog(), today)
			assert.Nil(t, applied)
			ce, ok := IsCouponError(err)
			require.True(t, ok, "expected CouponError, got %v", err)
			assert.Equal(t, tt.want, ce.Kind)
		})
	}
}

func TestApplyCoupon_MinPurchaseCarriesMinimum(t *testing.T) {
	_, err := ApplyCoupon("SAVE20", basicPlan, testCatalog(), today)
	ce, ok := IsCouponError(err)
	require.True(t, ok)
	assert.Equal(t, 100.0, ce.MinPurchase)
	assert.Contains(t, ce.Error(), "100.00")
}

func TestApplyCoupon_EndDateBoundary(t *testing.T) {
	_, err := ApplyCoupon("FLAT500", proPlan, testCatalog(), today)
	require.NoError(t, err, "coupon ending today must still apply")

	_, err = ApplyCoupon("FLAT500", proPlan, testCatalog(), "2026-10-19")
	ce, ok := IsCouponError(err)
	require.True(t, ok)
	assert.Equal(t, CouponExpired, ce.Kind)
}

func TestCoupon_DiscountBounds(t *testing.T) {
	coupons := []Coupon{
		{Type: CouponPercentage, Value: 0},
		{Type: CouponPercentage, Value: 150},
		{Type: CouponPercentage, Value: -20},
		{Type: CouponFixed, Value: 10},
		{Type: CouponFixed, Value: 1e6},
		{Type: CouponFixed, Value: -5},
	}
	prices := []float64{0, 1, 49.99, 100, 1000}

	for _, c := range coupons {
		for _, p := range prices {
			d := c.Discount(p)
			assert.GreaterOrEqual(t, d, 0.0, "coupon %+v price %v", c, p)
			assert.LessOrEqual(t, d, p, "coupon %+v price %v", c, p)
		}
	}
}

func TestCoupon_DiscountRejectsNaN(t *testing.T) {
	nan := math.NaN()
	assert.Equal(t, 0.0, Coupon{Type: CouponPercentage, Value: nan}.Discount(100))
	assert.Equal(t, 0.0, Coupon{Type: CouponFixed, Value: nan}.Discount(100))
	assert.Equal(t, 0.0, Coupon{Type: CouponFixed, Value: 10}.Discount(nan))
	assert.Equal(t, 100.0, Coupon{Type: CouponFixed, Value: math.Inf(1)}.Discount(100))
	assert.Equal(t, 0.0, Coupon{Type: CouponFixed, Value: math.Inf(-1)}.Discount(100))
}

func TestCoupon_DiscountRoundsToCents(t *testing.T) {
	d := Coupon{Type: CouponPercentage, Value: 15}.Discount(49.99)
	assert.Equal(t, 7.5, d)
	assert.LessOrEqual(t, d, 49.99)
}

func TestCheckout_RemoveCouponIsIdempotent(t *testing.T) {
	checkout := Checkout{Plan: proPlan}
	checkout.RemoveCoupon()
	assert.Nil(t, checkout.AppliedCoupon)
	assert.Equal(t, 0.0, checkout.DiscountAmount)
	assert.Equal(t, 1000.0, checkout.FinalPrice())

	applied, err := ApplyCoupon("SAVE20", proPlan, testCatalog(), today)
	require.NoError(t, err)
	checkout.Apply(applied)
	checkout.RemoveCoupon()
	checkout.RemoveCoupon()
	assert.Nil(t, checkout.AppliedCoupon)
	assert.Equal(t, 1000.0, checkout.FinalPrice())
}

func TestApplyCoupon_DoesNotMutateCatalog(t *testing.T) {
	catalog := testCatalog()
	applied, err := ApplyCoupon("SAVE20", proPlan, catalog, today)
	require.NoError(t, err)
	applied.Coupon.Value = 99
	assert.Equal(t, 20.0, catalog[0].Value)
}
