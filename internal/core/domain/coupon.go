package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// CouponType selects how Value is interpreted.
type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

const (
	CouponStatusActive   = "active"
	CouponStatusInactive = "inactive"

	// PlanScopeAll makes a coupon valid for every plan.
	PlanScopeAll = "all"

	// DateLayout is the calendar-date format used for coupon windows.
	DateLayout = "2006-01-02"
)

var (
	ErrCouponExists  = errors.New("coupon already exists")
	ErrInvalidCoupon = errors.New("invalid coupon")
)

// Coupon is a catalog entry. Coupons are read-only reference data; applying
// one never mutates it.
type Coupon struct {
	Code        string     `json:"code" bson:"code"`
	Type        CouponType `json:"type" bson:"type"`
	Value       float64    `json:"value" bson:"value"`
	MinPurchase float64    `json:"min_purchase" bson:"min_purchase"`
	Status      string     `json:"status" bson:"status"`
	PlanScope   string     `json:"plan_scope" bson:"plan_scope"`
	StartDate   string     `json:"start_date" bson:"start_date"`
	EndDate     string     `json:"end_date" bson:"end_date"`
}

// NormalizeCouponCode is the canonical form used for lookups.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Discount returns the amount this coupon takes off price, rounded to whole
// cents and then clamped to [0, price]. Non-numeric inputs give no discount.
func (c Coupon) Discount(price float64) float64 {
	if price <= 0 || math.IsNaN(price) {
		return 0
	}
	var d float64
	switch c.Type {
	case CouponPercentage:
		d = price * c.Value / 100
	default:
		d = c.Value
	}
	d = roundCents(d)
	if math.IsNaN(d) || d < 0 {
		return 0
	}
	return math.Min(price, d)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// CouponErrorKind tags why a coupon could not be applied.
type CouponErrorKind string

const (
	CouponEmptyCode         CouponErrorKind = "EMPTY_CODE"
	CouponNotFound          CouponErrorKind = "NOT_FOUND"
	CouponInactive          CouponErrorKind = "INACTIVE"
	CouponExpired           CouponErrorKind = "EXPIRED"
	CouponNotApplicable     CouponErrorKind = "NOT_APPLICABLE"
	CouponMinPurchaseNotMet CouponErrorKind = "MIN_PURCHASE_NOT_MET"
)

// CouponError is returned by ApplyCoupon. MinPurchase is only set for
// CouponMinPurchaseNotMet.
type CouponError struct {
	Kind        CouponErrorKind
	MinPurchase float64
}

func (e *CouponError) Error() string {
	switch e.Kind {
	case CouponEmptyCode:
		return "please enter a coupon code"
	case CouponNotFound:
		return "invalid coupon code"
	case CouponInactive:
		return "this coupon is no longer active"
	case CouponExpired:
		return "this coupon has expired"
	case CouponNotApplicable:
		return "this coupon is not valid for the selected plan"
	case CouponMinPurchaseNotMet:
		return fmt.Sprintf("minimum purchase of %.2f required", e.MinPurchase)
	}
	return "coupon could not be applied"
}

// IsCouponError extracts a *CouponError from err.
func IsCouponError(err error) (*CouponError, bool) {
	var ce *CouponError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// AppliedCoupon is a successful resolution.
type AppliedCoupon struct {
	Coupon         Coupon
	DiscountAmount float64
}

// ApplyCoupon resolves code against catalog for plan on the given calendar
// day (YYYY-MM-DD). Checks run in a fixed order and the first failure wins.
func ApplyCoupon(code string, plan Plan, catalog []Coupon, today string) (*AppliedCoupon, error) {
	code = NormalizeCouponCode(code)
	if code == "" {
		return nil, &CouponError{Kind: CouponEmptyCode}
	}

	var found *Coupon
	for i := range catalog {
		if NormalizeCouponCode(catalog[i].Code) == code {
			found = &catalog[i]
			break
		}
	}
	if found == nil {
		return nil, &CouponError{Kind: CouponNotFound}
	}

	c := *found
	if !strings.EqualFold(c.Status, CouponStatusActive) {
		return nil, &CouponError{Kind: CouponInactive}
	}
	// ISO dates order lexically.
	if today < c.StartDate || today > c.EndDate {
		return nil, &CouponError{Kind: CouponExpired}
	}
	scope := strings.ToLower(strings.TrimSpace(c.PlanScope))
	if scope != PlanScopeAll && scope != strings.ToLower(plan.ID) {
		return nil, &CouponError{Kind: CouponNotApplicable}
	}
	if plan.Price < c.MinPurchase {
		return nil, &CouponError{Kind: CouponMinPurchaseNotMet, MinPurchase: c.MinPurchase}
	}

	return &AppliedCoupon{Coupon: c, DiscountAmount: c.Discount(plan.Price)}, nil
}

// Checkout holds the pricing state of a subscription purchase.
type Checkout struct {
	Plan           Plan
	AppliedCoupon  *Coupon
	DiscountAmount float64
}

// Apply records a successful resolution.
func (c *Checkout) Apply(a *AppliedCoupon) {
	if a == nil {
		return
	}
	coupon := a.Coupon
	c.AppliedCoupon = &coupon
	c.DiscountAmount = a.DiscountAmount
}

// RemoveCoupon clears any applied coupon. Safe to call repeatedly.
func (c *Checkout) RemoveCoupon() {
	c.AppliedCoupon = nil
	c.DiscountAmount = 0
}

// FinalPrice is the plan price minus the applied discount.
func (c *Checkout) FinalPrice() float64 {
	return roundCents(c.Plan.Price - c.DiscountAmount)
}
