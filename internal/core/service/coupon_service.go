package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
	"github.com/stampwise/loyalty-platform/internal/core/ports"
)

// CouponService prices subscription plans against the coupon catalog.
type CouponService struct {
	repo   ports.CouponRepository
	plans  ports.PlanCatalog
	loc    *time.Location
	now    func() time.Time
	logger zerolog.Logger
}

// NewCouponService builds a CouponService. Coupon windows are evaluated on
// the calendar of loc (UTC when nil).
func NewCouponService(repo ports.CouponRepository, plans ports.PlanCatalog, loc *time.Location, logger zerolog.Logger) *CouponService {
	if loc == nil {
		loc = time.UTC
	}
	return &CouponService{repo: repo, plans: plans, loc: loc, now: time.Now, logger: logger}
}

func (s *CouponService) today() string {
	return s.now().In(s.loc).Format(domain.DateLayout)
}

func (s *CouponService) ListPlans() []domain.Plan {
	return s.plans.List()
}

// Quote prices a plan without a coupon.
func (s *CouponService) Quote(_ context.Context, planRef string) (*ports.QuoteResult, error) {
	plan, err := s.plans.Find(planRef)
	if err != nil {
		return nil, err
	}
	return toQuote(domain.Checkout{Plan: plan}), nil
}

// ApplyCoupon resolves code for planRef against a snapshot of the catalog.
func (s *CouponService) ApplyCoupon(ctx context.Context, planRef, code string) (*ports.QuoteResult, error) {
	plan, err := s.plans.Find(planRef)
	if err != nil {
		return nil, err
	}

	catalog, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply coupon: %w", err)
	}

	applied, err := domain.ApplyCoupon(code, plan, catalog, s.today())
	if err != nil {
		s.logger.Debug().Err(err).Str("plan", plan.ID).Str("code", domain.NormalizeCouponCode(code)).Msg("coupon rejected")
		return nil, err
	}

	checkout := domain.Checkout{Plan: plan}
	checkout.Apply(applied)

	s.logger.Info().
		Str("plan", plan.ID).
		Str("code", applied.Coupon.Code).
		Float64("discount", applied.DiscountAmount).
		Msg("coupon applied")

	return toQuote(checkout), nil
}

func (s *CouponService) ListCoupons(ctx context.Context) ([]domain.Coupon, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return coupons, nil
}

// CreateCoupon normalises and validates a catalog entry before storing it.
func (s *CouponService) CreateCoupon(ctx context.Context, c domain.Coupon) (*domain.Coupon, error) {
	c.Code = domain.NormalizeCouponCode(c.Code)
	c.PlanScope = strings.ToLower(strings.TrimSpace(c.PlanScope))
	c.Status = strings.ToLower(strings.TrimSpace(c.Status))
	if c.PlanScope == "" {
		c.PlanScope = domain.PlanScopeAll
	}
	if c.Status == "" {
		c.Status = domain.CouponStatusActive
	}

	if err := s.validateCoupon(c); err != nil {
		return nil, err
	}
	if c.PlanScope != domain.PlanScopeAll {
		plan, err := s.plans.Find(c.PlanScope)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown plan %q", domain.ErrInvalidCoupon, c.PlanScope)
		}
		c.PlanScope = plan.ID
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info().Str("code", c.Code).Str("plan_scope", c.PlanScope).Msg("coupon created")
	return &c, nil
}

func (s *CouponService) validateCoupon(c domain.Coupon) error {
	if c.Code == "" {
		return fmt.Errorf("%w: code is required", domain.ErrInvalidCoupon)
	}
	if c.Type != domain.CouponPercentage && c.Type != domain.CouponFixed {
		return fmt.Errorf("%w: type must be percentage or fixed", domain.ErrInvalidCoupon)
	}
	if c.Value <= 0 || (c.Type == domain.CouponPercentage && c.Value > 100) {
		return fmt.Errorf("%w: value out of range", domain.ErrInvalidCoupon)
	}
	if c.MinPurchase < 0 {
		return fmt.Errorf("%w: min_purchase cannot be negative", domain.ErrInvalidCoupon)
	}
	if c.Status != domain.CouponStatusActive && c.Status != domain.CouponStatusInactive {
		return fmt.Errorf("%w: status must be active or inactive", domain.ErrInvalidCoupon)
	}
	start, err := time.Parse(domain.DateLayout, c.StartDate)
	if err != nil {
		return fmt.Errorf("%w: start_date must be YYYY-MM-DD", domain.ErrInvalidCoupon)
	}
	end, err := time.Parse(domain.DateLayout, c.EndDate)
	if err != nil {
		return fmt.Errorf("%w: end_date must be YYYY-MM-DD", domain.ErrInvalidCoupon)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end_date is before start_date", domain.ErrInvalidCoupon)
	}
	return nil
}

func toQuote(c domain.Checkout) *ports.QuoteResult {
	return &ports.QuoteResult{
		Plan:           c.Plan,
		AppliedCoupon:  c.AppliedCoupon,
		DiscountAmount: c.DiscountAmount,
		FinalPrice:     c.FinalPrice(),
	}
}
