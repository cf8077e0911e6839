package handler

import (
	"time"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Name       string `json:"name"        validate:"required,notblank,max=120"`
	Email      string `json:"email"       validate:"required,email"`
	Phone      string `json:"phone"       validate:"omitempty,e164"`
	Password   string `json:"password"    validate:"required,min=8,max=72"`
	Role       string `json:"role"        validate:"omitempty,oneof=merchant customer"`
	MerchantID string `json:"merchant_id" validate:"max=64"`
}

type createUserRequest struct {
	Name       string `json:"name"        validate:"required,notblank,max=120"`
	Email      string `json:"email"       validate:"required,email"`
	Phone      string `json:"phone"       validate:"omitempty,e164"`
	Password   string `json:"password"    validate:"required,min=8,max=72"`
	Role       string `json:"role"        validate:"required,oneof=admin merchant staff customer"`
	MerchantID string `json:"merchant_id" validate:"max=64"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	// Redirect is the page the user was sent away from, if any.
	Redirect string `json:"redirect"`
}

type authResponse struct {
	Token      string       `json:"token,omitempty"`
	User       *domain.User `json:"user,omitempty"`
	RedirectTo string       `json:"redirect_to,omitempty"`
}

type logoutResponse struct {
	RedirectTo string `json:"redirect_to"`
}

// --- Password recovery ---

type forgotPasswordRequest struct {
	Method      string `json:"method"       validate:"required,oneof=email phone"`
	Email       string `json:"email"        validate:"required_if=Method email"`
	Phone       string `json:"phone"        validate:"required_if=Method phone"`
	CountryCode string `json:"country_code"`
}

type resendCodeRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required,notblank"`
}

type verifyCodeRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required,notblank"`
	Code        string `json:"code"         validate:"required,len=6,numeric"`
}

type resetPasswordRequest struct {
	ResetToken string `json:"reset_token" validate:"required,notblank"`
	Password   string `json:"password"    validate:"required,min=8,max=72"`
}

type challengeResponse struct {
	ChallengeID     string    `json:"challenge_id"`
	Method          string    `json:"method"`
	CooldownSeconds int       `json:"cooldown_seconds"`
	ExpiresAt       time.Time `json:"expires_at"`
}

type verifyCodeResponse struct {
	ResetToken string `json:"reset_token"`
}

// --- Subscription ---

type quoteRequest struct {
	Plan string `json:"plan" validate:"required,notblank"`
	// CouponCode is optional; when present it is resolved, even if blank.
	CouponCode *string `json:"coupon_code"`
}

type quoteResponse struct {
	Plan           domain.Plan    `json:"plan"`
	AppliedCoupon  *domain.Coupon `json:"applied_coupon"`
	DiscountAmount float64        `json:"discount_amount"`
	FinalPrice     float64        `json:"final_price"`
}

type plansResponse struct {
	Plans []domain.Plan `json:"plans"`
}

// --- Coupons ---

type createCouponRequest struct {
	Code        string  `json:"code"         validate:"required,notblank,max=32"`
	Type        string  `json:"type"         validate:"required,oneof=percentage fixed"`
	Value       float64 `json:"value"        validate:"required,gt=0"`
	MinPurchase float64 `json:"min_purchase" validate:"gte=0"`
	Status      string  `json:"status"       validate:"omitempty,oneof=active inactive"`
	PlanScope   string  `json:"plan_scope"   validate:"max=64"`
	StartDate   string  `json:"start_date"   validate:"required,datetime=2006-01-02"`
	EndDate     string  `json:"end_date"     validate:"required,datetime=2006-01-02"`
}

type couponsResponse struct {
	Coupons []domain.Coupon `json:"coupons"`
}

// --- Pages ---

type pageResponse struct {
	Page     string         `json:"page"`
	User     map[string]any `json:"user,omitempty"`
	Redirect string         `json:"redirect,omitempty"`
}
