package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
)

func runErrorHandler(method string, err error) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	NewHTTPErrorHandler(zerolog.Nop())(err, e.NewContext(req, rec))
	return rec
}

func TestHTTPErrorHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrUserExists, http.StatusConflict},
		{fmt.Errorf("find plan: %w", domain.ErrPlanNotFound), http.StatusNotFound},
		{domain.ErrCouponExists, http.StatusConflict},
		{domain.ErrInvalidPhone, http.StatusUnprocessableEntity},
		{domain.ErrWeakPassword, http.StatusUnprocessableEntity},
		{domain.ErrTooManyAttempts, http.StatusTooManyRequests},
		{domain.ErrChallengeNotFound, http.StatusNotFound},
		{domain.ErrResetTokenInvalid, http.StatusUnauthorized},
		{domain.ErrInvalidOTPState, http.StatusConflict},
		{errors.New("mongo: connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := runErrorHandler(http.MethodPost, tt.err)
		if rec.Code != tt.code {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.code, rec.Code)
		}
	}
}

func TestHTTPErrorHandler_HidesInternalErrors(t *testing.T) {
	rec := runErrorHandler(http.MethodGet, errors.New("mongo: auth failed for user root"))

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Error != "internal server error" {
		t.Fatalf("internal detail leaked: %q", body.Error)
	}
}

func TestHTTPErrorHandler_CouponErrors(t *testing.T) {
	rec := runErrorHandler(http.MethodPost, &domain.CouponError{Kind: domain.CouponMinPurchaseNotMet, MinPurchase: 1000})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Kind != "MIN_PURCHASE_NOT_MET" || body.MinPurchase == nil || *body.MinPurchase != 1000 {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec = runErrorHandler(http.MethodPost, fmt.Errorf("apply: %w", &domain.CouponError{Kind: domain.CouponExpired}))
	body = errorResponse{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Kind != "EXPIRED" || body.MinPurchase != nil {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestHTTPErrorHandler_CooldownSetsRetryAfter(t *testing.T) {
	rec := runErrorHandler(http.MethodPost, &domain.CooldownError{Remaining: 41500 * time.Millisecond})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("expected Retry-After 42, got %q", got)
	}
}

func TestHTTPErrorHandler_HeadHasNoBody(t *testing.T) {
	rec := runErrorHandler(http.MethodHead, domain.ErrForbidden)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}
}
