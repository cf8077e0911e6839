package api

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/stampwise/loyalty-platform/internal/api/handler"
	"github.com/stampwise/loyalty-platform/internal/core/domain"
	"github.com/stampwise/loyalty-platform/internal/core/ports"
)

const testSecret = "router-test-secret"

type routerCoupons struct{}

func (routerCoupons) ListPlans() []domain.Plan {
	return []domain.Plan{{ID: "pro", Name: "Pro Plan", Price: 599}}
}

func (routerCoupons) Quote(ctx context.Context, planRef string) (*ports.QuoteResult, error) {
	return &ports.QuoteResult{Plan: domain.Plan{ID: planRef, Price: 599}, FinalPrice: 599}, nil
}

func (routerCoupons) ApplyCoupon(ctx context.Context, planRef, code string) (*ports.QuoteResult, error) {
	return nil, &domain.CouponError{Kind: domain.CouponNotFound}
}

func (routerCoupons) ListCoupons(ctx context.Context) ([]domain.Coupon, error) {
	return nil, nil
}

func (routerCoupons) CreateCoupon(ctx context.Context, coupon domain.Coupon) (*domain.Coupon, error) {
	return &coupon, nil
}

var (
	routerOnce sync.Once
	testRouter *echo.Echo
)

// router is built once: the HTTP metrics collectors register globally.
func router() *echo.Echo {
	routerOnce.Do(func() {
		testRouter = NewRouter(Deps{
			JWTSecret: testSecret,
			Coupons:   routerCoupons{},
			Readiness: map[string]handler.DependencyCheck{
				"mongo": func(ctx context.Context) error { return nil },
			},
			Logger: zerolog.Nop(),
		})
	})
	return testRouter
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	return "Bearer " + signToken(t, role)
}

func signToken(t *testing.T, role string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "u-1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func withSessionCookies(req *http.Request, token, userJSON string) *http.Request {
	enc := base64.RawURLEncoding.EncodeToString
	req.AddCookie(&http.Cookie{Name: "token", Value: enc([]byte(token))})
	req.AddCookie(&http.Cookie{Name: "user", Value: enc([]byte(userJSON))})
	return req
}

func serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router().ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	for _, path := range []string{"/health", "/health/ready"} {
		rec := serve(httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouter_GuardedPageRedirectsToLogin(t *testing.T) {
	rec := serve(httptest.NewRequest(http.MethodGet, "/subscription?plan=pro", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/login?redirect=%2Fsubscription%3Fplan%3Dpro" {
		t.Fatalf("unexpected location %q", loc)
	}
}

func TestRouter_HomeIsPublic(t *testing.T) {
	rec := serve(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_BearerAPI(t *testing.T) {
	rec := serve(httptest.NewRequest(http.MethodGet, "/v1/plans", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/plans", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, "merchant"))
	if rec := serve(req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/coupons", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, "merchant"))
	if rec := serve(req); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for merchant on coupons, got %d", rec.Code)
	}
}

func TestRouter_CouponRejectionRendersKind(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/subscription/quote",
		strings.NewReader(`{"plan":"pro","coupon_code":"NOPE"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, "merchant"))

	rec := serve(req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"kind":"NOT_FOUND"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestRouter_AdminPageNeedsSignedSession(t *testing.T) {
	forged := withSessionCookies(httptest.NewRequest(http.MethodGet, "/admin", nil), "not-a-jwt", `{"id":"x","role":"admin"}`)
	rec := serve(forged)
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/login?redirect=%2Fadmin" {
		t.Fatalf("forged session: expected login redirect, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}

	signed := withSessionCookies(httptest.NewRequest(http.MethodGet, "/admin", nil), signToken(t, "admin"), `{"id":"u-1","role":"admin"}`)
	if rec := serve(signed); rec.Code != http.StatusOK {
		t.Fatalf("signed session: expected 200, got %d", rec.Code)
	}
}
