package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Coupon
// rejections also carry their kind, and the required minimum when the
// rejection is MIN_PURCHASE_NOT_MET.
type errorResponse struct {
	Error       string   `json:"error"`
	Kind        string   `json:"kind,omitempty"`
	MinPurchase *float64 `json:"min_purchase,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	if ce, ok := domain.IsCouponError(err); ok {
		resp := errorResponse{Error: ce.Error(), Kind: string(ce.Kind)}
		if ce.Kind == domain.CouponMinPurchaseNotMet {
			minimum := ce.MinPurchase
			resp.MinPurchase = &minimum
		}
		return http.StatusUnprocessableEntity, resp
	}

	var cd *domain.CooldownError
	if errors.As(err, &cd) {
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(cd.Remaining.Seconds()))))
		return http.StatusTooManyRequests, errorResponse{Error: cd.Error()}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: "user not found"}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, errorResponse{Error: "user already exists"}
	case errors.Is(err, domain.ErrPlanNotFound):
		return http.StatusNotFound, errorResponse{Error: "plan not found"}
	case errors.Is(err, domain.ErrCouponExists):
		return http.StatusConflict, errorResponse{Error: "coupon already exists"}
	case errors.Is(err, domain.ErrInvalidCoupon),
		errors.Is(err, domain.ErrInvalidRecoveryMethod),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrInvalidPhone),
		errors.Is(err, domain.ErrInvalidOTPCode),
		errors.Is(err, domain.ErrWeakPassword):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrCooldownActive),
		errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrChallengeNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrResetTokenInvalid):
		return http.StatusUnauthorized, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrInvalidOTPState):
		return http.StatusConflict, errorResponse{Error: err.Error()}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
