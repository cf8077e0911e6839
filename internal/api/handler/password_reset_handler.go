package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stampwise/loyalty-platform/internal/api/metrics"
	"github.com/stampwise/loyalty-platform/internal/core/domain"
	"github.com/stampwise/loyalty-platform/internal/core/ports"
)

// PasswordResetHandler exposes the OTP password recovery flow.
type PasswordResetHandler struct {
	service ports.PasswordResetService
}

func NewPasswordResetHandler(service ports.PasswordResetService) *PasswordResetHandler {
	return &PasswordResetHandler{service: service}
}

// RequestCode starts a recovery challenge and sends a code.
//
// @Summary      Request a recovery code
// @Tags         password-reset
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Recovery contact"
// @Success      202   {object}  challengeResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/forgot-password [post]
func (h *PasswordResetHandler) RequestCode(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ticket, err := h.service.RequestCode(c.Request().Context(), domain.RecoveryContact{
		Method:      domain.RecoveryMethod(req.Method),
		Email:       req.Email,
		Phone:       req.Phone,
		CountryCode: req.CountryCode,
	})
	observeOTP("request", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, toChallengeResponse(ticket))
}

// ResendCode sends a new code once the cooldown has run out.
//
// @Summary      Resend a recovery code
// @Tags         password-reset
// @Accept       json
// @Produce      json
// @Param        body  body      resendCodeRequest  true  "Challenge"
// @Success      202   {object}  challengeResponse
// @Failure      404   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/forgot-password/resend [post]
func (h *PasswordResetHandler) ResendCode(c echo.Context) error {
	var req resendCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ticket, err := h.service.ResendCode(c.Request().Context(), req.ChallengeID)
	observeOTP("resend", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, toChallengeResponse(ticket))
}

// VerifyCode trades a correct code for a single-use reset token.
//
// @Summary      Verify a recovery code
// @Tags         password-reset
// @Accept       json
// @Produce      json
// @Param        body  body      verifyCodeRequest  true  "Challenge and code"
// @Success      200   {object}  verifyCodeResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/forgot-password/verify [post]
func (h *PasswordResetHandler) VerifyCode(c echo.Context) error {
	var req verifyCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	token, err := h.service.VerifyCode(c.Request().Context(), req.ChallengeID, req.Code)
	observeOTP("verify", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verifyCodeResponse{ResetToken: token})
}

// ResetPassword sets a new password with a reset token.
//
// @Summary      Reset the password
// @Tags         password-reset
// @Accept       json
// @Param        body  body  resetPasswordRequest  true  "Reset token and new password"
// @Success      204
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/reset-password [post]
func (h *PasswordResetHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	err := h.service.ResetPassword(c.Request().Context(), req.ResetToken, req.Password)
	observeOTP("reset", err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func toChallengeResponse(t *ports.ChallengeTicket) challengeResponse {
	return challengeResponse{
		ChallengeID:     t.ChallengeID,
		Method:          string(t.Method),
		CooldownSeconds: t.CooldownSeconds,
		ExpiresAt:       t.ExpiresAt,
	}
}

func observeOTP(operation string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrCooldownActive):
		result = "cooldown"
	case errors.Is(err, domain.ErrInvalidOTPCode),
		errors.Is(err, domain.ErrChallengeNotFound),
		errors.Is(err, domain.ErrTooManyAttempts),
		errors.Is(err, domain.ErrResetTokenInvalid):
		result = "invalid"
	default:
		result = "error"
	}
	metrics.OTPRequestsTotal.WithLabelValues(operation, result).Inc()
}
