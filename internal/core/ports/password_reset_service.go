package ports

import (
	"context"
	"time"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
)

// ChallengeTicket is returned when a code was issued.
type ChallengeTicket struct {
	ChallengeID     string
	Method          domain.RecoveryMethod
	CooldownSeconds int
	ExpiresAt       time.Time
}

// PasswordResetService runs the server half of password recovery.
type PasswordResetService interface {
	RequestCode(ctx context.Context, contact domain.RecoveryContact) (*ChallengeTicket, error)
	ResendCode(ctx context.Context, challengeID string) (*ChallengeTicket, error)
	VerifyCode(ctx context.Context, challengeID, code string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}
