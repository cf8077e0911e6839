package ports

import (
	"context"
	"time"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
)

// ChallengeStore keeps issued recovery codes, resend cooldowns and reset
// tokens. All entries expire on their own.
type ChallengeStore interface {
	SaveChallenge(ctx context.Context, ch *domain.PasswordResetChallenge) error
	GetChallenge(ctx context.Context, id string) (*domain.PasswordResetChallenge, error)
	IncrementAttempts(ctx context.Context, id string) (int, error)
	DeleteChallenge(ctx context.Context, id string) error

	// AcquireCooldown starts a cooldown for target. It returns false and the
	// time left when one is already running.
	AcquireCooldown(ctx context.Context, target string, d time.Duration) (bool, time.Duration, error)

	SaveResetToken(ctx context.Context, token, userID string, ttl time.Duration) error
	// ConsumeResetToken returns the user bound to token and deletes it.
	ConsumeResetToken(ctx context.Context, token string) (string, error)
}
