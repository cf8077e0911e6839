package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
	"github.com/stampwise/loyalty-platform/internal/core/ports"
)

// PasswordResetOptions tunes the recovery flow.
type PasswordResetOptions struct {
	CodeTTL       time.Duration
	ResetTokenTTL time.Duration
	Cooldown      time.Duration
	MaxAttempts   int
	// Simulate accepts any well-formed code. Development only.
	Simulate bool
}

func (o *PasswordResetOptions) withDefaults() {
	if o.CodeTTL <= 0 {
		o.CodeTTL = 10 * time.Minute
	}
	if o.ResetTokenTTL <= 0 {
		o.ResetTokenTTL = 15 * time.Minute
	}
	if o.Cooldown <= 0 {
		o.Cooldown = domain.OTPResendCooldown * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
}

type passwordResetService struct {
	users      ports.AuthRepository
	store      ports.ChallengeStore
	dispatcher ports.CodeDispatcher
	opts       PasswordResetOptions
	log        zerolog.Logger
	now        func() time.Time
	newCode    func() (string, error)
}

// NewPasswordResetService returns a PasswordResetService implementation.
func NewPasswordResetService(
	users ports.AuthRepository,
	store ports.ChallengeStore,
	dispatcher ports.CodeDispatcher,
	opts PasswordResetOptions,
	log zerolog.Logger,
) ports.PasswordResetService {
	opts.withDefaults()
	return &passwordResetService{
		users:      users,
		store:      store,
		dispatcher: dispatcher,
		opts:       opts,
		log:        log,
		now:        time.Now,
		newCode:    generateCode,
	}
}

// RequestCode issues a code for contact. Unknown contacts get a ticket and a
// stored challenge too, so no endpoint reveals which accounts exist.
func (s *passwordResetService) RequestCode(ctx context.Context, contact domain.RecoveryContact) (*ports.ChallengeTicket, error) {
	if err := contact.Validate(); err != nil {
		return nil, err
	}
	target := contact.Target()

	ok, remaining, err := s.store.AcquireCooldown(ctx, target, s.opts.Cooldown)
	if err != nil {
		return nil, fmt.Errorf("request code: %w", err)
	}
	if !ok {
		return nil, &domain.CooldownError{Remaining: remaining}
	}

	now := s.now().UTC()
	ticket := &ports.ChallengeTicket{
		ChallengeID:     uuid.NewString(),
		Method:          contact.Method,
		CooldownSeconds: int(s.opts.Cooldown / time.Second),
		ExpiresAt:       now.Add(s.opts.CodeTTL),
	}

	ch := &domain.PasswordResetChallenge{
		ID:        ticket.ChallengeID,
		Method:    contact.Method,
		Target:    target,
		CreatedAt: now,
		ExpiresAt: ticket.ExpiresAt,
	}

	user, err := s.findUser(ctx, contact)
	switch {
	case err == nil:
		ch.UserID = user.ID
	case errors.Is(err, domain.ErrUserNotFound):
		// Unknown contacts get a stored challenge without a user, so resend
		// and verify answer exactly as for a real account.
		s.log.Info().Str("method", string(contact.Method)).Msg("recovery requested for unknown contact")
	default:
		return nil, fmt.Errorf("request code: %w", err)
	}

	if err := s.issue(ctx, ch); err != nil {
		return nil, fmt.Errorf("request code: %w", err)
	}

	s.log.Info().Str("challenge_id", ch.ID).Str("method", string(ch.Method)).Msg("recovery code issued")
	return ticket, nil
}

// ResendCode replaces the code of an open challenge once the cooldown is over.
func (s *passwordResetService) ResendCode(ctx context.Context, challengeID string) (*ports.ChallengeTicket, error) {
	ch, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	ok, remaining, err := s.store.AcquireCooldown(ctx, ch.Target, s.opts.Cooldown)
	if err != nil {
		return nil, fmt.Errorf("resend code: %w", err)
	}
	if !ok {
		return nil, &domain.CooldownError{Remaining: remaining}
	}

	ch.Attempts = 0
	ch.ExpiresAt = s.now().UTC().Add(s.opts.CodeTTL)
	if err := s.issue(ctx, ch); err != nil {
		return nil, fmt.Errorf("resend code: %w", err)
	}

	s.log.Info().Str("challenge_id", ch.ID).Msg("recovery code resent")
	return &ports.ChallengeTicket{
		ChallengeID:     ch.ID,
		Method:          ch.Method,
		CooldownSeconds: int(s.opts.Cooldown / time.Second),
		ExpiresAt:       ch.ExpiresAt,
	}, nil
}

// VerifyCode checks code and trades the challenge for a single-use reset token.
func (s *passwordResetService) VerifyCode(ctx context.Context, challengeID, code string) (string, error) {
	if !isOTPCode(code) {
		return "", domain.ErrInvalidOTPCode
	}

	ch, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return "", err
	}

	attempts, err := s.store.IncrementAttempts(ctx, ch.ID)
	if err != nil {
		return "", fmt.Errorf("verify code: %w", err)
	}
	if attempts > s.opts.MaxAttempts {
		_ = s.store.DeleteChallenge(ctx, ch.ID)
		s.log.Warn().Str("challenge_id", ch.ID).Int("attempts", attempts).Msg("recovery challenge locked")
		return "", domain.ErrTooManyAttempts
	}

	if ch.UserID == "" {
		return "", domain.ErrInvalidOTPCode
	}
	if !s.opts.Simulate && subtle.ConstantTimeCompare([]byte(ch.Code), []byte(code)) != 1 {
		return "", domain.ErrInvalidOTPCode
	}

	if err := s.store.DeleteChallenge(ctx, ch.ID); err != nil {
		return "", fmt.Errorf("verify code: %w", err)
	}

	token := uuid.NewString()
	if err := s.store.SaveResetToken(ctx, token, ch.UserID, s.opts.ResetTokenTTL); err != nil {
		return "", fmt.Errorf("verify code: %w", err)
	}

	s.log.Info().Str("challenge_id", ch.ID).Msg("recovery code verified")
	return token, nil
}

// ResetPassword consumes resetToken and stores the new password hash.
func (s *passwordResetService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if len(newPassword) < 8 {
		return domain.ErrWeakPassword
	}

	userID, err := s.store.ConsumeResetToken(ctx, resetToken)
	if err != nil {
		return err
	}
	if userID == "" {
		return domain.ErrResetTokenInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	s.log.Info().Str("user_id", userID).Msg("password reset")
	return nil
}

func (s *passwordResetService) findUser(ctx context.Context, contact domain.RecoveryContact) (*domain.User, error) {
	if contact.Method == domain.RecoveryPhone {
		return s.users.FindByPhone(ctx, contact.Target())
	}
	return s.users.FindByEmail(ctx, contact.Target())
}

// issue stores a fresh code on ch and queues its delivery. Challenges
// without a user are stored but never delivered.
func (s *passwordResetService) issue(ctx context.Context, ch *domain.PasswordResetChallenge) error {
	code, err := s.newCode()
	if err != nil {
		return err
	}
	ch.Code = code
	if err := s.store.SaveChallenge(ctx, ch); err != nil {
		return err
	}
	if ch.UserID == "" {
		return nil
	}
	s.dispatcher.Enqueue(ports.CodeDelivery{
		ChallengeID: ch.ID,
		Method:      ch.Method,
		Target:      ch.Target,
		Code:        code,
	})
	return nil
}

func isOTPCode(code string) bool {
	if len(code) != domain.OTPCodeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// generateCode returns a random numeric code of domain.OTPCodeLength digits.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
