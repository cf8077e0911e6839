package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
)

// OTPStore keeps password recovery state in Redis. Every key carries a TTL.
//
//	otp:challenge:<id>     hash, expires with the code
//	otp:cooldown:<target>  resend lock
//	otp:reset:<token>      user id, consumed with GETDEL
type OTPStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewOTPStore creates an OTPStore wrapping the given Redis client.
func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client, now: time.Now}
}

type challengeDoc struct {
	UserID    string `redis:"user_id"`
	Method    string `redis:"method"`
	Target    string `redis:"target"`
	Code      string `redis:"code"`
	Attempts  int    `redis:"attempts"`
	CreatedAt int64  `redis:"created_at"`
	ExpiresAt int64  `redis:"expires_at"`
}

// incrAttempts bumps the counter only on live challenges so an expired
// hash is never resurrected without a TTL.
var incrAttempts = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
`)

func (s *OTPStore) SaveChallenge(ctx context.Context, ch *domain.PasswordResetChallenge) error {
	ttl := ch.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("save challenge %s: already expired", ch.ID)
	}

	key := challengeKey(ch.ID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, toChallengeDoc(ch))
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save challenge: %w", err)
	}
	return nil
}

func (s *OTPStore) GetChallenge(ctx context.Context, id string) (*domain.PasswordResetChallenge, error) {
	res := s.client.HGetAll(ctx, challengeKey(id))
	fields, err := res.Result()
	if err != nil {
		return nil, fmt.Errorf("get challenge: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrChallengeNotFound
	}

	var doc challengeDoc
	if err := res.Scan(&doc); err != nil {
		return nil, fmt.Errorf("decode challenge: %w", err)
	}
	return fromChallengeDoc(id, doc), nil
}

func (s *OTPStore) IncrementAttempts(ctx context.Context, id string) (int, error) {
	n, err := incrAttempts.Run(ctx, s.client, []string{challengeKey(id)}).Int()
	if err != nil {
		return 0, fmt.Errorf("increment attempts: %w", err)
	}
	if n < 0 {
		return 0, domain.ErrChallengeNotFound
	}
	return n, nil
}

func (s *OTPStore) DeleteChallenge(ctx context.Context, id string) error {
	return s.client.Del(ctx, challengeKey(id)).Err()
}

// AcquireCooldown sets the resend lock for target. When the lock is held it
// reports the remaining time.
func (s *OTPStore) AcquireCooldown(ctx context.Context, target string, d time.Duration) (bool, time.Duration, error) {
	key := cooldownKey(target)
	ok, err := s.client.SetNX(ctx, key, "1", d).Result()
	if err != nil {
		return false, 0, fmt.Errorf("acquire cooldown: %w", err)
	}
	if ok {
		return true, 0, nil
	}

	left, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("cooldown ttl: %w", err)
	}
	if left <= 0 {
		left = time.Second
	}
	return false, left, nil
}

func (s *OTPStore) SaveResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	return s.client.Set(ctx, resetKey(token), userID, ttl).Err()
}

func (s *OTPStore) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, resetKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrResetTokenInvalid
		}
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	return userID, nil
}

func challengeKey(id string) string    { return "otp:challenge:" + id }
func cooldownKey(target string) string { return "otp:cooldown:" + target }
func resetKey(token string) string     { return "otp:reset:" + token }

func toChallengeDoc(ch *domain.PasswordResetChallenge) challengeDoc {
	return challengeDoc{
		UserID:    ch.UserID,
		Method:    string(ch.Method),
		Target:    ch.Target,
		Code:      ch.Code,
		Attempts:  ch.Attempts,
		CreatedAt: ch.CreatedAt.Unix(),
		ExpiresAt: ch.ExpiresAt.Unix(),
	}
}

func fromChallengeDoc(id string, doc challengeDoc) *domain.PasswordResetChallenge {
	return &domain.PasswordResetChallenge{
		ID:        id,
		UserID:    doc.UserID,
		Method:    domain.RecoveryMethod(doc.Method),
		Target:    doc.Target,
		Code:      doc.Code,
		Attempts:  doc.Attempts,
		CreatedAt: time.Unix(doc.CreatedAt, 0).UTC(),
		ExpiresAt: time.Unix(doc.ExpiresAt, 0).UTC(),
	}
}
