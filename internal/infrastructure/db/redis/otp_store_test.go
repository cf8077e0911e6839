package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
)

func TestKeys(t *testing.T) {
	if got := challengeKey("abc"); got != "otp:challenge:abc" {
		t.Errorf("unexpected challenge key %q", got)
	}
	if got := cooldownKey("+525512345678"); got != "otp:cooldown:+525512345678" {
		t.Errorf("unexpected cooldown key %q", got)
	}
	if got := resetKey("tok"); got != "otp:reset:tok" {
		t.Errorf("unexpected reset key %q", got)
	}
}

func TestChallengeDocRoundTrip(t *testing.T) {
	created := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	ch := &domain.PasswordResetChallenge{
		ID:        "ch-1",
		UserID:    "u-1",
		Method:    domain.RecoveryPhone,
		Target:    "+525512345678",
		Code:      "042017",
		Attempts:  2,
		CreatedAt: created,
		ExpiresAt: created.Add(10 * time.Minute),
	}

	got := fromChallengeDoc(ch.ID, toChallengeDoc(ch))
	if got.ID != ch.ID || got.UserID != ch.UserID || got.Method != ch.Method ||
		got.Target != ch.Target || got.Code != ch.Code || got.Attempts != ch.Attempts {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, ch)
	}
	if !got.CreatedAt.Equal(ch.CreatedAt) || !got.ExpiresAt.Equal(ch.ExpiresAt) {
		t.Errorf("timestamps not preserved: %v / %v", got.CreatedAt, got.ExpiresAt)
	}
}

func TestSaveChallenge_RejectsExpired(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	s := &OTPStore{now: func() time.Time { return now }}

	err := s.SaveChallenge(context.Background(), &domain.PasswordResetChallenge{ID: "x", ExpiresAt: now})
	if err == nil {
		t.Fatal("expected error for an expired challenge")
	}
}
