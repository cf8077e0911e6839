package notify

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
	"github.com/stampwise/loyalty-platform/internal/core/ports"
)

// LogSender writes recovery codes to the log instead of an email or SMS
// gateway. With reveal off the code itself is masked.
type LogSender struct {
	log    zerolog.Logger
	reveal bool
}

func NewLogSender(log zerolog.Logger, reveal bool) *LogSender {
	return &LogSender{log: log, reveal: reveal}
}

func (s *LogSender) Send(ctx context.Context, d ports.CodeDelivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	code := d.Code
	if !s.reveal {
		code = strings.Repeat("*", len(code))
	}
	s.log.Info().
		Str("challenge_id", d.ChallengeID).
		Str("method", string(d.Method)).
		Str("to", MaskTarget(d.Method, d.Target)).
		Str("code", code).
		Msg("recovery code sent")
	return nil
}

// MaskTarget hides most of an address: "a***@example.com", "*******5678".
func MaskTarget(method domain.RecoveryMethod, target string) string {
	if method == domain.RecoveryEmail {
		local, host, ok := strings.Cut(target, "@")
		if !ok || local == "" {
			return "***"
		}
		return local[:1] + "***@" + host
	}
	if len(target) <= 4 {
		return strings.Repeat("*", len(target))
	}
	return strings.Repeat("*", len(target)-4) + target[len(target)-4:]
}
