package ports

import (
	"context"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
)

// CodeDelivery is one recovery code waiting to be sent.
type CodeDelivery struct {
	ChallengeID string
	Method      domain.RecoveryMethod
	Target      string
	Code        string
}

// CodeSender delivers a recovery code over email or SMS.
type CodeSender interface {
	Send(ctx context.Context, d CodeDelivery) error
}

// CodeDispatcher queues deliveries so requests do not wait on the sender.
type CodeDispatcher interface {
	Enqueue(d CodeDelivery)
}
