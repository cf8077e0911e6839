package ports

import (
	"context"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Name       string
	Email      string
	Phone      string
	Password   string
	Role       string
	MerchantID string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
