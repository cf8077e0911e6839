package domain

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleAdmin    = "admin"
	RoleMerchant = "merchant"
	RoleStaff    = "staff"
	RoleCustomer = "customer"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrForbidden          = errors.New("access forbidden")
)

// NormalizeRole lower-cases and trims a role tag. Roles are compared
// case-insensitively everywhere.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// IsKnownRole reports whether role is one of the roles the platform issues
// at registration. Unknown roles supplied by other systems are still routed.
func IsKnownRole(role string) bool {
	switch NormalizeRole(role) {
	case RoleAdmin, RoleMerchant, RoleStaff, RoleCustomer:
		return true
	}
	return false
}

// User models an account on the platform.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	MerchantID   string    `json:"merchant_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
