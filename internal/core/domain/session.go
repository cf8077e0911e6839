package domain

import "fmt"

// Storage keys under which the login flow persists credentials.
const (
	CredentialTokenKey = "token"
	CredentialUserKey  = "user"
)

// SessionUser is the user record persisted next to the token. Profile keeps
// every field of the stored record, including ones this package does not
// interpret.
type SessionUser struct {
	ID      string
	Role    string
	Profile map[string]any
}

// NewSessionUser builds a SessionUser from a decoded user record. Non-string
// id and role values are formatted rather than rejected.
func NewSessionUser(record map[string]any) *SessionUser {
	return &SessionUser{
		ID:      coerceString(record["id"]),
		Role:    coerceString(record["role"]),
		Profile: record,
	}
}

// Session is the token+user pair held by the client.
type Session struct {
	Token string
	User  *SessionUser
}

// Authenticated reports whether both halves of the session are present.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != "" && s.User != nil
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
