package service

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
	"github.com/stampwise/loyalty-platform/internal/core/ports"
)

// Verdict is the outcome of a route guard check.
type Verdict string

const (
	VerdictAllow             Verdict = "allow"
	VerdictRedirectLogin     Verdict = "redirect_login"
	VerdictRedirectForbidden Verdict = "redirect_forbidden"
)

// Decision tells the caller whether to render the route or where to send
// the user instead.
type Decision struct {
	Verdict  Verdict
	Location string
}

// Allowed reports whether the route may be rendered.
func (d Decision) Allowed() bool {
	return d.Verdict == VerdictAllow
}

// ReadSession loads the persisted session from store. It returns nil when
// the store is unavailable or either key is missing. A user record that is
// not a JSON object yields a session without a user.
func ReadSession(store ports.CredentialStore) *domain.Session {
	if store == nil {
		return nil
	}
	token, ok := store.Get(domain.CredentialTokenKey)
	if !ok || token == "" {
		return nil
	}
	raw, ok := store.Get(domain.CredentialUserKey)
	if !ok || raw == "" {
		return nil
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(raw), &record); err != nil || record == nil {
		return &domain.Session{Token: token}
	}
	return &domain.Session{Token: token, User: domain.NewSessionUser(record)}
}

// Authorize decides whether session may open requestURI (path plus query).
// Unauthenticated users go to the login page with the original target in
// the redirect parameter. Authenticated users whose role is not in
// allowedRoles go to the dashboard. No roles means any signed-in user.
func Authorize(session *domain.Session, requestURI string, allowedRoles ...string) Decision {
	if !session.Authenticated() {
		return Decision{
			Verdict:  VerdictRedirectLogin,
			Location: domain.RouteLogin.Path() + "?redirect=" + url.QueryEscape(requestURI),
		}
	}

	role := domain.NormalizeRole(session.User.Role)
	if len(allowedRoles) == 0 || role == "" {
		return Decision{Verdict: VerdictAllow}
	}
	for _, r := range allowedRoles {
		if domain.NormalizeRole(r) == role {
			return Decision{Verdict: VerdictAllow}
		}
	}

	return Decision{Verdict: VerdictRedirectForbidden, Location: domain.RouteDashboard.Path()}
}

// WriteSession persists token and the public part of user into store, in
// the shape ReadSession expects.
func WriteSession(store ports.CredentialStore, token string, user *domain.User) error {
	record, err := json.Marshal(map[string]any{
		"id":          user.ID,
		"name":        user.Name,
		"email":       user.Email,
		"role":        user.Role,
		"merchant_id": user.MerchantID,
	})
	if err != nil {
		return err
	}
	store.Set(domain.CredentialTokenKey, token)
	store.Set(domain.CredentialUserKey, string(record))
	return nil
}

// ClearSession removes both credential keys.
func ClearSession(store ports.CredentialStore) {
	store.Remove(domain.CredentialTokenKey)
	store.Remove(domain.CredentialUserKey)
}

// PostLoginLocation picks where to send a user after login: the requested
// target when it is a local path, otherwise the role's landing page.
func PostLoginLocation(target, role string) string {
	if isSafeRedirect(target) {
		return target
	}
	return domain.DefaultRouteFor(role)
}

// isSafeRedirect accepts local absolute paths only. Control characters are
// rejected outright since browsers drop tabs and newlines before resolving.
func isSafeRedirect(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "://") {
		return false
	}
	for _, r := range target {
		if r < 0x20 || r == 0x7f || r == '\\' {
			return false
		}
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Opaque != "" {
		return false
	}
	return u.Path != domain.RouteLogin.Path()
}
