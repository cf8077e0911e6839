package service

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stampwise/loyalty-platform/internal/core/domain"
)

// mapStore is an in-memory CredentialStore.
type mapStore map[string]string

func (m mapStore) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapStore) Set(key, value string) { m[key] = value }

func (m mapStore) Remove(key string) { delete(m, key) }

func userJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestReadSession(t *testing.T) {
	if ReadSession(nil) != nil {
		t.Fatal("nil store must yield no session")
	}
	if ReadSession(mapStore{}) != nil {
		t.Fatal("empty store must yield no session")
	}
	if ReadSession(mapStore{"token": "abc"}) != nil {
		t.Fatal("token without user must yield no session")
	}
	if ReadSession(mapStore{"user": `{"id":"1"}`}) != nil {
		t.Fatal("user without token must yield no session")
	}

	s := ReadSession(mapStore{"token": "abc", "user": `{"id":"1","role":"Merchant","name":"Ana"}`})
	if s == nil || s.Token != "abc" || s.User == nil {
		t.Fatalf("expected full session, got %+v", s)
	}
	if s.User.ID != "1" || s.User.Role != "Merchant" || s.User.Profile["name"] != "Ana" {
		t.Fatalf("unexpected user: %+v", s.User)
	}
}

func TestReadSession_MalformedUser(t *testing.T) {
	for _, raw := range []string{"not-json", `"a string"`, `[1,2]`, `null`} {
		s := ReadSession(mapStore{"token": "abc", "user": raw})
		if s == nil {
			t.Fatalf("%q: expected session with token", raw)
		}
		if s.Token != "abc" || s.User != nil {
			t.Fatalf("%q: expected token and nil user, got %+v", raw, s)
		}
		if s.Authenticated() {
			t.Fatalf("%q: malformed user must not authenticate", raw)
		}
	}
}

func TestAuthorize_RedirectsToLoginWithTarget(t *testing.T) {
	targets := []string{"/dashboard", "/admin?tab=coupons&page=2", "/subscription?plan=pro plan", "/"}
	sessions := []struct {
		name  string
		store mapStore
	}{
		{"empty", mapStore{}},
		{"token only", mapStore{"token": "abc"}},
		{"malformed user", mapStore{"token": "abc", "user": "{"}},
	}

	for _, s := range sessions {
		for _, target := range targets {
			d := Authorize(ReadSession(s.store), target, domain.RoleAdmin)
			if d.Verdict != VerdictRedirectLogin {
				t.Fatalf("%s %s: expected login redirect, got %+v", s.name, target, d)
			}
			u, err := url.Parse(d.Location)
			if err != nil {
				t.Fatalf("bad location %q: %v", d.Location, err)
			}
			if u.Path != "/login" {
				t.Fatalf("expected /login, got %s", u.Path)
			}
			if got := u.Query().Get("redirect"); got != target {
				t.Fatalf("expected redirect %q, got %q", target, got)
			}
			if d.Location != "/login?redirect="+url.QueryEscape(target) {
				t.Fatalf("unexpected encoding: %s", d.Location)
			}
		}
	}
}

func TestAuthorize_RoleGate(t *testing.T) {
	session := func(role any) *domain.Session {
		return ReadSession(mapStore{"token": "abc", "user": userJSON(t, map[string]any{"id": "1", "role": role})})
	}

	tests := []struct {
		name    string
		role    any
		allowed []string
		want    Verdict
	}{
		{"exact", "admin", []string{"admin"}, VerdictAllow},
		{"case-insensitive", "ADMIN", []string{"Admin"}, VerdictAllow},
		{"one of many", "staff", []string{"merchant", "staff"}, VerdictAllow},
		{"no roles required", "customer", nil, VerdictAllow},
		{"missing role", nil, []string{"admin"}, VerdictAllow},
		{"mismatch", "customer", []string{"merchant", "admin"}, VerdictRedirectForbidden},
		{"numeric role", 7, []string{"admin"}, VerdictRedirectForbidden},
		{"numeric role matches coerced", 7, []string{"7"}, VerdictAllow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Authorize(session(tt.role), "/admin?x=1", tt.allowed...)
			if d.Verdict != tt.want {
				t.Fatalf("expected %s, got %+v", tt.want, d)
			}
			switch d.Verdict {
			case VerdictAllow:
				if d.Location != "" || !d.Allowed() {
					t.Fatalf("allow must carry no location: %+v", d)
				}
			case VerdictRedirectForbidden:
				if d.Location != "/dashboard" {
					t.Fatalf("expected /dashboard without params, got %q", d.Location)
				}
			}
		})
	}
}

func TestAuthorize_IsPure(t *testing.T) {
	store := mapStore{"token": "abc", "user": `{"role":"merchant"}`}
	first := Authorize(ReadSession(store), "/admin", domain.RoleAdmin)
	for i := 0; i < 5; i++ {
		if got := Authorize(ReadSession(store), "/admin", domain.RoleAdmin); got != first {
			t.Fatalf("decision changed between calls: %+v vs %+v", first, got)
		}
	}
	if len(store) != 2 {
		t.Fatalf("store was modified: %+v", store)
	}
}

func TestWriteSession_RoundTrip(t *testing.T) {
	store := mapStore{}
	user := &domain.User{ID: "u-1", Name: "Ana", Email: "ana@example.com", Role: "admin", PasswordHash: "secret-hash"}

	if err := WriteSession(store, "jwt", user); err != nil {
		t.Fatalf("write session: %v", err)
	}

	s := ReadSession(store)
	if !s.Authenticated() || s.Token != "jwt" || s.User.ID != "u-1" || s.User.Role != "admin" {
		t.Fatalf("unexpected session %+v", s)
	}
	if _, leaked := s.User.Profile["password_hash"]; leaked {
		t.Error("password hash must not be persisted")
	}

	ClearSession(store)
	if ReadSession(store) != nil {
		t.Error("expected no session after clear")
	}
}

func TestPostLoginLocation(t *testing.T) {
	tests := []struct {
		target, role, want string
	}{
		{"/subscription?plan=pro", "merchant", "/subscription?plan=pro"},
		{"/admin", "staff", "/admin"},
		{"", "admin", "/admin"},
		{"", "customer", "/"},
		{"//evil.example.com", "merchant", "/dashboard"},
		{"https://evil.example.com", "merchant", "/dashboard"},
		{"/x?next=https://evil", "merchant", "/dashboard"},
		{"/\\evil.example.com", "merchant", "/dashboard"},
		{"/\t/evil.example.com", "merchant", "/dashboard"},
		{"/\n/evil.example.com", "merchant", "/dashboard"},
		{"/\r\n/evil.example.com", "merchant", "/dashboard"},
		{"/\x00admin", "admin", "/admin"},
		{"/\x7f/evil.example.com", "merchant", "/dashboard"},
		{"dashboard", "admin", "/admin"},
		{"/login?redirect=%2Fadmin", "merchant", "/dashboard"},
	}
	for _, tt := range tests {
		if got := PostLoginLocation(tt.target, tt.role); got != tt.want {
			t.Errorf("PostLoginLocation(%q, %q) = %q, want %q", tt.target, tt.role, got, tt.want)
		}
	}
}
