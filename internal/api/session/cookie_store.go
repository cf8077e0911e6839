// Package session adapts HTTP cookies to the credential store the access
// guard reads from.
package session

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Options controls the attributes of every cookie the store writes.
type Options struct {
	Domain string
	Secure bool
	MaxAge time.Duration
}

// CookieStore is a request-scoped credential store. Values are base64url
// encoded so JSON survives cookie syntax.
type CookieStore struct {
	c    echo.Context
	opts Options
}

func NewCookieStore(c echo.Context, opts Options) *CookieStore {
	return &CookieStore{c: c, opts: opts}
}

// Get returns the decoded cookie value. A value that is not base64url is
// returned as is, which callers treat as malformed.
func (s *CookieStore) Get(key string) (string, bool) {
	ck, err := s.c.Cookie(key)
	if err != nil || ck.Value == "" {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return ck.Value, true
	}
	return string(raw), true
}

func (s *CookieStore) Set(key, value string) {
	ck := s.cookie(key)
	ck.Value = base64.RawURLEncoding.EncodeToString([]byte(value))
	if s.opts.MaxAge > 0 {
		ck.MaxAge = int(s.opts.MaxAge / time.Second)
		ck.Expires = time.Now().Add(s.opts.MaxAge)
	}
	s.c.SetCookie(ck)
}

func (s *CookieStore) Remove(key string) {
	ck := s.cookie(key)
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0)
	s.c.SetCookie(ck)
}

func (s *CookieStore) cookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Path:     "/",
		Domain:   s.opts.Domain,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
