package domain

import (
	"errors"
	"strings"
	"time"
)

// Cookie is one long-lived browser cookie from the login bundle.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
}

// CredentialBundle is what the external login step hands over: the browser
// storage state with its cookie jar and per-origin data.
type CredentialBundle struct {
	Cookies []Cookie
	Origins []string
}

func (b CredentialBundle) Validate() error {
	if len(b.Cookies) == 0 {
		return errors.New("credential bundle has no cookies")
	}
	for _, cookie := range b.Cookies {
		if cookie.Name == "SID" && cookie.Value != "" {
			return nil
		}
	}
	return errors.New("credential bundle is missing the SID cookie")
}

// SessionCredential is immutable once issued. A refresh produces a new value
// that replaces the old one in the session store.
type SessionCredential struct {
	cookies   []Cookie
	CSRFToken string
	SessionID string
	FetchedAt time.Time
}

func NewSessionCredential(cookies []Cookie, csrfToken, sessionID string, fetchedAt time.Time) *SessionCredential {
	copied := make([]Cookie, len(cookies))
	copy(copied, cookies)
	return &SessionCredential{
		cookies:   copied,
		CSRFToken: csrfToken,
		SessionID: sessionID,
		FetchedAt: fetchedAt,
	}
}

// Cookies returns a copy of the cookie list.
func (c *SessionCredential) Cookies() []Cookie {
	copied := make([]Cookie, len(c.cookies))
	copy(copied, c.cookies)
	return copied
}

// CookieHeader renders the cookies as a Cookie request header value.
func (c *SessionCredential) CookieHeader() string {
	parts := make([]string, 0, len(c.cookies))
	seen := make(map[string]struct{}, len(c.cookies))
	for _, cookie := range c.cookies {
		if _, ok := seen[cookie.Name]; ok {
			continue
		}
		seen[cookie.Name] = struct{}{}
		parts = append(parts, cookie.Name+"="+cookie.Value)
	}
	return strings.Join(parts, "; ")
}

// HasTokens reports whether the short-lived token pair has been fetched.
func (c *SessionCredential) HasTokens() bool {
	return c != nil && c.CSRFToken != ""
}

// WithTokens issues a new credential that shares the cookie jar but carries
// a fresh token pair.
func (c *SessionCredential) WithTokens(csrfToken, sessionID string, fetchedAt time.Time) *SessionCredential {
	return NewSessionCredential(c.cookies, csrfToken, sessionID, fetchedAt)
}
