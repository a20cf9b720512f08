package application

import "time"

// SessionStatus describes a credential without exposing any secret.
type SessionStatus struct {
	CookieCount   int
	HasSessionID  bool
	TokensFetched time.Time
	CheckedAt     time.Time
}
