package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownMethod  = errors.New("unknown rpc method")
	ErrEmptyResult    = errors.New("rpc returned no result")
	ErrTaskNotFound   = errors.New("task not found")
	ErrSecretNotFound = errors.New("secret not found")
	ErrNoSession      = errors.New("no session credential loaded")
)

// NetworkError is a transport failure before any HTTP status was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-success HTTP status that is neither an auth failure nor
// a rate limit.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// AuthError means the session was rejected. Err is the first rejection and
// Cause, when set, is the refresh failure or the rejection of the retry.
type AuthError struct {
	StatusCode int
	Err        error
	Cause      error
}

func (e *AuthError) Error() string {
	msg := "authentication failed"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("authentication failed (http %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Cause != nil {
		msg += " (cause: " + e.Cause.Error() + ")"
	}
	return msg
}

func (e *AuthError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

type RefreshError struct {
	Reason string
	Err    error
}

func (e *RefreshError) Error() string {
	if e.Err == nil {
		return "refresh session tokens: " + e.Reason
	}
	return fmt.Sprintf("refresh session tokens: %s: %v", e.Reason, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// RPCError is a business error reported by the service for one call.
type RPCError struct {
	MethodCode string
	Code       int
	Reason     string
	Message    string
}

func (e *RPCError) Error() string {
	var b strings.Builder
	b.WriteString("rpc ")
	b.WriteString(e.MethodCode)
	b.WriteString(" failed")
	if e.Code != 0 {
		fmt.Fprintf(&b, " with code %d", e.Code)
	}
	if e.Reason != "" {
		b.WriteString(" (" + e.Reason + ")")
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}

// RateLimitError is the RPCError subtype the poller backs off on.
type RateLimitError struct {
	RPCError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return "rate limited: " + e.RPCError.Error()
}

func (e *RateLimitError) Unwrap() error { return &e.RPCError }

type DecodeError struct {
	Reason  string
	Preview string
	Err     error
}

func (e *DecodeError) Error() string {
	msg := "decode response: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Preview != "" {
		msg += fmt.Sprintf(" (near %q)", e.Preview)
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TimeoutError leaves the task in its last observed state.
type TimeoutError struct {
	TaskID  string
	State   TaskState
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("task %s still %s after %s", e.TaskID, e.State, e.Timeout)
}

type TaskFailedError struct {
	TaskID string
	Reason string
}

func (e *TaskFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("task %s failed", e.TaskID)
	}
	return fmt.Sprintf("task %s failed: %s", e.TaskID, e.Reason)
}

func IsRateLimited(err error) bool {
	var rateLimit *RateLimitError
	return errors.As(err, &rateLimit)
}

func IsAuthFailure(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
