package auth

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy shared by the auth core and the invitation protocol.
// Callers classify with errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")

	// ErrInvalidCredentials is returned by Login for both unknown email and
	// wrong password.
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", ErrUnauthorized)

	// ErrInvalidToken is the only error token verification ever returns.
	ErrInvalidToken = fmt.Errorf("invalid token: %w", ErrUnauthorized)
)

// RateLimitedError signals that a client exceeded its request budget
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many requests, retry after %d seconds", e.RetryAfterSeconds())
}

// RetryAfterSeconds rounds the wait up to whole seconds, never below 1.
func (e *RateLimitedError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// IsRateLimited extracts a RateLimitedError from err
func IsRateLimited(err error) (*RateLimitedError, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}

// validationError wraps ErrValidation with a client-safe message
func validationError(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrValidation)
}

// collapseToken is the translation boundary for token verification. Any
// failure, whatever its cause, leaves as ErrInvalidToken.
func collapseToken(err error) error {
	if err == nil {
		return nil
	}
	return ErrInvalidToken
}
