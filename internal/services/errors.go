package services

import (
	"errors"
	"fmt"
)

// Помилки OAuth flow
var (
	ErrStateMismatch       = errors.New("oauth state mismatch")
	ErrMissingCode         = errors.New("missing authorization code")
	ErrTokenExchangeFailed = errors.New("token exchange failed")
	ErrProfileFetchFailed  = errors.New("profile fetch failed")
	ErrStoreLookup         = errors.New("membership store lookup failed")
)

// Помилки перевірки токена. Назовні всі три відображаються як ErrUnauthorized.
var (
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrMalformed        = errors.New("token malformed")
	ErrExpired          = errors.New("token expired")
	ErrUnauthorized     = errors.New("unauthorized")
)

// UpstreamError описує неуспішну відповідь Discord
type UpstreamError struct {
	Op     string
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream returned status %d", e.Op, e.Status)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsTokenError reports whether err came from token verification.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrSignatureInvalid) ||
		errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrExpired)
}
