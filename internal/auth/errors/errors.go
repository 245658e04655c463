package errors

import "errors"

// Token-level failures reported by the token codec.
var (
	ErrMalformed        = errors.New("token is malformed")
	ErrSignatureInvalid = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token has expired")
	ErrConfiguration    = errors.New("token signing key is not configured")
)

// Request-level failures reported by the principal resolver and gate.
var (
	ErrMissingCredential = errors.New("credential is missing")
	ErrInvalidCredential = errors.New("credential is invalid")
	ErrExpiredCredential = errors.New("credential has expired")
	ErrUnauthenticated   = errors.New("request is not authenticated")
	ErrForbidden         = errors.New("principal lacks the required role")
)

// IsAuthentication reports whether err means the caller could not be
// identified, as opposed to being identified but not allowed.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrInvalidCredential) ||
		errors.Is(err, ErrExpiredCredential) ||
		errors.Is(err, ErrUnauthenticated)
}
