package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Recovery flow errors.
var (
	ErrValidation              = errors.New("validation failed")
	ErrChallengeFailed         = errors.New("bot verification failed")
	ErrInvalidOrExpiredToken   = errors.New("invalid or expired verification token")
	ErrOtpMismatch             = errors.New("invalid OTP")
	ErrProvider                = errors.New("provider error")
	ErrCatalogReferenceMissing = errors.New("security question not found")
	ErrStepOutOfOrder          = errors.New("step not available")
)
