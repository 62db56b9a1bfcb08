package mfa

import "errors"

var (
	// Configuration errors, surfaced at construction time.
	ErrInvalidConfig      = errors.New("invalid MFA configuration")
	ErrMissingStore       = errors.New("storage is required")
	ErrUnknownChannelType = errors.New("unknown channel type")

	// Negative results: the operation did not apply, the system is not broken.
	ErrNotFound          = errors.New("record not found")
	ErrUnknownMethod     = errors.New("no channel registered for method")
	ErrTOTPNotConfigured = errors.New("TOTP is not configured for this account")

	// Operational failures.
	ErrInvalidRecord     = errors.New("invalid record")
	ErrDuplicateToken    = errors.New("device token already exists for this account")
	ErrFailedToGenerate  = errors.New("failed to generate random value")
	ErrSecretUnavailable = errors.New("failed to access stored TOTP secret")
	ErrDeliveryFailed    = errors.New("failed to deliver challenge code")
)
