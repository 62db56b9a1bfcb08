package totp

import "errors"

var (
	ErrFailedToGenerateSecret = errors.New("failed to generate TOTP secret")
	ErrMissingSecret          = errors.New("missing secret")
	ErrMissingLabel           = errors.New("missing label")
	ErrMissingIssuer          = errors.New("missing issuer")
)
