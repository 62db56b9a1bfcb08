package email

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid email channel configuration")
	ErrInvalidParams = errors.New("invalid email parameters")
	ErrSendFailed    = errors.New("failed to send email")
)
