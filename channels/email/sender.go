package email

import (
	"context"
	"fmt"
	"regexp"
)

// Sender delivers a rendered email. The channel renders the challenge
// message and hands it off; implementations own the transport.
type Sender interface {
	SendEmail(ctx context.Context, params SendParams) error
}

// SendParams is one outbound email.
type SendParams struct {
	To       string
	Subject  string
	BodyHTML string
	Tag      string
}

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validate checks the parameters before a transport attempt.
func (p SendParams) Validate() error {
	if p.To == "" || !emailRegex.MatchString(p.To) {
		return fmt.Errorf("%w: recipient %q is not a valid email address", ErrInvalidParams, p.To)
	}
	if p.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidParams)
	}
	if p.BodyHTML == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidParams)
	}
	return nil
}
