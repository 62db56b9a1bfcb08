package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"time"

	"github.com/codinglibs/mfa"
	"github.com/codinglibs/mfa/pkg/logger"
)

// ChannelName is the registry name this channel answers to.
const ChannelName = "email"

// bodyTemplate renders the default challenge email. Hosts needing branded
// mail supply their own template via WithBodyTemplate.
var bodyTemplate = template.Must(template.New("challenge").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Your verification code is:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px;">{{.Code}}</p>
<p>The code expires in {{.TTL}}.</p>
<p>If you did not request this code, you can safely ignore this email.</p>
</body>
</html>
`))

type bodyData struct {
	Code string
	TTL  string
}

// Channel delivers challenge codes by email. Recipients that do not expose
// an email address are skipped silently; the challenge engine treats such a
// send as successful so accounts without email simply never receive one.
type Channel struct {
	sender  Sender
	subject string
	ttl     time.Duration
	tmpl    *template.Template
	logger  *slog.Logger
}

// ChannelOption configures the channel.
type ChannelOption func(*Channel)

// WithSubject overrides the default subject line.
func WithSubject(subject string) ChannelOption {
	return func(c *Channel) {
		if subject != "" {
			c.subject = subject
		}
	}
}

// WithCodeTTL sets the expiry shown in the message body. It is presentation
// only; the challenge engine owns the real TTL.
func WithCodeTTL(ttl time.Duration) ChannelOption {
	return func(c *Channel) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithBodyTemplate replaces the default body template. The template receives
// .Code and .TTL.
func WithBodyTemplate(tmpl *template.Template) ChannelOption {
	return func(c *Channel) {
		if tmpl != nil {
			c.tmpl = tmpl
		}
	}
}

// WithLogger sets a custom logger for the channel.
func WithLogger(log *slog.Logger) ChannelOption {
	return func(c *Channel) {
		if log != nil {
			c.logger = log
		}
	}
}

// NewChannel creates the email channel around a sender.
func NewChannel(sender Sender, opts ...ChannelOption) (*Channel, error) {
	if sender == nil {
		return nil, fmt.Errorf("%w: sender is required", ErrInvalidConfig)
	}

	c := &Channel{
		sender:  sender,
		subject: "Your verification code",
		ttl:     5 * time.Minute,
		tmpl:    bodyTemplate,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name implements mfa.Channel.
func (c *Channel) Name() string { return ChannelName }

// Send implements mfa.Channel. The recipient must expose an email address
// through mfa.EmailAddressProvider; otherwise the send degrades to a no-op.
func (c *Channel) Send(ctx context.Context, recipient any, code string, opts mfa.SendOptions) error {
	provider, ok := recipient.(mfa.EmailAddressProvider)
	if !ok || provider.MFAEmailAddress() == "" {
		c.logger.DebugContext(ctx, "recipient has no email address, skipping",
			logger.Channel(ChannelName),
		)
		return nil
	}

	subject := c.subject
	if opts.Subject != "" {
		subject = opts.Subject
	}

	body := opts.Message
	if body == "" {
		var buf bytes.Buffer
		if err := c.tmpl.Execute(&buf, bodyData{Code: code, TTL: c.ttl.String()}); err != nil {
			return fmt.Errorf("rendering challenge email: %w", err)
		}
		body = buf.String()
	}

	return c.sender.SendEmail(ctx, SendParams{
		To:       provider.MFAEmailAddress(),
		Subject:  subject,
		BodyHTML: body,
		Tag:      "mfa-challenge",
	})
}

// Factory builds the channel from registry settings for mfa.Factories. The
// "driver" option selects the transport: "postmark" (default) or "log".
func Factory(log *slog.Logger) mfa.ChannelFactory {
	return func(settings mfa.ChannelSettings) (mfa.Channel, error) {
		opts := []ChannelOption{WithLogger(log)}
		if subject := settings.Options["subject"]; subject != "" {
			opts = append(opts, WithSubject(subject))
		}

		var (
			sender Sender
			err    error
		)
		switch driver := settings.Options["driver"]; driver {
		case "log":
			sender = NewLogSender(log)
		case "postmark", "":
			sender, err = NewPostmarkSender(Config{
				PostmarkServerToken:  settings.Options["server_token"],
				PostmarkAccountToken: settings.Options["account_token"],
				SenderEmail:          settings.Options["sender_email"],
				SupportEmail:         settings.Options["support_email"],
			})
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unknown email driver %q", ErrInvalidConfig, driver)
		}

		return NewChannel(sender, opts...)
	}
}
