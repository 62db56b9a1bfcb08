package sms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/codinglibs/mfa"
	"github.com/codinglibs/mfa/pkg/logger"
)

// ChannelName is the registry name this channel answers to.
const ChannelName = "sms"

var (
	ErrInvalidConfig = errors.New("invalid sms channel configuration")
	ErrInvalidParams = errors.New("invalid sms parameters")
)

// Sender delivers one text message. Implementations wrap a provider API;
// LogSender backs development environments.
type Sender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// defaultTemplate is the message body; %s is replaced by the code.
const defaultTemplate = "Your verification code is %s"

// Channel delivers challenge codes by text message. Recipients that do not
// expose a phone number are skipped silently, mirroring the email channel.
type Channel struct {
	sender   Sender
	template string
	logger   *slog.Logger
}

// ChannelOption configures the channel.
type ChannelOption func(*Channel)

// WithMessageTemplate overrides the message body. The template must contain
// exactly one %s verb for the code.
func WithMessageTemplate(template string) ChannelOption {
	return func(c *Channel) {
		if template != "" {
			c.template = template
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

// NewChannel creates the sms channel around a sender.
func NewChannel(sender Sender, opts ...ChannelOption) (*Channel, error) {
	if sender == nil {
		return nil, fmt.Errorf("%w: sender is required", ErrInvalidConfig)
	}

	c := &Channel{
		sender:   sender,
		template: defaultTemplate,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	if strings.Count(c.template, "%s") != 1 {
		return nil, fmt.Errorf("%w: message template must contain exactly one %%s", ErrInvalidConfig)
	}
	return c, nil
}

// Name implements mfa.Channel.
func (c *Channel) Name() string { return ChannelName }

// Send implements mfa.Channel. The recipient must expose a phone number
// through mfa.PhoneNumberProvider; otherwise the send degrades to a no-op.
// opts.Message, when set, replaces the whole rendered body.
func (c *Channel) Send(ctx context.Context, recipient any, code string, opts mfa.SendOptions) error {
	provider, ok := recipient.(mfa.PhoneNumberProvider)
	if !ok || provider.MFAPhoneNumber() == "" {
		c.logger.DebugContext(ctx, "recipient has no phone number, skipping",
			logger.Channel(ChannelName),
		)
		return nil
	}

	message := opts.Message
	if message == "" {
		message = fmt.Sprintf(c.template, code)
	}

	return c.sender.SendSMS(ctx, provider.MFAPhoneNumber(), message)
}

// Factory builds the channel from registry settings for mfa.Factories. The
// only built-in driver is "log"; provider-backed senders are wired in code
// via NewChannel.
func Factory(log *slog.Logger) mfa.ChannelFactory {
	return func(settings mfa.ChannelSettings) (mfa.Channel, error) {
		opts := []ChannelOption{WithLogger(log)}
		if template := settings.Options["template"]; template != "" {
			opts = append(opts, WithMessageTemplate(template))
		}

		switch driver := settings.Options["driver"]; driver {
		case "log", "":
			return NewChannel(NewLogSender(log), opts...)
		default:
			return nil, fmt.Errorf("%w: unknown sms driver %q", ErrInvalidConfig, driver)
		}
	}
}
