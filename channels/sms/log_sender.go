package sms

import (
	"context"
	"fmt"
	"log/slog"
)

// LogSender writes text messages to a structured logger instead of a
// provider API.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that logs instead of delivering.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// SendSMS logs the message at info level.
func (s *LogSender) SendSMS(ctx context.Context, to, message string) error {
	if to == "" {
		return fmt.Errorf("%w: recipient phone number is required", ErrInvalidParams)
	}
	if message == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidParams)
	}

	s.logger.InfoContext(ctx, "sms (not sent, log sender)",
		slog.String("to", to),
		slog.String("message", message),
	)
	return nil
}
