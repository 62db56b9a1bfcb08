package email

import (
	"context"
	"log/slog"
)

// LogSender writes emails to a structured logger instead of a transport.
// It backs development environments where no Postmark account exists.
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

// SendEmail logs the email at info level. The body is included verbatim so
// developers can read the challenge code off the console.
func (s *LogSender) SendEmail(ctx context.Context, params SendParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "email (not sent, log sender)",
		slog.String("to", params.To),
		slog.String("subject", params.Subject),
		slog.String("tag", params.Tag),
		slog.String("body", params.BodyHTML),
	)
	return nil
}
