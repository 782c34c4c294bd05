package mailer

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of delivering them. Used in
// development when no SMTP relay is configured, so email challenges stay
// testable end to end.
type LogSender struct {
	Logger *slog.Logger
}

// NewLogSender creates a log-backed sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{Logger: logger}
}

// Send logs the message and reports success.
func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.Logger.Info("mail delivery (log only)",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
