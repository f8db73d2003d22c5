package notify

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers a rendered email.
type Mailer interface {
	Send(ctx context.Context, to string, email Email) error
}

// LogMailer records emails in the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to string, email Email) error {
	m.logger.Info("Email queued",
		zap.String("to", to),
		zap.String("subject", email.Subject),
		zap.Int("html_bytes", len(email.HTML)),
	)
	m.logger.Debug("Email body", zap.String("text", email.Text))
	return nil
}
