package mail

import (
	"context"

	"github.com/rs/zerolog"

	"sealchat/internal/domain"
)

// LogMailer is the fallback used when no SMTP relay is configured: mails are
// written to the log instead of being sent. Bodies carry one-time codes, so
// they only appear at debug level.
type LogMailer struct {
	log zerolog.Logger
}

var _ domain.Mailer = (*LogMailer)(nil)

// NewLogMailer returns a mailer logging through log.
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "mail").Logger()}
}

// Send logs the mail and reports success.
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.log.Info().Str("to", to).Str("subject", subject).Msg("mail suppressed, no smtp configured")
	m.log.Debug().Str("to", to).Str("body", body).Msg("mail body")
	return nil
}
