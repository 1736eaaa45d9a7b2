package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"sealchat/internal/domain"
)

// SMTP sends transactional mail through an authenticated SMTP relay with
// STARTTLS.
type SMTP struct {
	host     string
	port     int
	username string
	password string
	from     string
}

var _ domain.Mailer = (*SMTP)(nil)

// NewSMTP configures a mailer for the given relay. from is the envelope and
// header sender address.
func NewSMTP(host string, port int, username, password, from string) *SMTP {
	return &SMTP{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send delivers one plain-text message. A fresh connection per send keeps
// the mailer stateless; volume is a handful of mails per login.
func (m *SMTP) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("mail from %q: %w", m.from, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail to %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(m.host,
		gomail.WithPort(m.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.username),
		gomail.WithPassword(m.password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %q: %w", to, err)
	}
	return nil
}
