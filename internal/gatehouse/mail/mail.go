// Package mail sends the broker's outbound email. Delivery is best effort;
// callers decide whether a send failure matters.
package mail

import (
	"fmt"

	gomail "github.com/go-mail/mail"
)

// Sender delivers a single message. A nil-safe no-op implementation is used
// when SMTP is not configured.
type Sender interface {
	Send(to, subject, textBody string) error
}

// SMTPSender delivers through a single SMTP relay using STARTTLS when the
// server offers it.
type SMTPSender struct {
	Host string
	Port int
	From string
	User string
	Pass string
}

func (s *SMTPSender) Send(to, subject, textBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// Discard drops every message. Used when no SMTP relay is configured, so
// invite links are only surfaced through the admin response.
type Discard struct{}

func (Discard) Send(to, subject, textBody string) error { return nil }
