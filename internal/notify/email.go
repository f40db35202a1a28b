package notify

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer sends formatted messages over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer creates an SMTP mailer. Returns nil when no user is configured,
// which disables email delivery; all methods are nil-safe no-ops then.
func NewMailer(host string, port int, user, password, from string) *Mailer {
	if user == "" {
		return nil
	}
	if from == "" {
		from = user
	}
	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}
}

// Enabled reports whether the mailer is configured.
func (m *Mailer) Enabled() bool { return m != nil }

// Send delivers one message. Failure surfaces to the caller.
func (m *Mailer) Send(to, subject, textBody, htmlBody string) error {
	if m == nil {
		return fmt.Errorf("email transport not configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", textBody)
	if htmlBody != "" {
		msg.AddAlternative("text/html", htmlBody)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
