// Package mail provides an SMTP-backed MailSender for deployments that
// relay availability emails through a plain SMTP gateway instead of the
// Gmail API.
package mail

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/schedflow/schedflow/pkg/gcal"
)

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

var _ gcal.MailSender = (*SMTPSender)(nil)

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send dispatches the message and returns the generated Message-ID as the
// thread handle. SMTP has no native thread concept; the paired thread
// reader resolves replies by their In-Reply-To header instead.
func (s *SMTPSender) Send(_ context.Context, to, subject, body string) (string, error) {
	threadID, m := s.compose(to, subject, body)
	if err := s.dialer.DialAndSend(m); err != nil {
		return "", &gcal.TransportError{Op: "smtp.send", Transient: true, Err: err}
	}
	return threadID, nil
}

func (s *SMTPSender) compose(to, subject, body string) (string, *gomail.Message) {
	threadID := uuid.NewString()

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-ID", fmt.Sprintf("<%s@schedflow>", threadID))
	m.SetBody("text/plain", body)
	return threadID, m
}
