// Package mailer sends transactional mail (password reset links).
package mailer

import (
	"context"
	"fmt"
	"regexp"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPOpts struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers through an SMTP relay.
type SMTPMailer struct{ o SMTPOpts }

func NewSMTP(o SMTPOpts) *SMTPMailer { return &SMTPMailer{o: o} }

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.o.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.o.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if m.o.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.o.Username),
			mail.WithPassword(m.o.Password),
		)
	}
	c, err := mail.NewClient(m.o.Host, opts...)
	if err != nil {
		return fmt.Errorf("mail client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail send: %w", err)
	}
	return nil
}

// LogMailer only logs; used when no SMTP host is configured.
// Links in the body are logged without their path so reset tokens stay out of logs.
type LogMailer struct{ L *zap.Logger }

func (m LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.L.Info("mail (not sent, no smtp host)",
		zap.String("to", to), zap.String("subject", subject), zap.String("body", redactLinks(body)))
	return nil
}

var linkRe = regexp.MustCompile(`(https?://[^/\s]+)/\S*`)

func redactLinks(body string) string { return linkRe.ReplaceAllString(body, "$1/****") }

// New picks SMTP when a host is configured.
func New(o SMTPOpts, l *zap.Logger) Sender {
	if o.Host == "" {
		return LogMailer{L: l}
	}
	return NewSMTP(o)
}
