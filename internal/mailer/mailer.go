// Package mailer sends alert mail over SMTP. The Sender interface keeps the
// alert sweep testable; SMTPSender is the production implementation built on
// wneessen/go-mail.
package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	gomail "github.com/wneessen/go-mail"
)

// Sender delivers one plain-text message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender logs instead of sending. Used when no SMTP relay is configured,
// so the alert sweep still runs and its decisions stay visible.
type LogSender struct{}

// Send writes the would-be message to the log.
func (LogSender) Send(_ context.Context, to, subject, _ string) error {
	log.Info().Str("to", to).Str("subject", subject).Msg("mail disabled, alert logged")
	return nil
}

// SMTPSender sends through a configured SMTP relay.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

// NewSMTPSender builds a sender for the given relay. Username may be empty
// for unauthenticated relays.
func NewSMTPSender(host string, port int, username, password, from string) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(username),
			gomail.WithPassword(password),
		)
	}
	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: from}, nil
}

// Send delivers one message, dialing per call. Alert volume is a handful of
// mails per day, so connection reuse is not worth the bookkeeping.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
