// Package mailer delivers challenge codes over SMTP.
package mailer

import (
	"context"
	"fmt"
	"time"

	mail "github.com/wneessen/go-mail"
)

// Sender delivers a single plain-text message. Implementations must bound
// delivery time; a send on the challenge-initiate path cannot block
// indefinitely.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPConfig holds transport settings, sourced from the environment.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// StartTLS upgrades the connection when the server offers it.
	StartTLS bool
	Timeout  time.Duration
}

// Configured reports whether enough settings are present to attempt delivery.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

// SMTPSender sends mail through a configured SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender creates an SMTP-backed sender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPSender{cfg: cfg}
}

// Send composes and delivers the message. The connection is dialed per
// send; challenge volume is low enough that pooling isn't worth the state.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	if s.cfg.StartTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
