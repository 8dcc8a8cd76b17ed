// Package smtp implements a Provider that delivers messages through an
// SMTP relay using STARTTLS and AUTH PLAIN.
package smtp

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/shineum/mcp-mailer-lite/internal/email"
)

// ProviderConfig holds the SMTP relay connection parameters.
type ProviderConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Provider sends messages over SMTP. Each Send dials a fresh connection,
// upgrades it with STARTTLS, and authenticates before transmitting; there
// is no connection reuse across sends.
type Provider struct {
	cfg ProviderConfig
}

// New creates an SMTP Provider with the given configuration.
func New(cfg ProviderConfig) *Provider {
	return &Provider{cfg: cfg}
}

// Send delivers one message to its primary recipient plus Cc/Bcc. The Bcc
// addresses join the envelope only; go-mail keeps them out of the
// transmitted headers. Exactly one attempt, no retry.
func (p *Provider) Send(ctx context.Context, msg *email.Message) error {
	m, err := buildMsg(msg)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(p.cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(p.cfg.Username),
		mail.WithPassword(p.cfg.Password),
	}

	c, err := mail.NewClient(p.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("SMTP delivery failed: %w", err)
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "smtp"
}

// buildMsg converts the internal message model into a go-mail message.
func buildMsg(msg *email.Message) (*mail.Msg, error) {
	m := mail.NewMsg()

	if msg.FromName != "" {
		if err := m.FromFormat(msg.FromName, msg.From); err != nil {
			return nil, fmt.Errorf("invalid sender address %q: %w", msg.From, err)
		}
	} else {
		if err := m.From(msg.From); err != nil {
			return nil, fmt.Errorf("invalid sender address %q: %w", msg.From, err)
		}
	}

	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", msg.To, err)
	}
	if len(msg.Cc) > 0 {
		if err := m.Cc(msg.Cc...); err != nil {
			return nil, fmt.Errorf("invalid cc address: %w", err)
		}
	}
	if len(msg.Bcc) > 0 {
		if err := m.Bcc(msg.Bcc...); err != nil {
			return nil, fmt.Errorf("invalid bcc address: %w", err)
		}
	}

	m.Subject(msg.Subject)
	if msg.MessageID != "" {
		m.SetMessageIDWithValue(msg.MessageID)
	}
	m.SetBodyString(mail.TypeTextPlain, msg.TextBody)

	for _, att := range msg.Attachments {
		opts := []mail.FileOption{}
		if att.ContentType != "" {
			opts = append(opts, mail.WithFileContentType(mail.ContentType(att.ContentType)))
		}
		if err := m.AttachReader(att.Filename, bytes.NewReader(att.Content), opts...); err != nil {
			return nil, fmt.Errorf("failed to attach %q: %w", att.Filename, err)
		}
	}

	return m, nil
}
