package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/orcamais/orcamais-backend/internal/config"
	"github.com/rs/zerolog/log"
)

const sendTimeout = 20 * time.Second

// Message is an outgoing transactional mail
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
	Tag     string
}

// Mailer delivers transactional mail
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns a Mailgun mailer when a domain is configured and a log-only
// mailer otherwise
func New(cfg config.MailgunConfig) Mailer {
	if cfg.Domain == "" {
		log.Warn().Msg("Mailgun not configured, mail will only be logged")
		return &LogMailer{}
	}

	mg := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIBase != "" {
		mg.SetAPIBase(cfg.APIBase)
	}
	log.Info().Str("domain", cfg.Domain).Msg("Mailgun client initialized")
	return NewMailgunMailer(mg, cfg.Sender)
}

// sender is the part of the Mailgun client used to deliver messages
type sender interface {
	NewMessage(from, subject, text string, to ...string) *mailgun.Message
	Send(ctx context.Context, m *mailgun.Message) (string, string, error)
}

// MailgunMailer sends mail through the Mailgun API
type MailgunMailer struct {
	mg   sender
	from string
}

var _ Mailer = (*MailgunMailer)(nil)

// NewMailgunMailer creates a new MailgunMailer
func NewMailgunMailer(mg sender, from string) *MailgunMailer {
	return &MailgunMailer{mg: mg, from: from}
}

// Send delivers msg, giving up after sendTimeout
func (m *MailgunMailer) Send(ctx context.Context, msg Message) error {
	message := m.mg.NewMessage(m.from, msg.Subject, msg.Text, msg.To)
	if msg.HTML != "" {
		message.SetHtml(msg.HTML)
	}
	if msg.Tag != "" {
		if err := message.AddTag(msg.Tag); err != nil {
			return fmt.Errorf("invalid mail tag: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	resp, id, err := m.mg.Send(ctx, message)
	if err != nil {
		log.Error().Err(err).Str("to", msg.To).Str("response", resp).Msg("Failed to send mail via Mailgun")
		return fmt.Errorf("mailgun send failed: %w", err)
	}

	log.Info().Str("to", msg.To).Str("id", id).Str("tag", msg.Tag).Msg("Mail sent via Mailgun")
	return nil
}

// LogMailer writes mail to the log instead of sending it
type LogMailer struct{}

var _ Mailer = (*LogMailer)(nil)

// Send logs msg
func (l *LogMailer) Send(ctx context.Context, msg Message) error {
	log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("tag", msg.Tag).
		Str("body", msg.Text).
		Msg("Mail not sent (mailer not configured)")
	return nil
}

// PasswordResetMessage builds the reset mail for link
func PasswordResetMessage(to, name, link string, validFor time.Duration) Message {
	if name == "" {
		name = to
	}
	text := fmt.Sprintf(`Olá %s,

Recebemos um pedido para redefinir a senha da sua conta OrçaMais.
Use o link abaixo para escolher uma nova senha:
%s

O link expira em %s. Se você não fez este pedido, ignore este e-mail.

Equipe OrçaMais`, name, link, validFor.String())

	html := fmt.Sprintf(`<html>
	<body style="font-family: Arial, sans-serif; line-height: 1.6;">
		<p>Olá %s,</p>
		<p>Recebemos um pedido para redefinir a senha da sua conta OrçaMais.</p>
		<p><a href="%s" target="_blank">Redefinir senha</a></p>
		<p>O link expira em %s. Se você não fez este pedido, ignore este e-mail.</p>
		<p>Equipe OrçaMais</p>
	</body>
</html>`, name, link, validFor.String())

	return Message{
		To:      to,
		Subject: "Redefinição de senha OrçaMais",
		Text:    text,
		HTML:    html,
		Tag:     "password-reset",
	}
}
