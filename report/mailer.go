package report

import (
	"context"
	"fmt"

	mail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"copygen/core"
	"copygen/logging"
)

// Mailer sends batch reports over SMTP. An unconfigured Mailer (empty host)
// is a no-op sender so runs work without mail settings.
type Mailer struct {
	cfg    core.MailConfig
	logger *logging.Logger
}

// NewMailer builds a Mailer from the mail configuration.
func NewMailer(cfg core.MailConfig, logger *logging.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger.Named("mailer")}
}

// Configured reports whether an SMTP host is set.
func (m *Mailer) Configured() bool {
	return m.cfg.Host != ""
}

// Send delivers one plain-text message to the configured recipients. When no
// host is configured the send is skipped with a log line and a nil return.
func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	if !m.Configured() {
		m.logger.Info("mail not configured, skipping report email",
			zap.String("subject", subject))
		return nil
	}
	if len(m.cfg.To) == 0 {
		return fmt.Errorf("send mail: no recipients configured")
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("set mail sender: %w", err)
	}
	if err := msg.To(m.cfg.To...); err != nil {
		return fmt.Errorf("set mail recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	if m.cfg.StartTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("build mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	m.logger.Info("report email sent",
		zap.String("subject", subject),
		zap.Int("recipients", len(m.cfg.To)),
	)
	return nil
}
