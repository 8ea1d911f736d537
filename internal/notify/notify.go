// Package notify delivers operational alert email. Alerts are advisory:
// callers log delivery failures and move on, a workflow never fails because
// its alert did.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// Alert is a single operational notification. An empty To delivers to the
// configured operator address.
type Alert struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers alerts.
type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}

// Mailer is the SMTP-backed Notifier.
type Mailer struct {
	config *Config
	logger *slog.Logger
}

func NewMailer(config *Config, logger *slog.Logger) *Mailer {
	return &Mailer{
		config: config,
		logger: logger.With("system", "notify"),
	}
}

func (m *Mailer) Send(ctx context.Context, alert Alert) error {
	to := alert.To
	if to == "" {
		to = m.config.Operator
	}

	msg := mail.NewMsg()
	if err := msg.From(m.config.From); err != nil {
		return fmt.Errorf("notify: from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("notify: to address: %w", err)
	}
	msg.Subject(alert.Subject)
	msg.SetBodyString(mail.TypeTextPlain, alert.Body)

	opts := []mail.Option{
		mail.WithPort(m.config.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.config.Username),
			mail.WithPassword(m.config.Password),
		)
	}

	client, err := mail.NewClient(m.config.Host, opts...)
	if err != nil {
		return fmt.Errorf("notify: smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("notify: send %q to %s: %w", alert.Subject, to, err)
	}

	m.logger.Info("alert sent", "to", to, "subject", alert.Subject)
	return nil
}
