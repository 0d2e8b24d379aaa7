// Package notify delivers restock alerts by email.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/the-stock-must-flow/internal/common"
	"github.com/Veraticus/the-stock-must-flow/internal/service"
	"github.com/wneessen/go-mail"
)

// DefaultPort is the SMTP submission port used when none is configured.
const DefaultPort = 587

// Config holds SMTP settings. Host, User and Pass are all required for
// mail to be sent.
type Config struct {
	Host    string
	User    string
	Pass    string
	From    string
	Port    int
	Timeout time.Duration
}

// Configured reports whether enough settings are present to send mail.
func (c Config) Configured() bool {
	return c.Host != "" && c.User != "" && c.Pass != ""
}

func (c Config) sender() string {
	if c.From != "" {
		return c.From
	}
	return c.User
}

// New returns an SMTP notifier when cfg is complete and a logging no-op otherwise.
func New(cfg Config, logger *slog.Logger) service.Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Configured() {
		return &NoopNotifier{logger: logger}
	}
	return NewSMTPNotifier(cfg, logger)
}

// SMTPNotifier sends plain-text mail over STARTTLS with PLAIN authentication.
type SMTPNotifier struct {
	logger *slog.Logger
	cfg    Config
}

// NewSMTPNotifier creates an SMTP notifier without checking connectivity.
func NewSMTPNotifier(cfg Config, logger *slog.Logger) *SMTPNotifier {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPNotifier{cfg: cfg, logger: logger}
}

// Configured always reports true.
func (n *SMTPNotifier) Configured() bool { return true }

// Send delivers one message to every recipient.
func (n *SMTPNotifier) Send(ctx context.Context, to []string, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(n.cfg.sender()); err != nil {
		return fmt.Errorf("%w: invalid sender %q: %w", common.ErrDelivery, n.cfg.sender(), err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("%w: invalid recipients: %w", common.ErrDelivery, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(n.cfg.Host,
		mail.WithPort(n.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.User),
		mail.WithPassword(n.cfg.Pass),
		mail.WithTimeout(n.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to create mail client: %w", common.ErrDelivery, err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", common.ErrDelivery, err)
	}

	n.logger.Info("Sent email", "to", strings.Join(to, ", "))
	return nil
}

// NoopNotifier is used when SMTP is not configured.
type NoopNotifier struct {
	logger *slog.Logger
}

// Configured always reports false.
func (n *NoopNotifier) Configured() bool { return false }

// Send logs that the message was skipped.
func (n *NoopNotifier) Send(_ context.Context, to []string, subject, _ string) error {
	n.logger.Warn("SMTP not configured. Skipping email.", "to", to, "subject", subject)
	return nil
}
