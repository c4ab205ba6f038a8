package email

import (
	"context"
	"fmt"
	"time"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/account"
	"github.com/avatarctic/account-lifecycle/internal/core/domain/apperr"
	"github.com/avatarctic/account-lifecycle/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// Config holds the outbound mail settings shared by every provider.
type Config struct {
	User           string
	Password       string
	From           string
	FromName       string
	Host           string
	Port           int
	Secure         bool
	SendTimeout    time.Duration
	SendGridAPIKey string
}

func (c Config) sender() string {
	if c.From != "" {
		return c.From
	}
	return c.User
}

// Sender delivers one message over one transport.
type Sender interface {
	Send(ctx context.Context, msg *ports.EmailMessage) error
}

// Dispatcher routes messages to the transport selected by the account's
// provider. It is built once at startup and shared.
type Dispatcher struct {
	senders map[account.EmailProvider]Sender
	logger  *logrus.Logger
}

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSender replaces the transport used for provider.
func WithSender(provider account.EmailProvider, s Sender) DispatcherOption {
	return func(d *Dispatcher) {
		d.senders[provider] = s
	}
}

// NewDispatcher builds SMTP transports for the presets and the custom host,
// plus a SendGrid transport when an API key is configured.
func NewDispatcher(cfg Config, logger *logrus.Logger, opts ...DispatcherOption) ports.EmailDispatcher {
	d := &Dispatcher{
		senders: make(map[account.EmailProvider]Sender),
		logger:  logger,
	}

	for _, p := range []account.EmailProvider{
		account.ProviderGmail,
		account.ProviderYahoo,
		account.ProviderYopmail,
		account.ProviderOutlook,
		account.ProviderDefault,
	} {
		d.senders[p] = NewSMTPSender(ResolveSMTP(p, cfg), cfg)
	}
	if cfg.SendGridAPIKey != "" {
		d.senders[account.ProviderSendGrid] = NewSendGridSender(cfg)
	}

	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Send(ctx context.Context, provider account.EmailProvider, msg *ports.EmailMessage) error {
	provider = account.ParseEmailProvider(string(provider))

	sender, ok := d.senders[provider]
	if !ok {
		dispatchAttempts.WithLabelValues(provider.String(), "unconfigured").Inc()
		return apperr.NewConfigurationError("SENDGRID_API_KEY", fmt.Sprintf("email provider %q is not configured", provider))
	}

	start := time.Now()
	err := sender.Send(ctx, msg)
	dispatchDuration.WithLabelValues(provider.String()).Observe(time.Since(start).Seconds())

	if err != nil {
		dispatchAttempts.WithLabelValues(provider.String(), "failure").Inc()
		if d.logger != nil {
			d.logger.WithFields(logrus.Fields{
				"provider": provider,
				"subject":  msg.Subject,
			}).WithError(err).Warn("failed to send email")
		}
		return fmt.Errorf("failed to send email via %s: %w", provider, err)
	}

	dispatchAttempts.WithLabelValues(provider.String(), "success").Inc()
	if d.logger != nil {
		d.logger.WithFields(logrus.Fields{
			"provider": provider,
			"subject":  msg.Subject,
		}).Info("email sent")
	}
	return nil
}
