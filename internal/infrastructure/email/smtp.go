package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/account"
	"github.com/avatarctic/account-lifecycle/internal/core/ports"
	"github.com/wneessen/go-mail"
)

const defaultSendTimeout = 15 * time.Second

// SMTPSettings is the resolved transport for one provider.
type SMTPSettings struct {
	Host string
	Port int
	// ImplicitTLS dials straight into TLS (port 465 style). Otherwise the
	// connection is upgraded with STARTTLS when the server offers it.
	ImplicitTLS bool
	// RelaxedTLS lowers the minimum TLS version and allows legacy cipher
	// suites for servers that still need them.
	RelaxedTLS bool
}

// ResolveSMTP maps a provider onto its preset. Anything that is not a
// preset uses the custom host from cfg.
func ResolveSMTP(provider account.EmailProvider, cfg Config) SMTPSettings {
	switch provider {
	case account.ProviderGmail:
		return SMTPSettings{Host: "smtp.gmail.com", Port: 465, ImplicitTLS: true}
	case account.ProviderYahoo:
		return SMTPSettings{Host: "smtp.mail.yahoo.com", Port: 465, ImplicitTLS: true}
	case account.ProviderYopmail:
		return SMTPSettings{Host: "smtp.yopmail.com", Port: 465, ImplicitTLS: true}
	case account.ProviderOutlook:
		return SMTPSettings{Host: "smtp.office365.com", Port: 587, RelaxedTLS: true}
	default:
		return SMTPSettings{Host: cfg.Host, Port: cfg.Port, ImplicitTLS: cfg.Secure}
	}
}

// SMTPSender delivers through an SMTP server using go-mail.
type SMTPSender struct {
	settings SMTPSettings
	cfg      Config
}

func NewSMTPSender(settings SMTPSettings, cfg Config) *SMTPSender {
	return &SMTPSender{settings: settings, cfg: cfg}
}

func (s *SMTPSender) clientOptions() []mail.Option {
	timeout := s.cfg.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	opts := []mail.Option{
		mail.WithPort(s.settings.Port),
		mail.WithTimeout(timeout),
		mail.WithTLSConfig(s.tlsConfig()),
	}

	if s.settings.ImplicitTLS {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if s.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.User),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

func (s *SMTPSender) tlsConfig() *tls.Config {
	conf := &tls.Config{ServerName: s.settings.Host, MinVersion: tls.VersionTLS12}
	if s.settings.RelaxedTLS {
		conf.MinVersion = tls.VersionTLS10
		suites := make([]uint16, 0, len(tls.CipherSuites())+len(tls.InsecureCipherSuites()))
		for _, cs := range tls.CipherSuites() {
			suites = append(suites, cs.ID)
		}
		for _, cs := range tls.InsecureCipherSuites() {
			suites = append(suites, cs.ID)
		}
		conf.CipherSuites = suites
	}
	return conf
}

func (s *SMTPSender) buildMessage(msg *ports.EmailMessage) (*mail.Msg, error) {
	m := mail.NewMsg()

	from := s.cfg.sender()
	if s.cfg.FromName != "" {
		if err := m.FromFormat(s.cfg.FromName, from); err != nil {
			return nil, fmt.Errorf("invalid sender address: %w", err)
		}
	} else if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}

	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	default:
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	}
	return m, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg *ports.EmailMessage) error {
	if s.settings.Host == "" {
		return fmt.Errorf("smtp host is not configured")
	}

	m, err := s.buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.settings.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client for %s: %w", s.settings.Host, err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp delivery to %s:%d failed: %w", s.settings.Host, s.settings.Port, err)
	}
	return nil
}
