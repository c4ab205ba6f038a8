package email

import (
	"context"
	"fmt"

	"github.com/avatarctic/account-lifecycle/internal/core/ports"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendGridClient is the subset of *sendgrid.Client used here.
type sendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	client   sendGridClient
	from     string
	fromName string
}

func NewSendGridSender(cfg Config) *SendGridSender {
	return &SendGridSender{
		client:   sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:     cfg.sender(),
		fromName: cfg.FromName,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg *ports.EmailMessage) error {
	from := mail.NewEmail(s.fromName, s.from)
	recipient := mail.NewEmail("", msg.To)

	message := mail.NewSingleEmail(from, msg.Subject, recipient, msg.TextBody, msg.HTMLBody)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("sendgrid rejected message: status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
