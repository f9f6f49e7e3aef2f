package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"habit-tracker/pkg/config"
)

type sendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridProvider struct {
	client sendGridClient
	from   *mail.Email
}

func NewSendGridProvider(cfg config.MailConfig) *SendGridProvider {
	return &SendGridProvider{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   mail.NewEmail("Habit Tracker", cfg.From),
	}
}

func (p *SendGridProvider) Name() string { return "sendgrid" }

func (p *SendGridProvider) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewSingleEmail(p.from, subject, mail.NewEmail("", to), body, "")

	resp, err := p.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", to, err)
	}
	if resp.StatusCode >= 400 {
		return &StatusError{Code: resp.StatusCode, Body: resp.Body}
	}
	return nil
}
