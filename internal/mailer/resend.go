package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

const confirmationSubject = "🎉 Confirmation de votre achat - Tombola Bachelor"

// Resend sends confirmation emails through the Resend API.
type Resend struct {
	client *resend.Client
	from   string
}

func NewResend(apiKey, from string) *Resend {
	return &Resend{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (m *Resend) SendConfirmation(ctx context.Context, conf Confirmation) error {
	html, err := RenderConfirmation(conf)
	if err != nil {
		return err
	}

	req := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{conf.Email},
		Subject: confirmationSubject,
		Html:    html,
	}
	if _, err := m.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	return nil
}
