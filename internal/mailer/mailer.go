// Package mailer sends transactional email through Resend.
package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
)

// Mailer wraps the Resend client. A Mailer built without an API key is a
// no-op, which keeps local development free of mail setup.
type Mailer struct {
	client *resend.Client
	from   string
}

func NewMailer(apiKey, from string) *Mailer {
	m := &Mailer{from: from}
	if apiKey != "" {
		m.client = resend.NewClient(apiKey)
	}
	return m
}

// SendSubscriptionConfirmation acknowledges a plan interest submission.
func (m *Mailer) SendSubscriptionConfirmation(ctx context.Context, to, plan string) error {
	if m.client == nil {
		logrus.WithFields(logrus.Fields{"to": to, "plan": plan}).
			Debug("mailer disabled, skipping subscription confirmation")
		return nil
	}

	subject := "We received your subscription request"
	html := fmt.Sprintf(
		"<p>Thanks for your interest in the <strong>%s</strong> plan.</p>"+
			"<p>Our team will reach out shortly to finish your setup.</p>",
		plan,
	)

	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("send subscription confirmation: %w", err)
	}
	return nil
}
