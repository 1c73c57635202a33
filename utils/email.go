// utils/email.go
package utils

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go-eshop/models"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// postmark.SendEmail takes no context, so its transport carries the deadline.
const postmarkTimeout = 5 * time.Second

// EmailService sends transactional emails through Postmark, SendGrid,
// or only logs them when no provider is configured.
type EmailService struct {
	provider string
	from     string
	postmark *postmark.Client
	sendgrid *sendgrid.Client
	logger   *slog.Logger
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService(cfg Config, logger *slog.Logger) (*EmailService, error) {
	es := &EmailService{provider: cfg.EmailProvider, from: cfg.EmailSender, logger: logger}
	switch cfg.EmailProvider {
	case "postmark":
		if cfg.PostmarkAPIToken == "" {
			return nil, fmt.Errorf("POSTMARK_API_TOKEN is not set in environment variables")
		}
		es.postmark = postmark.NewClient(cfg.PostmarkAPIToken, "")
		es.postmark.HTTPClient = &http.Client{Timeout: postmarkTimeout}
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is not set in environment variables")
		}
		es.sendgrid = sendgrid.NewSendClient(cfg.SendGridAPIKey)
	case "log", "":
		es.provider = "log"
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.EmailProvider)
	}
	return es, nil
}

// Send delivers a plain text email to toEmail.
func (es *EmailService) Send(ctx context.Context, toEmail, subject, body string) error {
	switch es.provider {
	case "postmark":
		_, err := es.postmark.SendEmail(postmark.Email{
			From:     es.from,
			To:       toEmail,
			Subject:  subject,
			TextBody: body,
		})
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
	case "sendgrid":
		message := mail.NewSingleEmail(mail.NewEmail("", es.from), subject, mail.NewEmail("", toEmail), body, "")
		resp, err := es.sendgrid.SendWithContext(ctx, message)
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("failed to send email: sendgrid returned %d: %s", resp.StatusCode, resp.Body)
		}
	default:
		es.logger.InfoContext(ctx, "email not delivered, no provider configured", "to", toEmail, "subject", subject)
		return nil
	}

	es.logger.InfoContext(ctx, "email sent", "provider", es.provider, "to", toEmail, "subject", subject)
	return nil
}

// PaymentConfirmation builds the message sent once an order is paid.
func PaymentConfirmation(order *models.Order) (subject, body string) {
	subject = fmt.Sprintf("Payment confirmation - order %s", order.ID)
	body = fmt.Sprintf(
		"Hello,\n\nthank you for your order %s. Your payment of %s was received and we are now preparing your goods for shipment.\n\nThank you for shopping with us!\n",
		order.ID,
		FormatAmount(order.Amount, order.Currency),
	)
	return subject, body
}

// FormatAmount renders minor units as a decimal amount with currency code.
func FormatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, currency)
}
