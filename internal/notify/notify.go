// Package notify delivers the run summary by email after a harvest finishes.
package notify

import (
	"errors"
	"fmt"
	"log"

	"github.com/nmorel/bvharvest/internal/config"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendRunSummary emails the summary text to the configured recipient. It is a
// no-op returning an error when the notify settings are incomplete, so the
// caller can log and continue.
func SendRunSummary(cfg config.NotifyConfig, subject, body string) error {
	if cfg.APIKey == "" {
		return errors.New("notify: EMAIL_API_KEY not set")
	}
	if cfg.ToEmail == "" {
		return errors.New("notify: NOTIFY_EMAIL not set")
	}

	from := mail.NewEmail("bvharvest", cfg.FromEmail)
	to := mail.NewEmail("", cfg.ToEmail)
	email := mail.NewSingleEmail(from, subject, to, body, body)

	client := sendgrid.NewSendClient(cfg.APIKey)
	response, err := client.Send(email)
	if err != nil {
		return fmt.Errorf("failed to send run summary: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}

	log.Printf("Run summary sent to %s (status: %d)", cfg.ToEmail, response.StatusCode)
	return nil
}
