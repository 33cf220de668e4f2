package notifications

import (
	"errors"

	"portfolio-backend/internal/config"
	"portfolio-backend/internal/submissions"
)

var ErrNoRecipient = errors.New("notification recipient not configured")

// FromConfig picks Brevo when an API key is present, then SMTP. It returns
// nil when neither is configured or there is nobody to notify.
func FromConfig(cfg *config.Config) submissions.Notifier {
	if cfg.NotifyEmail == "" {
		return nil
	}
	if c := NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoSenderEmail, cfg.BrevoSenderName, cfg.NotifyEmail, cfg.BrevoSandbox); c != nil {
		return c
	}
	if c := NewSMTPClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, cfg.NotifyEmail); c != nil {
		return c
	}
	return nil
}
