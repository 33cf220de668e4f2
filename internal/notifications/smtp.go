package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"portfolio-backend/internal/submissions"

	"gopkg.in/gomail.v2"
)

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPClient delivers operator notifications over plain SMTP.
type SMTPClient struct {
	from      string
	recipient string
	dialer    sender
}

func NewSMTPClient(host string, port int, user, password, from, recipient string) *SMTPClient {
	if strings.TrimSpace(host) == "" || strings.TrimSpace(from) == "" {
		return nil
	}
	return &SMTPClient{
		from:      from,
		recipient: strings.TrimSpace(recipient),
		dialer:    gomail.NewDialer(host, port, user, password),
	}
}

func (c *SMTPClient) SendSubmissionNotification(ctx context.Context, s submissions.Submission) (string, error) {
	if c == nil {
		return "", errors.New("smtp client is nil")
	}
	if c.recipient == "" {
		return "", ErrNoRecipient
	}
	htmlBody, err := buildSubmissionNotificationHTML(s)
	if err != nil {
		return "", err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", c.recipient)
	m.SetHeader("Reply-To", s.Email)
	m.SetHeader("Subject", submissionSubject(s))
	m.SetBody("text/html", htmlBody)

	done := make(chan error, 1)
	go func() { done <- c.dialer.DialAndSend(m) }()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("smtp send failed: %w", err)
		}
	}
	return s.ID, nil
}
