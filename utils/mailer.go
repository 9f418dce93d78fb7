package utils

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Mailer sends drip emails over the brokerage's SMTP account. It
// implements scheduler.Transport.
type Mailer struct {
	dialer    *gomail.Dialer
	fromEmail string
	fromName  string

	maxRetries int
}

func NewMailer(host string, port int, username, password, fromEmail, fromName string) *Mailer {
	dialer := gomail.NewDialer(host, port, username, password)
	dialer.TLSConfig = &tls.Config{ServerName: host}

	return &Mailer{
		dialer:     dialer,
		fromEmail:  fromEmail,
		fromName:   fromName,
		maxRetries: 3,
	}
}

// Send delivers one HTML email, retrying transient SMTP failures with a
// quadratic backoff. The context bounds the whole attempt loop.
func (m *Mailer) Send(ctx context.Context, toEmail, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail))
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", subject)
	msg.SetHeader("Message-ID", fmt.Sprintf("<%s@gadait-international.com>", uuid.New().String()))
	msg.SetBody("text/html", htmlBody)

	var lastErr error
	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt*attempt) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if lastErr = m.dialAndSend(ctx, msg); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("failed to send email to %s after %d attempts: %w", toEmail, m.maxRetries, lastErr)
}

// dialAndSend runs the blocking gomail call under the caller's context
func (m *Mailer) dialAndSend(ctx context.Context, msg *gomail.Message) error {
	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
