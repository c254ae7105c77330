// Package mailer sends transactional mail over SMTP. Only the verification
// flow uses it today.
package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/cardstoard/cardstoard-api/internal/logger"
)

// Mailer sends account mail. Implementations must be safe for concurrent use.
type Mailer interface {
	SendVerificationMail(ctx context.Context, to, verifyURL string) error
}

// Config holds SMTP connection settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// BaseURL is the public origin used to build verification links
	BaseURL string
}

type smtpMailer struct {
	cfg Config
}

// NewSMTPMailer creates a Mailer backed by a plain SMTP dialer
func NewSMTPMailer(cfg Config) Mailer {
	return &smtpMailer{cfg: cfg}
}

// SendVerificationMail delivers the address confirmation mail
func (m *smtpMailer) SendVerificationMail(ctx context.Context, to, verifyURL string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Verify your CardStoard account")
	msg.SetBody("text/html", fmt.Sprintf(
		"<p>Welcome to CardStoard.</p>"+
			"<p>Confirm your email address by opening the link below. "+
			"The link expires in 24 hours.</p>"+
			"<p><a href=%q>Verify my email</a></p>", verifyURL))

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send verification mail: %w", err)
	}

	logger.InfoCtx(ctx, "sent verification mail", zap.String("to", to))
	return nil
}

// NoopMailer logs instead of sending. Used when SMTP is not configured so
// registration still works in development.
type NoopMailer struct{}

// SendVerificationMail logs the link it would have sent
func (NoopMailer) SendVerificationMail(ctx context.Context, to, verifyURL string) error {
	logger.InfoCtx(ctx, "mail disabled, skipping verification mail",
		zap.String("to", to), zap.String("url", verifyURL))
	return nil
}
