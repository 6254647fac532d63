// Package email sends transactional mail over SMTP.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"
)

// Sender delivers transactional mail.
type Sender interface {
	// SendInvitation mails an invitation link to the invitee.
	SendInvitation(ctx context.Context, to, tenantName, inviteURL string, expiresAt time.Time) error
}

// SMTPConfig holds connection settings for the outbound mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends mail through a single SMTP relay with PLAIN auth.
type SMTPSender struct {
	config SMTPConfig
	logger *slog.Logger
}

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(config SMTPConfig, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{config: config, logger: logger}
}

func (s *SMTPSender) SendInvitation(ctx context.Context, to, tenantName, inviteURL string, expiresAt time.Time) error {
	subject := fmt.Sprintf("You have been invited to join %s", tenantName)
	body := fmt.Sprintf(
		"You have been invited to join %s on Jejak.\r\n\r\n"+
			"Accept the invitation here:\r\n%s\r\n\r\n"+
			"This link expires on %s.\r\n",
		tenantName, inviteURL, expiresAt.Format("2 January 2006"))

	msg := strings.Join([]string{
		"From: " + s.config.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := smtp.SendMail(addr, auth, s.config.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending invitation mail to %s: %w", to, err)
	}

	s.logger.Info("invitation mail sent", "to", to)
	return nil
}

// LogSender writes mail to the log instead of sending it. Used in
// development when no relay is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) SendInvitation(_ context.Context, to, tenantName, inviteURL string, expiresAt time.Time) error {
	s.Logger.Info("invitation mail (not sent, no SMTP relay configured)",
		"to", to,
		"tenant", tenantName,
		"url", inviteURL,
		"expires_at", expiresAt)
	return nil
}
