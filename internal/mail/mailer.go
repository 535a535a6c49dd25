package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"ai-meeting/internal/config"
)

// SMTPMailer sends account emails through a plain SMTP relay.
type SMTPMailer struct {
	cfg     config.SMTPConfig
	baseURL string
}

func NewSMTPMailer(cfg config.SMTPConfig, baseURL string) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, baseURL: baseURL}
}

func (m *SMTPMailer) SendVerificationEmail(email, token string) error {
	link := fmt.Sprintf("%s/auth/verify-email?token=%s", m.baseURL, token)

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", m.cfg.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", email))
	msg.WriteString("Subject: Confirm your email address - AI-Meeting\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(verificationBody(link))

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{email}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

func verificationBody(link string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Confirm your email</h1>
    <p>Thank you for registering with AI-Meeting. Click the button below to confirm your email address:</p>
    <p style="text-align: center;">
      <a href="%s" style="display: inline-block; background: #667eea; color: white; padding: 15px 35px; text-decoration: none; border-radius: 8px; font-weight: bold;">Confirm email address</a>
    </p>
    <p><strong>Important:</strong> this link is valid for 24 hours.</p>
  </div>
</body>
</html>`, link)
}
