package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/finanzas/backend/src/config"
	"github.com/username/finanzas/backend/src/logger"
)

// NewEmailService picks the provider from configuration. Incomplete provider
// configuration falls back to the mock, which only logs the links.
func NewEmailService() EmailService {
	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("mailgun configuration incomplete, falling back to mock email service")
			return &MockEmailService{}
		}
		return &MailgunEmailService{
			mg:                       mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey),
			senderEmail:              config.Cfg.SenderEmail,
			senderName:               config.Cfg.SenderName,
			verificationEmailBaseURL: config.Cfg.VerificationEmailBaseURL,
			passwordResetBaseURL:     config.Cfg.PasswordResetBaseURL,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("smtp configuration incomplete, falling back to mock email service")
			return &MockEmailService{}
		}
		return &SMTPEmailService{
			server:                   config.Cfg.SMTPServer,
			port:                     config.Cfg.SMTPPort,
			user:                     config.Cfg.SMTPUser,
			password:                 config.Cfg.SMTPPassword,
			senderEmail:              config.Cfg.SenderEmail,
			verificationEmailBaseURL: config.Cfg.VerificationEmailBaseURL,
			passwordResetBaseURL:     config.Cfg.PasswordResetBaseURL,
		}
	default:
		return &MockEmailService{}
	}
}

type MailgunEmailService struct {
	mg                       mailgun.Mailgun
	senderEmail              string
	senderName               string
	verificationEmailBaseURL string
	passwordResetBaseURL     string
}

func (s *MailgunEmailService) SendVerificationEmail(toEmail, username, token string) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	verificationLink := fmt.Sprintf("%s?token=%s", s.verificationEmailBaseURL, token)

	plainTextBody := fmt.Sprintf(`Hi %s,

Welcome! Please verify your email address by clicking the link below:
%s

If you did not create an account using this email address, please ignore this email.`, username, verificationLink)

	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<p>Hi %s,</p>
			<p>Welcome! Please verify your email address by clicking the link below:</p>
			<p><a href="%s" target="_blank" style="color: #1a73e8; font-weight: bold;">Verify Email Address</a></p>
			<p>If the link above doesn't work, copy and paste this URL into your browser:</p>
			<p>%s</p>
			<p>If you did not create an account using this email address, please ignore this email.</p>
		</body>
	</html>`, username, verificationLink, verificationLink)

	message := s.mg.NewMessage(from, "Verify your email address", plainTextBody, toEmail)
	message.SetHtml(htmlBody)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("failed to send verification email via mailgun", "error", err, "to", toEmail, "mailgunResp", resp)
		return fmt.Errorf("mailgun send failed: %w", err)
	}
	logger.L.Info("verification email sent via mailgun", "to", toEmail, "id", id)
	return nil
}

func (s *MailgunEmailService) SendPasswordResetEmail(toEmail, username, token string) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	resetLink := fmt.Sprintf("%s?token=%s", s.passwordResetBaseURL, token)
	expiry := config.Cfg.PasswordResetTokenExpiry.String()

	plainTextBody := fmt.Sprintf(`Hi %s,

You requested a password reset for your account.
Please click the following link to reset your password:
%s

If you did not request a password reset, please ignore this email. This link will expire in %s.`,
		username, resetLink, expiry)

	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<p>Hi %s,</p>
			<p>You requested a password reset for your account. Click the link below to reset your password:</p>
			<p><a href="%s" target="_blank" style="color: #1a73e8; font-weight: bold;">Reset Password</a></p>
			<p>If the link above doesn't work, copy and paste this URL into your browser:</p>
			<p>%s</p>
			<p>If you did not request this reset, please ignore this email. This link will expire in %s.</p>
		</body>
	</html>`, username, resetLink, resetLink, expiry)

	message := s.mg.NewMessage(from, "Password reset request", plainTextBody, toEmail)
	message.SetHtml(htmlBody)
	message.AddTag("password-reset")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("failed to send password reset email via mailgun", "error", err, "to", toEmail, "mailgunResp", resp)
		return fmt.Errorf("mailgun send failed for password reset: %w", err)
	}
	logger.L.Info("password reset email sent via mailgun", "to", toEmail, "id", id)
	return nil
}

type SMTPEmailService struct {
	server                   string
	port                     int
	user                     string
	password                 string
	senderEmail              string
	verificationEmailBaseURL string
	passwordResetBaseURL     string
}

func (s *SMTPEmailService) SendVerificationEmail(toEmail, username, token string) error {
	verificationLink := fmt.Sprintf("%s?token=%s", s.verificationEmailBaseURL, token)
	body := fmt.Sprintf("Hi %s, please verify your email by clicking this link: %s", username, verificationLink)
	if err := s.send(toEmail, "Verify your email address", body); err != nil {
		logger.L.Error("failed to send verification email via smtp", "error", err, "to", toEmail)
		return fmt.Errorf("sending verification email via smtp: %w", err)
	}
	logger.L.Info("verification email sent via smtp", "to", toEmail)
	return nil
}

func (s *SMTPEmailService) SendPasswordResetEmail(toEmail, username, token string) error {
	resetLink := fmt.Sprintf("%s?token=%s", s.passwordResetBaseURL, token)
	body := fmt.Sprintf(
		"Hi %s, you requested a password reset. Reset your password here: %s\r\nThis link expires in %s. If you did not request a reset, ignore this email.",
		username, resetLink, config.Cfg.PasswordResetTokenExpiry.String())
	if err := s.send(toEmail, "Password reset request", body); err != nil {
		logger.L.Error("failed to send password reset email via smtp", "error", err, "to", toEmail)
		return fmt.Errorf("sending password reset email via smtp: %w", err)
	}
	logger.L.Info("password reset email sent via smtp", "to", toEmail)
	return nil
}

func (s *SMTPEmailService) send(toEmail, subject, body string) error {
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n",
		s.senderEmail, toEmail, subject)
	message := headers + "\r\n" + body
	auth := smtp.PlainAuth("", s.user, s.password, s.server)
	addr := fmt.Sprintf("%s:%d", s.server, s.port)
	return smtp.SendMail(addr, auth, s.senderEmail, []string{toEmail}, []byte(message))
}

// MockEmailService logs the links instead of sending. Used in development
// and whenever provider configuration is incomplete.
type MockEmailService struct{}

func (m *MockEmailService) SendVerificationEmail(toEmail, username, token string) error {
	link := fmt.Sprintf("%s?token=%s", config.Cfg.VerificationEmailBaseURL, token)
	logger.L.Info("mock email service: would send verification email", "to", toEmail, "username", username, "verificationLink", link)
	return nil
}

func (m *MockEmailService) SendPasswordResetEmail(toEmail, username, token string) error {
	link := fmt.Sprintf("%s?token=%s", config.Cfg.PasswordResetBaseURL, token)
	logger.L.Info("mock email service: would send password reset email", "to", toEmail, "username", username, "resetLink", link)
	return nil
}
