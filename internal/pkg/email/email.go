package email

import (
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendVerificationEmail(toEmail, toName, code string) error
	SendPasswordResetEmail(toEmail, toName, code string) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	BaseURL   string // Base URL of the application, used in links
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) EmailService {
	return &EmailServiceImpl{
		config: config,
		logger: logger,
	}
}

// SendVerificationEmail sends an email with a verification code
func (s *EmailServiceImpl) SendVerificationEmail(toEmail, toName, code string) error {
	// Without SMTP credentials, log the code instead (development only)
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("code", code).
			Msg("SMTP credentials not configured - verification email not sent. Use the code above for testing.")
		return nil
	}

	subject := "Verify Your Email Address - ClassPoint"
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Welcome to ClassPoint!</h2>
				<p>Hello %s,</p>
				<p>Thank you for registering with ClassPoint. Use this verification code to complete your registration:</p>
				<p style="text-align: center; font-size: 28px; letter-spacing: 6px; font-weight: bold;">%s</p>
				<p>This code will expire shortly. If you did not create an account, you can ignore this email.</p>
			</div>
		</body>
		</html>`, toName, code)

	return s.send(toEmail, subject, body)
}

// SendPasswordResetEmail sends an email with a password reset code
func (s *EmailServiceImpl) SendPasswordResetEmail(toEmail, toName, code string) error {
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("code", code).
			Msg("SMTP credentials not configured - password reset email not sent. Use the code above for testing.")
		return nil
	}

	subject := "Reset Your Password - ClassPoint"
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Password Reset</h2>
				<p>Hello %s,</p>
				<p>Use this code to reset your ClassPoint password:</p>
				<p style="text-align: center; font-size: 28px; letter-spacing: 6px; font-weight: bold;">%s</p>
				<p>If you did not request a reset, you can ignore this email.</p>
			</div>
		</body>
		</html>`, toName, code)

	return s.send(toEmail, subject, body)
}

// send delivers an HTML email through the configured SMTP server.
func (s *EmailServiceImpl) send(toEmail, subject, htmlBody string) error {
	addr := s.config.Host + ":" + strconv.Itoa(s.config.Port)
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)

	from := fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	msg := []byte("From: " + from + "\r\n" +
		"To: " + toEmail + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		htmlBody)

	if err := smtp.SendMail(addr, auth, s.config.FromEmail, []string{toEmail}, msg); err != nil {
		s.logger.Error().Err(err).Str("toEmail", toEmail).Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info().Str("toEmail", toEmail).Str("subject", subject).Msg("Email sent")
	return nil
}
