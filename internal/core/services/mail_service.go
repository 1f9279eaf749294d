package services

import (
	"fmt"
	"log"
	"net/smtp"

	"easyshopas-backend/internal/adapters/persistence/models"
	"easyshopas-backend/internal/config"
)

// Sender delivers a rendered message to a recipient. Delivery mechanics are
// an external collaborator concern; this service only renders the message
// and the token link inside it.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// MailService renders outbound notification messages embedding action
// tokens as URL parameters
type MailService struct {
	sender  Sender
	baseURL string
}

// NewMailService creates a new mail service
func NewMailService(sender Sender, baseURL string) *MailService {
	return &MailService{
		sender:  sender,
		baseURL: baseURL,
	}
}

// SendVerificationEmail sends the account-verification message with the
// verification action token in the link
func (s *MailService) SendVerificationEmail(user *models.User, verificationToken string) error {
	link := fmt.Sprintf("%s/api/v1/verification?token=%s", s.baseURL, verificationToken)
	body := fmt.Sprintf(`<html><body>
<h3>Account Verification</h3>
<p>Thanks for choosing EasyShopas, please click on the link below to verify your account.</p>
<p><a href=%q>Verify your email</a></p>
<p>If you did not register for EasyShopas, please kindly ignore this email and nothing will happen. Thanks</p>
</body></html>`, link)

	return s.sender.Send(user.Email, "Verify Your Email", body)
}

// SendPasswordResetEmail sends the password-reset message with the reset
// action token in the link
func (s *MailService) SendPasswordResetEmail(user *models.User, resetToken string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, resetToken)
	body := fmt.Sprintf(`<html><body>
<h3>Password Reset Request</h3>
<p>We received a request to reset your password. If you made this request, click the link below:</p>
<p><a href=%q>Reset Password</a></p>
<p>If you did not request a password reset, you can safely ignore this email.</p>
</body></html>`, link)

	return s.sender.Send(user.Email, "Password Reset Request", body)
}

// SendTOTPCode sends the current one-time code to the user's email
func (s *MailService) SendTOTPCode(user *models.User, code string) error {
	body := fmt.Sprintf(`<html><body>
<p>Your one-time code is <b>%s</b>. It expires with the current time window.</p>
</body></html>`, code)

	return s.sender.Send(user.Email, "Your One-Time Code", body)
}

// smtpSender delivers messages over SMTP
type smtpSender struct {
	cfg config.MailConfig
}

// NewSMTPSender creates a Sender backed by net/smtp
func NewSMTPSender(cfg config.MailConfig) Sender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(to, subject, htmlBody string) error {
	msg := fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.cfg.FromName, s.cfg.From, to, subject, htmlBody,
	)

	addr := s.cfg.Host + ":" + s.cfg.Port
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// logSender logs messages instead of delivering them, for development
type logSender struct{}

// NewLogSender creates a Sender that only logs, used in dev mode
func NewLogSender() Sender {
	return &logSender{}
}

func (s *logSender) Send(to, subject, htmlBody string) error {
	log.Printf("📧 [dev mail] to=%s subject=%q (%d bytes)", to, subject, len(htmlBody))
	return nil
}
