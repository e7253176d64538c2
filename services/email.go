package services

import (
	"fmt"
	"net/smtp"

	"github.com/issamdi/food-ordering-website/config"

	"github.com/shopspring/decimal"
)

// EmailSender delivers the post-checkout confirmation. Sending is
// best-effort: a failure is logged by the caller and never fails the order.
type EmailSender interface {
	SendOrderConfirmation(to, orderNumber string, total decimal.Decimal) error
}

// SMTPSender sends order confirmations over plain SMTP.
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPSender returns nil when SMTP is not configured; the checkout flow
// treats a nil sender as "confirmation emails disabled".
func NewSMTPSender(cfg *config.Config) *SMTPSender {
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" || cfg.SMTPPass == "" {
		return nil
	}
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUser,
		password: cfg.SMTPPass,
		from:     cfg.FromEmail,
	}
}

func (s *SMTPSender) SendOrderConfirmation(to, orderNumber string, total decimal.Decimal) error {
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	subject := fmt.Sprintf("Order Confirmation - %s", orderNumber)
	body := fmt.Sprintf(
		"Thank you for your order!<br><br>Your order <b>%s</b> has been confirmed.<br>Total charged: $%s",
		orderNumber, total.StringFixed(2),
	)

	msg := []byte(
		"From: " + s.from + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			body,
	)

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}
