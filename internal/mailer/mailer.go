package mailer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/finlay-davidson/flog-it/internal/platform/logger"
)

var ErrIncompleteConfig = errors.New("SMTP configuration is incomplete")

type Config struct {
	Host     string
	Port     int
	Email    string
	Password string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends listing notifications through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer dialer
	logger *logger.Logger
}

func NewSMTPMailer(cfg Config, log *logger.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.Email == "" || cfg.Password == "" {
		return nil, ErrIncompleteConfig
	}
	return &SMTPMailer{
		from:   cfg.Email,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Email, cfg.Password),
		logger: log.Named("SMTPMailer"),
	}, nil
}

func (m *SMTPMailer) SendListingCreatedEmail(toEmail, listingTitle string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", "New Listing Created")
	msg.SetBody("text/plain", "Your listing '"+listingTitle+"' has been created successfully.")

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send listing created email: %w", err)
	}
	m.logger.Info("listing created email sent", zap.String("to", toEmail))
	return nil
}
