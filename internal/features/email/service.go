package email

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"go-shareguard/internal/config"

	"go.uber.org/zap"
)

type EmailService interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

type EmailServiceImpl struct {
	Config *config.Config
	Logger *zap.Logger
}

func NewEmailService(cfg *config.Config, logger *zap.Logger) EmailService {
	return &EmailServiceImpl{Config: cfg, Logger: logger}
}

func (s *EmailServiceImpl) Send(ctx context.Context, to []string, subject, body string) error {
	if s.Config.SMTPHost == "" {
		return errors.New("smtp not configured")
	}
	if len(to) == 0 {
		return errors.New("no recipients")
	}

	from := s.Config.SMTPFrom
	if from == "" {
		from = s.Config.SMTPUser
	}

	var auth smtp.Auth
	if s.Config.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.Config.SMTPUser, s.Config.SMTPPass, s.Config.SMTPHost)
	}

	addr := fmt.Sprintf("%s:%d", s.Config.SMTPHost, s.Config.SMTPPort)
	msg := []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", from, strings.Join(to, ", "), subject, body))

	if err := smtp.SendMail(addr, auth, from, to, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.Logger.Debug("email sent", zap.Strings("to", to), zap.String("subject", subject))
	return nil
}
