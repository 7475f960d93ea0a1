package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/spec-kit/user-account-service/internal/config"
)

// Sender delivers account activation mail. Registration runs the send inside
// its transaction boundary: a send failure rolls the account insert back.
type Sender interface {
	SendActivation(ctx context.Context, to, username, token string) error
}

// NewSender picks an implementation from configuration. Without an SMTP host
// the log-only sender is used.
func NewSender(cfg config.MailConfig, logger *zap.Logger) Sender {
	if cfg.SMTPHost == "" {
		logger.Warn("MAIL_SMTP_HOST not provided; activation mail will only be logged")
		return &logSender{cfg: cfg, logger: logger}
	}
	return &smtpSender{cfg: cfg}
}

type smtpSender struct {
	cfg config.MailConfig
}

func (s *smtpSender) SendActivation(_ context.Context, to, username, token string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Account Activation\r\n\r\n"+
			"Hello %s,\r\n\r\nActivate your account:\r\n%s/api/1.0/users/token/%s\r\n",
		s.cfg.From, to, username, s.cfg.BaseURL, token)

	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort
	return smtp.SendMail(addr, nil, s.cfg.From, []string{to}, []byte(msg))
}

type logSender struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

func (s *logSender) SendActivation(_ context.Context, to, username, token string) error {
	s.logger.Info("activation mail",
		zap.String("to", to),
		zap.String("username", username),
		zap.String("link", fmt.Sprintf("%s/api/1.0/users/token/%s", s.cfg.BaseURL, token)))
	return nil
}
