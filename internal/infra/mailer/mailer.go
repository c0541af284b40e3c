// Package mailer delivers rendered reports over SMTP.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"go.uber.org/zap"

	"github.com/dmenezes/fomento-report-api/internal/domain"
)

// SMTPMailer implements the ReportMailer port.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *zap.Logger
}

// New creates an SMTPMailer.
func New(host string, port int, username, password, from string, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		logger:   logger,
	}
}

// SendReport sends an HTML report to the given recipients.
func (m *SMTPMailer) SendReport(ctx context.Context, to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return &domain.ErrValidation{Field: "to", Message: "at least one recipient is required"}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = to
	e.Subject = subject
	e.HTML = []byte(htmlBody)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := e.Send(addr, auth); err != nil {
		m.logger.Error("failed to send report e-mail",
			zap.String("subject", subject),
			zap.Int("recipients", len(to)),
			zap.Error(err),
		)
		return &domain.ErrExternalService{Service: "smtp", Err: err}
	}

	m.logger.Info("report e-mail sent",
		zap.String("subject", subject),
		zap.Int("recipients", len(to)),
	)
	return nil
}
