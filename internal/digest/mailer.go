// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// SMTPMailer delivers mail over SMTP with STARTTLS.
type SMTPMailer struct {
	cfg types.EmailConfig
}

// NewSMTPMailer builds a mailer from configuration.
func NewSMTPMailer(cfg types.EmailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send authenticates as the configured sender and delivers one message
// to all recipients.
func (m *SMTPMailer) Send(subject, body string, html bool, recipients []string) error {
	if m.cfg.SMTPServer == "" {
		return fmt.Errorf("SMTP server not configured")
	}
	if m.cfg.SenderEmail == "" {
		return fmt.Errorf("sender email not configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.SenderEmail)
	msg.SetHeader("To", recipients...)
	msg.SetHeader("Subject", subject)
	if html {
		msg.SetBody("text/html", body)
	} else {
		msg.SetBody("text/plain", body)
	}

	port := m.cfg.SMTPPort
	if port <= 0 {
		port = 587
	}
	dialer := gomail.NewDialer(m.cfg.SMTPServer, port, m.cfg.SenderEmail, m.cfg.SenderPassword)

	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending mail via %s:%d: %w", m.cfg.SMTPServer, port, err)
	}
	return nil
}
