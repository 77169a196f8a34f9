package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"kimora-storefront/internal/config"
)

// Mailer is the outbound email capability. The portal flow treats delivery as
// best effort; absence of configuration or a send failure never surfaces to
// the caller.
type Mailer interface {
	Send(to, subject, text, html string) error
}

type smtpMailer struct {
	addr   string
	auth   smtp.Auth
	sender string
}

// NewSMTPMailer returns nil when SMTP is not configured; callers treat a nil
// Mailer as "log instead of send".
func NewSMTPMailer(cfg *config.SMTP) Mailer {
	if cfg.Host == "" || cfg.Sender == "" {
		return nil
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &smtpMailer{
		addr:   cfg.Host + ":" + cfg.Port,
		auth:   auth,
		sender: cfg.Sender,
	}
}

const altBoundary = "kimora-alt-7f2c1b"

func (m *smtpMailer) Send(to, subject, text, html string) error {
	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", altBoundary) +
			"--" + altBoundary + "\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
			text + "\r\n" +
			"--" + altBoundary + "\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			html + "\r\n" +
			"--" + altBoundary + "--\r\n",
	)

	if err := smtp.SendMail(m.addr, m.auth, m.sender, []string{to}, msg); err != nil {
		log.Printf("SMTP send to %s failed: %v", to, err)
		return err
	}
	return nil
}
