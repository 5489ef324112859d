package utils

import (
	"fmt"
	"net/smtp"
)

// Mailer sends one message per call. A send error means nothing was
// delivered for that recipient.
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := []byte("From: " + m.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		body + "\r\n")

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	return smtp.SendMail(m.Host+":"+m.Port, auth, m.From, []string{to}, msg)
}

// LogMailer is used when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	fmt.Printf("[EMAIL LOG] To: %s Subject: %s\n", to, subject)
	return nil
}
