package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/sirupsen/logrus"
)

// Mailer sends restock notification emails.
type Mailer interface {
	SendRestockNotification(to, productName, variantKey string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (m *SMTPMailer) SendRestockNotification(to, productName, variantKey string) error {
	subject := fmt.Sprintf("Back in stock: %s", productName)
	body := fmt.Sprintf(
		"Good news! %s (%s) is back in stock.\r\nOrder now before it sells out again.\r\n",
		productName, variantKey,
	)
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		m.from, to, subject, body,
	))

	addr := m.host + ":" + m.port
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(addr, auth, m.from, []string{to}, msg)
}

// NoopMailer logs instead of sending. Used when SMTP is not configured.
type NoopMailer struct{}

var _ Mailer = (*NoopMailer)(nil)

func (NoopMailer) SendRestockNotification(to, productName, variantKey string) error {
	logrus.WithFields(logrus.Fields{
		"to":          to,
		"productName": productName,
		"variantKey":  variantKey,
	}).Info("SMTP not configured, skipping restock email")
	return nil
}
