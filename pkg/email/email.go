package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/n8nhub/community_hub/pkg/logger"
)

// Sender delivers plain text email over SMTP.
type Sender struct {
	Host     string
	Port     string
	From     string
	Password string
}

// NewSender builds a Sender. An empty host makes Send a logged no-op, which
// is what local development runs with.
func NewSender(host, port, from, password string) *Sender {
	return &Sender{Host: host, Port: port, From: from, Password: password}
}

// Enabled reports whether an SMTP host is configured.
func (s *Sender) Enabled() bool {
	return s != nil && s.Host != ""
}

// Send sends a plain text email using SMTP.
func (s *Sender) Send(to, subject, body string) error {
	if !s.Enabled() {
		logger.Log.WithField("to", to).Info("SMTP not configured, skipping email")
		return nil
	}

	auth := smtp.PlainAuth("", s.From, s.Password, s.Host)
	address := s.Host + ":" + s.Port

	if err := smtp.SendMail(address, auth, s.From, []string{to}, BuildMessage(to, subject, body)); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}

// BuildMessage renders the RFC 822 message. Header injection through the
// subject is prevented by dropping line breaks.
func BuildMessage(to, subject, body string) []byte {
	subject = strings.NewReplacer("\r", " ", "\n", " ").Replace(subject)
	return []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n" +
		"\r\n" + body + "\r\n")
}
