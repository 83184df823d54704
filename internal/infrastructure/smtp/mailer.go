package smtp

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/go-event-bus/internal/config"
	"github.com/go-event-bus/internal/domain"
)

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}

// AddressResolver maps a user id to an email address. The user directory
// itself is an external collaborator.
type AddressResolver interface {
	EmailAddress(ctx context.Context, userID string) (string, error)
}

// EmailSender delivers notifications over the email channel.
type EmailSender struct {
	mailer   Mailer
	resolver AddressResolver
}

func NewEmailSender(m Mailer, r AddressResolver) *EmailSender {
	return &EmailSender{mailer: m, resolver: r}
}

func (s *EmailSender) Send(ctx context.Context, n *domain.Notification) error {
	to, err := s.resolver.EmailAddress(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("resolve email for %s: %w", n.UserID, err)
	}
	return s.mailer.SendEmail(to, n.Title, n.Body)
}
