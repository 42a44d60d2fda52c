package infra

import (
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/jordan-wright/email"
)

const mailTimeout = 30 * time.Second

// MailConfig is the SMTP account closing reports are sent from. From falls
// back to User.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Mailer delivers closing reports through one SMTP relay.
type Mailer struct {
	cfg  MailConfig
	auth smtp.Auth
}

func NewMailer(cfg MailConfig) *Mailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	m := &Mailer{cfg: cfg}
	if cfg.User != "" {
		m.auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return m
}

func (m *Mailer) addr() string {
	return net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
}

// SendReport mails body to the recipients, attaching the file at pdfPath
// when one is given.
func (m *Mailer) SendReport(to []string, subject, body, pdfPath string) error {
	if len(to) == 0 {
		return fmt.Errorf("mailer: no recipients for %q", subject)
	}
	msg := email.NewEmail()
	msg.From = m.cfg.From
	msg.To = to
	msg.Subject = subject
	msg.Text = []byte(body)
	if pdfPath != "" {
		if _, err := msg.AttachFile(pdfPath); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", pdfPath, err)
		}
	}

	// A one-message pool gives the send a dial and write deadline.
	pool, err := email.NewPool(m.addr(), 1, m.auth)
	if err != nil {
		return fmt.Errorf("mailer: connect %s: %w", m.addr(), err)
	}
	defer pool.Close()
	if err := pool.Send(msg, mailTimeout); err != nil {
		return fmt.Errorf("mailer: send %q: %w", subject, err)
	}
	return nil
}
