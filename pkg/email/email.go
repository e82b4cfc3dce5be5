package email

import (
	"context"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Message is a single outbound email. HTML is required; Text is optional.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Options selects and configures a Mailer.
type Options struct {
	Provider       string // log, smtp or sendgrid
	From           string
	SMTPHost       string
	SMTPPort       string
	SMTPUser       string
	SMTPPass       string
	SendGridAPIKey string
}

// New builds the mailer for opts.Provider wrapped in a circuit breaker.
func New(opts Options) (Mailer, error) {
	var m Mailer
	switch opts.Provider {
	case "", "log":
		m = LogMailer{}
	case "smtp":
		m = NewSMTPMailer(opts.SMTPHost, opts.SMTPPort, opts.SMTPUser, opts.SMTPPass, opts.From)
	case "sendgrid":
		sg, err := NewSendGridMailer(opts.SendGridAPIKey, opts.From)
		if err != nil {
			return nil, err
		}
		m = sg
	default:
		return nil, fmt.Errorf("unknown mail provider %q", opts.Provider)
	}
	return NewBreakerMailer(opts.Provider, m), nil
}

// SMTPMailer sends HTML email through an SMTP relay with PLAIN auth.
type SMTPMailer struct {
	host string
	port string
	user string
	pass string
	from string
}

func NewSMTPMailer(host, port, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, pass: pass, from: from}
}

// Send ignores ctx: net/smtp has no cancellation.
func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)

	sender := m.from
	if addr, err := mail.ParseAddress(m.from); err == nil {
		sender = addr.Address
	}

	to := stripNewlines(msg.To)
	address := m.host + ":" + m.port
	if err := smtp.SendMail(address, auth, sender, []string{to}, buildMessage(m.from, msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

var newlines = strings.NewReplacer("\r", "", "\n", "")

func stripNewlines(v string) string {
	return newlines.Replace(v)
}

// buildMessage renders the raw message. Header values lose any CR/LF and
// the subject is Q-encoded when it is not plain ASCII.
func buildMessage(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + stripNewlines(from) + "\r\n")
	b.WriteString("To: " + stripNewlines(msg.To) + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", stripNewlines(msg.Subject)) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n" + msg.HTML + "\r\n")
	return []byte(b.String())
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Email (log mailer)")
	return nil
}
