package mailer

import (
	"fmt"
	"log"

	"github.com/wneessen/go-mail"
)

// Sender delivers a plain-text message to a single recipient.
type Sender interface {
	Send(to, subject, body string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) (Sender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &smtpSender{cfg: cfg}, nil
}

func (s *smtpSender) Send(to, subject, body string) error {
	msg := mail.NewMsg()

	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("setting from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

type mockSender struct{}

// NewMockSender returns a Sender that only logs. Used when SMTP is not
// configured, so the rest of the pipeline keeps working in development.
func NewMockSender() Sender {
	return &mockSender{}
}

func (*mockSender) Send(to, subject, body string) error {
	log.Printf("✅ SUCCESS (mock): email %q would be sent to %s", subject, to)
	return nil
}
