package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	mail "github.com/wneessen/go-mail"
)

// MailConfig describes the relay and the fixed sender and recipients.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Timeout  time.Duration
}

// Mail defaults.
const (
	DefaultMailPort    = 465
	DefaultMailTimeout = 15 * time.Second
)

// ErrMailConfig is returned when the mail configuration is incomplete.
var ErrMailConfig = errors.New("alert: invalid mail config")

// Validate checks the config can be used to send mail.
func (c MailConfig) Validate() error {
	switch {
	case c.Host == "":
		return fmt.Errorf("%w: host is required", ErrMailConfig)
	case c.From == "":
		return fmt.Errorf("%w: from is required", ErrMailConfig)
	case len(c.To) == 0:
		return fmt.Errorf("%w: at least one recipient is required", ErrMailConfig)
	}
	return nil
}

// Mailer sends alerts over SMTP with implicit TLS and plain auth.
type Mailer struct {
	cfg MailConfig
}

// NewMailer validates cfg and returns a Mailer.
func NewMailer(cfg MailConfig) (*Mailer, error) {
	if cfg.Port == 0 {
		cfg.Port = DefaultMailPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultMailTimeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Mailer{cfg: cfg}, nil
}

// Notify sends one message per recipient over a single connection.
// There is no retry.
func (m *Mailer) Notify(ctx context.Context, subject, body string) error {
	msgs, err := m.messages(subject, body)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTimeout(m.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msgs...); err != nil {
		return fmt.Errorf("send alert %q: %w", subject, err)
	}

	log.Info().
		Str("subject", subject).
		Strs("to", m.cfg.To).
		Msg("alert sent")
	return nil
}

func (m *Mailer) messages(subject, body string) ([]*mail.Msg, error) {
	msgs := make([]*mail.Msg, 0, len(m.cfg.To))
	for _, rcpt := range m.cfg.To {
		msg := mail.NewMsg()
		if err := msg.From(m.cfg.From); err != nil {
			return nil, fmt.Errorf("set sender %q: %w", m.cfg.From, err)
		}
		if err := msg.To(rcpt); err != nil {
			return nil, fmt.Errorf("set recipient %q: %w", rcpt, err)
		}
		msg.Subject(subject)
		msg.SetBodyString(mail.TypeTextPlain, body)
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
