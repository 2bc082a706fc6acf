// Package mailer delivers outbound email over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// ErrMailUnavailable is returned while the SMTP circuit is open.
var ErrMailUnavailable = errors.New("mail delivery temporarily unavailable")

// Attachment is a file attached to a Message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a single email with HTML and plain text bodies.
type Message struct {
	To          []string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the SMTP connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Secure   bool
	Username string
	Password string
	From     string
	FromName string
}

// SMTPMailer sends through an SMTP relay. Consecutive delivery failures trip
// a circuit breaker so that request handlers stop waiting on a dead relay.
type SMTPMailer struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
	breaker  *gobreaker.CircuitBreaker
	log      *zap.Logger
}

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig, log *zap.Logger) *SMTPMailer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.Secure

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	fromName := cfg.FromName
	if fromName == "" {
		fromName = "TaskFlow"
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &SMTPMailer{
		dialer:   dialer,
		from:     from,
		fromName: fromName,
		breaker:  breaker,
		log:      log,
	}
}

// Send delivers msg. The context is only checked before dialing since the
// SMTP client does not support cancellation.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("message has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := m.build(msg)

	_, err := m.breaker.Execute(func() (interface{}, error) {
		return nil, m.dialer.DialAndSend(gm)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrMailUnavailable
	}
	if err != nil {
		m.log.Error("Failed to send email",
			zap.Strings("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.log.Info("Email sent", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func (m *SMTPMailer) build(msg Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", gm.FormatAddress(m.from, m.fromName))
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)

	switch {
	case msg.Text != "" && msg.HTML != "":
		gm.SetBody("text/plain", msg.Text)
		gm.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		gm.SetBody("text/html", msg.HTML)
	default:
		gm.SetBody("text/plain", msg.Text)
	}

	for _, a := range msg.Attachments {
		data := a.Data
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {a.ContentType},
			}))
		}
		gm.Attach(a.Filename, settings...)
	}
	return gm
}

// LogMailer only logs messages. It stands in when SMTP is not configured.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("Email delivery disabled, message dropped",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)))
	return nil
}
