package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/cardio-api/internal/config"
)

var ErrMailerDisabled = errors.New("email delivery is not configured")

const sendTimeout = 30 * time.Second

// Attachment is a report delivered by email.
type Attachment struct {
	Name string
	Data []byte
}

// Mailer sends reports over SMTP.
type Mailer struct {
	from    string
	enabled bool
	send    func(*gomail.Message) error
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Mailer{
		from:    cfg.From,
		enabled: cfg.Enabled(),
		send: func(msg *gomail.Message) error {
			return d.DialAndSend(msg)
		},
	}
}

func (m *Mailer) SendReport(ctx context.Context, to, subject, body string, att Attachment) error {
	if !m.enabled {
		return ErrMailerDisabled
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("recipient is required")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	msg.Attach(att.Name, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(att.Data)
		return err
	}))

	done := make(chan error, 1)
	go func() {
		done <- m.send(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send report email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(sendTimeout):
		return context.DeadlineExceeded
	}
}
