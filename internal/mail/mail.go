// Package mail delivers notify.Email values through an SMTP relay.
package mail

import (
	"context"
	"crypto/tls"
	"errors"

	"gopkg.in/gomail.v2"

	"github.com/corvexa/it-services-portal/internal/notify"
)

// Config describes the SMTP relay.
type Config struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Mailer implements notify.Deliverer with gomail.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg Config) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &Mailer{dialer: d, from: from}
}

// ErrNoRecipient is returned for an email without a To address.
var ErrNoRecipient = errors.New("mail: no recipient")

// Deliver sends e.  gomail has no context support; ctx is only checked
// before dialing.
func (m *Mailer) Deliver(ctx context.Context, e notify.Email) error {
	if e.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.dialer.DialAndSend(BuildMessage(m.from, e))
}

// BuildMessage converts e into a gomail message.
func BuildMessage(from string, e notify.Email) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", e.To)
	msg.SetHeader("Subject", e.Subject)
	if e.HTML {
		msg.SetBody("text/html", e.Body)
	} else {
		msg.SetBody("text/plain", e.Body)
	}
	return msg
}
