// Package mailer sends HTML email over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/domodwyer/mailyak/v3"
)

// ErrNotConfigured is returned by Send when no account credentials are set.
var ErrNotConfigured = errors.New("mailer: credentials not configured")

// Message is one outbound email.
type Message struct {
	To      string `json:"to"`
	ReplyTo string `json:"reply_to,omitempty"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Config holds the SMTP account. From defaults to User.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// SMTP sends through one authenticated account.
type SMTP struct {
	cfg Config
}

// NewSMTP creates a sender for cfg.
func NewSMTP(cfg Config) *SMTP {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &SMTP{cfg: cfg}
}

// Configured reports whether both halves of the credential pair are present.
func (s *SMTP) Configured() bool {
	return s.cfg.User != "" && s.cfg.Password != ""
}

// Send delivers msg. mailyak has no context support, so the exchange runs on its own goroutine and Send
// returns when ctx is done; the abandoned exchange ends when the server or the OS gives up.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	mail := mailyak.New(addr, smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host))
	mail.To(msg.To)
	mail.From(s.cfg.From)
	if s.cfg.FromName != "" {
		mail.FromName(s.cfg.FromName)
	}
	if msg.ReplyTo != "" {
		mail.ReplyTo(msg.ReplyTo)
	}
	mail.Subject(msg.Subject)
	mail.HTML().Set(msg.HTML)

	errCh := make(chan error, 1)
	go func() { errCh <- mail.Send() }()
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("send to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send to %s: %w", msg.To, ctx.Err())
	}
}
