// Package mail implements the best-effort outbound email gateway. Sends
// are advisory: callers treat any failure as a soft warning and never roll
// back state because of it.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Sender delivers a plain-text message. ok=false carries a human-readable
// detail; Send never panics and never blocks past its configured timeout.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) (ok bool, detail string)
}

// SMTPConfig holds connection settings for the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool // STARTTLS on the submission port
	Timeout  time.Duration
}

// SMTPSender sends mail over SMTP with STARTTLS and a bounded dial/IO timeout.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender constructs an SMTP sender; a zero timeout defaults to 15s.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SMTPSender{cfg: cfg}
}

// Send delivers one message. All transport and auth failures come back as
// (false, detail); only a fully accepted message yields (true, "sent").
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) (bool, string) {
	cfg := s.cfg
	if cfg.Host == "" || cfg.Port == 0 || cfg.Username == "" || cfg.Password == "" || cfg.From == "" || to == "" {
		return false, "missing SMTP details: host, port, username, password, sender, or recipient"
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	d := net.Dialer{Timeout: cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false, fmt.Sprintf("dial: %v", err)
	}
	// One deadline bounds the whole SMTP conversation.
	_ = conn.SetDeadline(time.Now().Add(cfg.Timeout))

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		_ = conn.Close()
		return false, fmt.Sprintf("smtp handshake: %v", err)
	}
	defer c.Close()

	if cfg.UseTLS {
		if err := c.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
			return false, fmt.Sprintf("starttls: %v", err)
		}
	}
	if err := c.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
		return false, fmt.Sprintf("auth: %v", err)
	}
	if err := c.Mail(cfg.From); err != nil {
		return false, fmt.Sprintf("mail from: %v", err)
	}
	if err := c.Rcpt(to); err != nil {
		return false, fmt.Sprintf("rcpt to: %v", err)
	}
	w, err := c.Data()
	if err != nil {
		return false, fmt.Sprintf("data: %v", err)
	}
	msg := buildMessage(cfg.From, to, subject, body)
	if _, err := w.Write([]byte(msg)); err != nil {
		_ = w.Close()
		return false, fmt.Sprintf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		return false, fmt.Sprintf("close: %v", err)
	}
	if err := c.Quit(); err != nil {
		return false, fmt.Sprintf("quit: %v", err)
	}
	return true, "sent"
}

func buildMessage(from, to, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)
	return b.String()
}
