package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// SMTPProvider delivers mail over SMTP with implicit TLS (port 465).
// It is the fallback provider when the HTTP API is down or rejects
// the message.
type SMTPProvider struct {
	host     string
	port     int
	user     string
	password string
	fromName string
}

// NewSMTPProvider creates the SMTP fallback provider.
func NewSMTPProvider(host string, port int, user, password, fromName string) *SMTPProvider {
	return &SMTPProvider{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		fromName: fromName,
	}
}

// Name identifies this provider in logs and template selection.
func (p *SMTPProvider) Name() string { return "smtp" }

// Configured reports whether SMTP credentials are present.
func (p *SMTPProvider) Configured() bool {
	return p.host != "" && p.user != "" && p.password != ""
}

// Send connects, authenticates and submits the message. Connection
// errors are retriable; SMTP protocol rejections are permanent.
func (p *SMTPProvider) Send(ctx context.Context, msg *Message) error {
	if !p.Configured() {
		return fmt.Errorf("%w: smtp host or credentials not set", ErrProviderUnconfigured)
	}

	addr := net.JoinHostPort(p.host, strconv.Itoa(p.port))

	dialer := &tls.Dialer{Config: &tls.Config{ServerName: p.host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Retriable(fmt.Errorf("dial smtp %s: %w", addr, err))
	}

	client, err := smtp.NewClient(conn, p.host)
	if err != nil {
		conn.Close()
		return Retriable(fmt.Errorf("smtp handshake: %w", err))
	}
	defer client.Close()

	if err := client.Auth(smtp.PlainAuth("", p.user, p.password, p.host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(p.user); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write([]byte(p.message(msg))); err != nil {
		w.Close()
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}

	return client.Quit()
}

// message assembles the RFC 5322 message with an HTML body.
func (p *SMTPProvider) message(msg *Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", p.fromName, p.user)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	b.WriteString("\r\n")
	return b.String()
}
