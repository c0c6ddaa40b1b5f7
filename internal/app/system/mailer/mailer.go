// Package mailer sends placement notifications over SMTP. When no host is
// configured the mailer is disabled and Send is a logged no-op, so local
// development needs no mail server.
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Email is one message. To may be empty when Bcc carries the recipients.
type Email struct {
	To       string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Recipients returns every envelope recipient.
func (e Email) Recipients() []string {
	out := make([]string, 0, len(e.Bcc)+1)
	if e.To != "" {
		out = append(out, e.To)
	}
	return append(out, e.Bcc...)
}

// Sender delivers email. *Mailer implements it; tests use Recorder.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// ImplicitTLS dials with TLS (port 465). Otherwise STARTTLS is used
	// when the server offers it.
	ImplicitTLS bool
}

// Enabled reports whether a host is configured.
func (c Config) Enabled() bool { return strings.TrimSpace(c.Host) != "" }

// ErrNoRecipients is returned when an Email has neither To nor Bcc.
var ErrNoRecipients = errors.New("mailer: no recipients")

// Mailer is an SMTP Sender.
type Mailer struct {
	cfg Config
	log *zap.Logger
}

// New returns a Mailer. A zero Port defaults to 587.
func New(cfg Config, logger *zap.Logger) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.From == "" {
		cfg.From = "noreply@example.com"
	}
	return &Mailer{cfg: cfg, log: logger}
}

// Enabled reports whether messages will actually be delivered.
func (m *Mailer) Enabled() bool { return m.cfg.Enabled() }

// Send delivers e. It honors ctx cancellation while dialing.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	rcpts := e.Recipients()
	if len(rcpts) == 0 {
		return ErrNoRecipients
	}
	if !m.Enabled() {
		m.log.Debug("smtp disabled; dropping email",
			zap.String("subject", e.Subject),
			zap.Int("recipients", len(rcpts)))
		return nil
	}

	msg, err := m.build(e)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	conn, err := m.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", addr, err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if !m.cfg.ImplicitTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}
	if m.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, r := range rcpts {
		if err := c.Rcpt(r); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", r, err)
		}
	}
	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := wc.Write(msg); err != nil {
		wc.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}
	return c.Quit()
}

func (m *Mailer) dial(ctx context.Context, addr string) (net.Conn, error) {
	d := &net.Dialer{Timeout: 15 * time.Second}
	if m.cfg.ImplicitTLS {
		td := &tls.Dialer{NetDialer: d, Config: &tls.Config{ServerName: m.cfg.Host}}
		return td.DialContext(ctx, "tcp", addr)
	}
	return d.DialContext(ctx, "tcp", addr)
}

// build renders e as a multipart/alternative MIME message. Bcc recipients
// are never written to headers.
func (m *Mailer) build(e Email) ([]byte, error) {
	var buf bytes.Buffer
	from := mail.Address{Name: m.cfg.FromName, Address: m.cfg.From}
	domain := "placemate.local"
	if at := strings.LastIndex(m.cfg.From, "@"); at >= 0 {
		domain = m.cfg.From[at+1:]
	}

	hdr := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }
	hdr("From", from.String())
	if e.To != "" {
		hdr("To", e.To)
	} else {
		hdr("To", "undisclosed-recipients:;")
	}
	hdr("Subject", mime.QEncoding.Encode("utf-8", e.Subject))
	hdr("Date", time.Now().Format(time.RFC1123Z))
	hdr("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domain))
	hdr("MIME-Version", "1.0")

	mw := multipart.NewWriter(&buf)
	hdr("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	parts := []struct{ ctype, body string }{
		{"text/plain; charset=utf-8", e.TextBody},
		{"text/html; charset=utf-8", e.HTMLBody},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.ctype},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Recorder is an in-memory Sender.
type Recorder struct {
	mu   sync.Mutex
	sent []Email
	Err  error
}

// Send records e, or returns r.Err when set.
func (r *Recorder) Send(_ context.Context, e Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, e)
	return nil
}

// Sent returns a copy of recorded emails.
func (r *Recorder) Sent() []Email {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Email(nil), r.sent...)
}
