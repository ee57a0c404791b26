package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"gopkg.in/gomail.v2"
)

const (
	// implicitTLSPort is the SMTPS port; the connection is wrapped in TLS
	// before the greeting instead of upgrading with STARTTLS.
	implicitTLSPort = 465

	defaultSubmissionPort = 587
	defaultDialTimeout    = 10 * time.Second
)

// Session carries everything needed to open an authenticated relay
// connection. It is built per send from the stored settings and the
// decrypted password, then discarded.
type Session struct {
	Host     string
	Port     int
	Username string
	Password string

	// Auth enables SMTP AUTH PLAIN. Skipped when Username is empty.
	Auth bool

	// RequireTLS makes STARTTLS mandatory; the dial fails if the server
	// does not offer it.
	RequireTLS bool

	// TrustServer accepts any server certificate for Host.
	TrustServer bool
}

// Addr returns host:port.
func (s Session) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

func (s Session) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.TrustServer, //nolint:gosec // operator opt-in
		MinVersion:         tls.VersionTLS12,
	}
}

// Transport opens a relay connection for a session. The returned sender is
// closed by the caller after the message is delivered.
type Transport interface {
	Dial(ctx context.Context, session Session) (gomail.SendCloser, error)
}

// sessionTimeoutFactor bounds a whole relay session, when the caller's
// context has no deadline, at this many dial timeouts.
const sessionTimeoutFactor = 6

// SMTPTransport dials a real SMTP relay with go-smtp.
type SMTPTransport struct {
	dialTimeout    time.Duration
	sessionTimeout time.Duration
}

// NewSMTPTransport creates a transport. A non-positive dialTimeout falls
// back to 10 seconds.
func NewSMTPTransport(dialTimeout time.Duration) *SMTPTransport {
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	return &SMTPTransport{
		dialTimeout:    dialTimeout,
		sessionTimeout: dialTimeout * sessionTimeoutFactor,
	}
}

// Dial connects, negotiates TLS and authenticates.
func (t *SMTPTransport) Dial(ctx context.Context, s Session) (gomail.SendCloser, error) {
	dialer := &net.Dialer{Timeout: t.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.Addr())
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", s.Addr(), err)
	}
	// go-smtp resets the deadline before every command, so the cap lives in
	// the connection itself.
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(t.sessionTimeout)
	}
	conn = &cappedConn{Conn: conn, limit: deadline}
	_ = conn.SetDeadline(deadline)

	var client *gosmtp.Client
	switch {
	case s.Port == implicitTLSPort:
		client = gosmtp.NewClient(tls.Client(conn, s.tlsConfig()))
	case s.RequireTLS:
		client, err = gosmtp.NewClientStartTLS(conn, s.tlsConfig())
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("starting TLS with %s: %w", s.Addr(), err)
		}
	default:
		client = gosmtp.NewClient(conn)
	}

	if s.Auth && s.Username != "" {
		if err := client.Auth(sasl.NewPlainClient("", s.Username, s.Password)); err != nil {
			client.Close()
			return nil, fmt.Errorf("authenticating as %s: %w", s.Username, err)
		}
	}

	return &clientSender{client: client}, nil
}

// cappedConn never lets a deadline move past limit; a zero deadline means
// limit.
type cappedConn struct {
	net.Conn
	limit time.Time
}

func (c *cappedConn) cap(t time.Time) time.Time {
	if t.IsZero() || t.After(c.limit) {
		return c.limit
	}
	return t
}

func (c *cappedConn) SetDeadline(t time.Time) error      { return c.Conn.SetDeadline(c.cap(t)) }
func (c *cappedConn) SetReadDeadline(t time.Time) error  { return c.Conn.SetReadDeadline(c.cap(t)) }
func (c *cappedConn) SetWriteDeadline(t time.Time) error { return c.Conn.SetWriteDeadline(c.cap(t)) }

// clientSender adapts a go-smtp client to gomail.SendCloser.
type clientSender struct {
	client *gosmtp.Client
}

func (c *clientSender) Send(from string, to []string, msg io.WriterTo) error {
	if err := c.client.Mail(from, nil); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := c.client.Rcpt(rcpt, nil); err != nil {
			return fmt.Errorf("RCPT TO %s: %w", rcpt, err)
		}
	}

	w, err := c.client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := msg.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing message: %w", err)
	}
	return nil
}

func (c *clientSender) Close() error {
	return c.client.Quit()
}
