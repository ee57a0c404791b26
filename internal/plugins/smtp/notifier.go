package smtp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/keyxmakerx/casa-helloworld/internal/plugins/persistence"
	"github.com/keyxmakerx/casa-helloworld/internal/secret"
)

// ConfigurationProvider supplies the current configuration record. It is
// satisfied by persistence.PersistenceService.
type ConfigurationProvider interface {
	GetConfiguration(ctx context.Context) (*persistence.Configuration, error)
}

// Notifier sends HTML email through the configured relay.
type Notifier interface {
	// SendEmail sends one HTML message and reports success. Failures are
	// logged, never returned.
	SendEmail(ctx context.Context, recipient, subject, htmlBody string) bool

	// Send is SendEmail with the failure kept as an error. It wraps
	// ErrConfigurationMissing, secret.ErrEncryption, or ErrMessaging.
	Send(ctx context.Context, email Email) error

	// TestConnection opens and closes an authenticated relay session
	// without sending anything.
	TestConnection(ctx context.Context) error

	// EncryptSecret encrypts a value with the application key. The second
	// result is false on failure.
	EncryptSecret(plaintext string) (string, bool)

	// DecryptSecret reverses EncryptSecret. The second result is false on
	// failure.
	DecryptSecret(ciphertext string) (string, bool)
}

// notifier implements Notifier.
type notifier struct {
	config    ConfigurationProvider
	secrets   secret.StringEncrypter
	transport Transport
	logger    *slog.Logger
}

// NewNotifier creates a notifier. A nil logger uses slog.Default().
func NewNotifier(config ConfigurationProvider, secrets secret.StringEncrypter, transport Transport, logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &notifier{
		config:    config,
		secrets:   secrets,
		transport: transport,
		logger:    logger,
	}
}

// SendEmail sends a message and logs the outcome.
func (n *notifier) SendEmail(ctx context.Context, recipient, subject, htmlBody string) bool {
	err := n.Send(ctx, Email{To: recipient, Subject: subject, HTMLBody: htmlBody})
	switch {
	case err == nil:
		emailsTotal.WithLabelValues(outcomeSent).Inc()
		n.logger.Debug("email sent", slog.String("to", recipient))
		return true
	case errors.Is(err, ErrConfigurationMissing):
		emailsTotal.WithLabelValues(outcomeNotConfigured).Inc()
		n.logger.Error("failed to send email: SMTP settings not found, configure them under /admin/smtp",
			slog.String("to", recipient),
			slog.Any("error", err),
		)
	case errors.Is(err, ErrConfigurationUnavailable):
		emailsTotal.WithLabelValues(outcomeFailed).Inc()
		n.logger.Error("failed to send email: SMTP settings could not be loaded",
			slog.String("to", recipient),
			slog.Any("error", err),
		)
	case errors.Is(err, secret.ErrEncryption):
		emailsTotal.WithLabelValues(outcomeSecretError).Inc()
		n.logger.Error("failed to send email: stored SMTP password could not be decrypted",
			slog.String("to", recipient),
			slog.Any("error", err),
		)
	default:
		emailsTotal.WithLabelValues(outcomeFailed).Inc()
		n.logger.Error("failed to send email",
			slog.String("to", recipient),
			slog.Any("error", err),
		)
	}
	return false
}

// Send composes and delivers one message.
func (n *notifier) Send(ctx context.Context, email Email) error {
	n.logger.Debug("sending email", slog.String("to", email.To))

	cfg, session, err := n.session(ctx)
	if err != nil {
		return err
	}

	if _, err := mail.ParseAddress(email.To); err != nil {
		return fmt.Errorf("%w: invalid recipient %q: %w", ErrMessaging, email.To, err)
	}
	if _, err := mail.ParseAddress(cfg.FromEmailAddress); err != nil {
		return fmt.Errorf("%w: invalid sender %q: %w", ErrMessaging, cfg.FromEmailAddress, err)
	}

	msg, err := n.compose(cfg.FromEmailAddress, email)
	if err != nil {
		return fmt.Errorf("%w: composing message: %w", ErrMessaging, err)
	}

	start := time.Now()
	sender, err := n.transport.Dial(ctx, session)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMessaging, err)
	}
	defer func() {
		if err := sender.Close(); err != nil {
			n.logger.Warn("closing smtp session", slog.Any("error", err))
		}
	}()

	if err := gomail.Send(sender, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrMessaging, err)
	}
	sendDuration.Observe(time.Since(start).Seconds())
	return nil
}

// TestConnection dials the relay with the stored settings.
func (n *notifier) TestConnection(ctx context.Context) error {
	_, session, err := n.session(ctx)
	if err != nil {
		return err
	}

	sender, err := n.transport.Dial(ctx, session)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMessaging, err)
	}
	if err := sender.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrMessaging, err)
	}
	n.logger.Info("smtp connection test succeeded",
		slog.String("host", session.Host),
		slog.Int("port", session.Port),
	)
	return nil
}

// EncryptSecret encrypts with the application key.
func (n *notifier) EncryptSecret(plaintext string) (string, bool) {
	ciphertext, err := n.secrets.Encrypt(plaintext)
	if err != nil {
		n.logger.Error("encrypting secret", slog.Any("error", err))
		return "", false
	}
	return ciphertext, true
}

// DecryptSecret decrypts with the application key.
func (n *notifier) DecryptSecret(ciphertext string) (string, bool) {
	plaintext, err := n.secrets.Decrypt(ciphertext)
	if err != nil {
		n.logger.Error("decrypting secret", slog.Any("error", err))
		return "", false
	}
	return plaintext, true
}

// session loads the stored settings and builds a relay session with the
// decrypted password. No network I/O happens here.
func (n *notifier) session(ctx context.Context) (*persistence.SMTPConfiguration, Session, error) {
	record, err := n.config.GetConfiguration(ctx)
	if err != nil {
		return nil, Session{}, fmt.Errorf("%w: %w", ErrConfigurationUnavailable, err)
	}
	if record == nil || record.SMTP == nil {
		return nil, Session{}, ErrConfigurationMissing
	}
	cfg := record.SMTP

	n.logger.Debug("smtp configuration loaded",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.Bool("requires_ssl", cfg.RequiresSSL),
		slog.Bool("server_trust", cfg.ServerTrust),
	)

	password, err := n.secrets.Decrypt(cfg.Password)
	if err != nil {
		return nil, Session{}, fmt.Errorf("decrypting smtp password: %w", err)
	}

	return cfg, Session{
		Host:        cfg.Host,
		Port:        cfg.Port,
		Username:    cfg.Username,
		Password:    password,
		Auth:        true,
		RequireTLS:  cfg.RequiresSSL,
		TrustServer: cfg.ServerTrust,
	}, nil
}

// compose builds a single-part MIME message: the HTML body is the only
// part of a multipart/mixed container. gomail writes the envelope headers.
func (n *notifier) compose(from string, email Email) (*gomail.Message, error) {
	contentType, body, err := htmlMultipart(email.HTMLBody)
	if err != nil {
		return nil, err
	}

	m := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	m.SetHeader("From", from)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetHeader("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(from)))
	// The container is already encoded; gomail must not re-encode it.
	m.SetBody(contentType, body, gomail.SetPartEncoding(gomail.Unencoded))
	return m, nil
}

// htmlMultipart wraps html in a multipart/mixed body holding one
// quoted-printable text/html part.
func htmlMultipart(html string) (contentType, body string, err error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	pw, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=UTF-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return "", "", err
	}
	qp := quotedprintable.NewWriter(pw)
	if _, err := qp.Write([]byte(html)); err != nil {
		return "", "", err
	}
	if err := qp.Close(); err != nil {
		return "", "", err
	}
	if err := mw.Close(); err != nil {
		return "", "", err
	}
	return "multipart/mixed; boundary=" + mw.Boundary(), buf.String(), nil
}

func domainOf(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i < len(address)-1 {
		return strings.Trim(address[i+1:], "> ")
	}
	return "localhost"
}
