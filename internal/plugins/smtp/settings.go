package smtp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/keyxmakerx/casa-helloworld/internal/apperror"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/persistence"
	"github.com/keyxmakerx/casa-helloworld/internal/secret"
)

// SettingsStore reads and writes the stored relay settings. It is satisfied
// by persistence.PersistenceService.
type SettingsStore interface {
	ConfigurationProvider
	SaveSMTPConfiguration(ctx context.Context, smtp *persistence.SMTPConfiguration) error
}

// SettingsService backs the admin SMTP page.
type SettingsService interface {
	// GetSettings returns the SMTP configuration (password redacted).
	GetSettings(ctx context.Context) (*SMTPSettings, error)

	// UpdateSettings saves new SMTP settings. Empty password keeps existing.
	UpdateSettings(ctx context.Context, req UpdateSMTPRequest) error

	// TestConnection verifies SMTP connectivity with current settings.
	TestConnection(ctx context.Context) error

	// SendTestEmail sends a short message to the given address.
	SendTestEmail(ctx context.Context, to string) error
}

// settingsService implements SettingsService.
type settingsService struct {
	store    SettingsStore
	notifier Notifier
}

// NewSettingsService creates a new SMTP settings service.
func NewSettingsService(store SettingsStore, notifier Notifier) SettingsService {
	return &settingsService{store: store, notifier: notifier}
}

// GetSettings returns SMTP settings with the password redacted.
func (s *settingsService) GetSettings(ctx context.Context) (*SMTPSettings, error) {
	current, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return toSettings(current), nil
}

// UpdateSettings saves SMTP settings. If the password field is empty,
// the existing encrypted password is preserved.
func (s *settingsService) UpdateSettings(ctx context.Context, req UpdateSMTPRequest) error {
	current, err := s.current(ctx)
	if err != nil {
		return err
	}

	cfg := &persistence.SMTPConfiguration{
		Host:             strings.TrimSpace(req.Host),
		Port:             req.Port,
		Username:         strings.TrimSpace(req.Username),
		RequiresSSL:      req.RequiresSSL,
		ServerTrust:      req.ServerTrust,
		FromEmailAddress: strings.TrimSpace(req.FromEmailAddress),
	}
	if cfg.Port == 0 {
		cfg.Port = defaultSubmissionPort
	}
	if cfg.FromEmailAddress != "" {
		if _, err := mail.ParseAddress(cfg.FromEmailAddress); err != nil {
			return apperror.NewValidation("from address is not a valid email address")
		}
	}

	// Handle password: empty = keep existing, non-empty = encrypt + store.
	if req.Password != "" {
		encrypted, ok := s.notifier.EncryptSecret(req.Password)
		if !ok {
			return apperror.NewInternal(errors.New("encrypting smtp password"))
		}
		cfg.Password = encrypted
	} else if current != nil {
		cfg.Password = current.Password
	}

	return s.store.SaveSMTPConfiguration(ctx, cfg)
}

// TestConnection opens an authenticated session with the stored settings.
func (s *settingsService) TestConnection(ctx context.Context) error {
	if err := s.notifier.TestConnection(ctx); err != nil {
		return toAppError(err)
	}
	return nil
}

// SendTestEmail sends a fixed message so admins can check end-to-end
// delivery.
func (s *settingsService) SendTestEmail(ctx context.Context, to string) error {
	to = strings.TrimSpace(to)
	if _, err := mail.ParseAddress(to); err != nil {
		return apperror.NewValidation("recipient is not a valid email address")
	}

	err := s.notifier.Send(ctx, Email{
		To:       to,
		Subject:  "Casa SMTP test",
		HTMLBody: "<p>This is a test message from the Casa SMTP settings page.</p>",
	})
	if err != nil {
		return toAppError(err)
	}
	slog.Info("smtp test email sent", slog.String("to", to))
	return nil
}

func (s *settingsService) current(ctx context.Context) (*persistence.SMTPConfiguration, error) {
	record, err := s.store.GetConfiguration(ctx)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return record.SMTP, nil
}

// toAppError maps notifier failures to messages an admin can act on.
func toAppError(err error) error {
	switch {
	case errors.Is(err, ErrConfigurationMissing):
		return apperror.NewBadRequest("SMTP is not configured")
	case errors.Is(err, ErrConfigurationUnavailable):
		return apperror.NewUnavailable("SMTP settings could not be loaded", err)
	case errors.Is(err, secret.ErrEncryption):
		return apperror.NewInternal(fmt.Errorf("stored smtp password is unreadable: %w", err))
	case errors.Is(err, ErrMessaging):
		return apperror.NewUnavailable("SMTP delivery failed: "+strings.TrimPrefix(err.Error(), ErrMessaging.Error()+": "), err)
	default:
		return apperror.NewInternal(err)
	}
}
