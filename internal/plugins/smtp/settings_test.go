package smtp

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/casa-helloworld/internal/apperror"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/persistence"
)

func TestGetSettings_RedactsPassword(t *testing.T) {
	enc := newTestEncrypter(t)
	provider := configuredProvider(t, enc, "secret")
	n := NewNotifier(provider, enc, &fakeTransport{}, newLogger(&bytes.Buffer{}))
	svc := NewSettingsService(provider, n)

	settings, err := svc.GetSettings(context.Background())
	require.NoError(t, err)
	assert.True(t, settings.Configured)
	assert.True(t, settings.HasPassword)
	assert.Equal(t, "smtp.example.com", settings.Host)
	assert.Equal(t, 587, settings.Port)
}

func TestGetSettings_Unconfigured(t *testing.T) {
	svc := NewSettingsService(&mockProvider{}, NewNotifier(&mockProvider{}, newTestEncrypter(t), &fakeTransport{}, nil))

	settings, err := svc.GetSettings(context.Background())
	require.NoError(t, err)
	assert.False(t, settings.Configured)
	assert.Equal(t, defaultSubmissionPort, settings.Port)
}

func TestUpdateSettings_EncryptsNewPassword(t *testing.T) {
	enc := newTestEncrypter(t)
	var saved *persistence.SMTPConfiguration
	provider := &mockProvider{
		saveFn: func(ctx context.Context, smtp *persistence.SMTPConfiguration) error {
			saved = smtp
			return nil
		},
	}
	svc := NewSettingsService(provider, NewNotifier(provider, enc, &fakeTransport{}, nil))

	err := svc.UpdateSettings(context.Background(), UpdateSMTPRequest{
		Host:             " smtp.example.com ",
		Username:         "bot",
		Password:         "hunter2",
		RequiresSSL:      true,
		FromEmailAddress: "bot@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.Equal(t, "smtp.example.com", saved.Host)
	assert.Equal(t, defaultSubmissionPort, saved.Port)
	assert.NotEqual(t, "hunter2", saved.Password)

	plaintext, err := enc.Decrypt(saved.Password)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plaintext)
}

func TestUpdateSettings_KeepsExistingPassword(t *testing.T) {
	enc := newTestEncrypter(t)
	provider := configuredProvider(t, enc, "secret")
	existing, err := provider.GetConfiguration(context.Background())
	require.NoError(t, err)

	var saved *persistence.SMTPConfiguration
	provider.saveFn = func(ctx context.Context, smtp *persistence.SMTPConfiguration) error {
		saved = smtp
		return nil
	}
	svc := NewSettingsService(provider, NewNotifier(provider, enc, &fakeTransport{}, nil))

	err = svc.UpdateSettings(context.Background(), UpdateSMTPRequest{
		Host:             "smtp.example.com",
		Port:             465,
		FromEmailAddress: "bot@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.Equal(t, existing.SMTP.Password, saved.Password)
	assert.Equal(t, 465, saved.Port)
}

func TestUpdateSettings_InvalidFromAddress(t *testing.T) {
	saveCalled := false
	provider := &mockProvider{
		saveFn: func(ctx context.Context, smtp *persistence.SMTPConfiguration) error {
			saveCalled = true
			return nil
		},
	}
	svc := NewSettingsService(provider, NewNotifier(provider, newTestEncrypter(t), &fakeTransport{}, nil))

	err := svc.UpdateSettings(context.Background(), UpdateSMTPRequest{Host: "h", FromEmailAddress: "nope"})
	assert.Equal(t, http.StatusUnprocessableEntity, apperror.SafeCode(err))
	assert.False(t, saveCalled)
}

func TestTestConnection_Unconfigured(t *testing.T) {
	provider := &mockProvider{}
	svc := NewSettingsService(provider, NewNotifier(provider, newTestEncrypter(t), &fakeTransport{}, nil))

	err := svc.TestConnection(context.Background())
	assert.Equal(t, http.StatusBadRequest, apperror.SafeCode(err))
}

func TestTestConnection_StoreUnavailable(t *testing.T) {
	provider := &mockProvider{getConfigurationFn: func(ctx context.Context) (*persistence.Configuration, error) {
		return nil, errors.New("connection refused")
	}}
	svc := NewSettingsService(provider, NewNotifier(provider, newTestEncrypter(t), &fakeTransport{}, nil))

	err := svc.TestConnection(context.Background())
	assert.Equal(t, http.StatusServiceUnavailable, apperror.SafeCode(err))
	assert.Equal(t, "SMTP settings could not be loaded", apperror.SafeMessage(err))
}

func TestTestConnection_DialFailure(t *testing.T) {
	enc := newTestEncrypter(t)
	provider := configuredProvider(t, enc, "secret")
	transport := &fakeTransport{dialErr: errors.New("connection refused")}
	svc := NewSettingsService(provider, NewNotifier(provider, enc, transport, nil))

	err := svc.TestConnection(context.Background())
	assert.Equal(t, http.StatusServiceUnavailable, apperror.SafeCode(err))
	assert.Contains(t, apperror.SafeMessage(err), "connection refused")
}

func TestSendTestEmail(t *testing.T) {
	enc := newTestEncrypter(t)
	provider := configuredProvider(t, enc, "secret")
	sender := &fakeSender{}
	svc := NewSettingsService(provider, NewNotifier(provider, enc, &fakeTransport{sender: sender}, nil))

	require.NoError(t, svc.SendTestEmail(context.Background(), "admin@example.com"))
	assert.Equal(t, []string{"admin@example.com"}, sender.to)

	err := svc.SendTestEmail(context.Background(), "bogus")
	assert.Equal(t, http.StatusUnprocessableEntity, apperror.SafeCode(err))
}
