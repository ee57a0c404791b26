package casactl

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/casa-helloworld/internal/config"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/smtp"
)

type fakeNotifier struct {
	sent    []smtp.Email
	sendErr error
	testErr error
	tested  bool
}

func (f *fakeNotifier) SendEmail(ctx context.Context, recipient, subject, htmlBody string) bool {
	return f.Send(ctx, smtp.Email{To: recipient, Subject: subject, HTMLBody: htmlBody}) == nil
}

func (f *fakeNotifier) Send(ctx context.Context, email smtp.Email) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, email)
	return nil
}

func (f *fakeNotifier) TestConnection(ctx context.Context) error {
	f.tested = true
	return f.testErr
}

func (f *fakeNotifier) EncryptSecret(plaintext string) (string, bool)  { return "", false }
func (f *fakeNotifier) DecryptSecret(ciphertext string) (string, bool) { return "", false }

// run executes casactl with args and returns stdout.
func run(t *testing.T, n *fakeNotifier, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	released := false
	root := NewRootCommand(Config{
		In:  strings.NewReader(stdin),
		Out: &out,
		Err: &errOut,
		LoadConfig: func() (*config.Config, error) {
			return &config.Config{Auth: config.AuthConfig{SecretKey: "test-secret-key-that-is-at-least-32-chars"}}, nil
		},
		NewNotifier: func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (smtp.Notifier, func(), error) {
			return n, func() { released = true }, nil
		},
	})
	root.SetArgs(args)
	err := root.Execute()
	if n != nil && err == nil && len(args) > 0 && args[0] == "send-email" {
		assert.True(t, released, "notifier resources released")
	}
	return out.String(), err
}

func TestEncryptDecrypt(t *testing.T) {
	out, err := run(t, nil, "", "encrypt", "hunter2")
	require.NoError(t, err)
	ciphertext := strings.TrimSpace(out)
	assert.NotEmpty(t, ciphertext)
	assert.NotContains(t, ciphertext, "hunter2")

	out, err = run(t, nil, ciphertext+"\n", "decrypt")
	require.NoError(t, err)
	assert.Equal(t, "hunter2\n", out)
}

func TestDecrypt_Garbage(t *testing.T) {
	_, err := run(t, nil, "", "decrypt", "not-a-ciphertext")
	assert.Error(t, err)
}

func TestEncrypt_NoValue(t *testing.T) {
	_, err := run(t, nil, "", "encrypt")
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	out, err := run(t, nil, "s3cret\n", "hash-password", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "$argon2id$"), out)
}

func TestHashPassword_SkipsConfig(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCommand(Config{
		In:  strings.NewReader(""),
		Out: &out,
		LoadConfig: func() (*config.Config, error) {
			return nil, errors.New("no config here")
		},
	})
	root.SetArgs([]string{"hash-password", "pw"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "$argon2id$")
}

func TestSendEmail(t *testing.T) {
	n := &fakeNotifier{}
	out, err := run(t, n, "", "send-email",
		"--to", "ops@example.com",
		"--subject", "Hi",
		"--body", `<p>Hello</p><script>alert(1)</script>`)
	require.NoError(t, err)
	assert.Contains(t, out, "sent to ops@example.com")

	require.Len(t, n.sent, 1)
	assert.Equal(t, "ops@example.com", n.sent[0].To)
	assert.Equal(t, "Hi", n.sent[0].Subject)
	assert.Equal(t, "<p>Hello</p>", n.sent[0].HTMLBody)
}

func TestSendEmail_BodyFromStdin(t *testing.T) {
	n := &fakeNotifier{}
	_, err := run(t, n, "<b>from stdin</b>", "send-email", "--to", "ops@example.com", "--body-file", "-")
	require.NoError(t, err)
	require.Len(t, n.sent, 1)
	assert.Equal(t, "<b>from stdin</b>", n.sent[0].HTMLBody)
}

func TestSendEmail_Errors(t *testing.T) {
	_, err := run(t, &fakeNotifier{}, "", "send-email")
	assert.EqualError(t, err, "--to is required")

	_, err = run(t, &fakeNotifier{sendErr: smtp.ErrConfigurationMissing}, "", "send-email", "--to", "ops@example.com")
	assert.ErrorIs(t, err, smtp.ErrConfigurationMissing)
}

func TestSendEmail_TestOnly(t *testing.T) {
	n := &fakeNotifier{}
	out, err := run(t, n, "", "send-email", "--test-only")
	require.NoError(t, err)
	assert.True(t, n.tested)
	assert.Empty(t, n.sent)
	assert.Contains(t, out, "SMTP connection OK")
}
