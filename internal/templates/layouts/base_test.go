package layouts

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, ctx context.Context) string {
	t.Helper()
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>body</p>")
		return err
	})
	var buf bytes.Buffer
	require.NoError(t, Base("Page", content).Render(ctx, &buf))
	return buf.String()
}

func TestBase_Anonymous(t *testing.T) {
	out := render(t, WithData(context.Background(), Data{CSRFToken: "tok"}))

	assert.Contains(t, out, "<title>Page - Casa</title>")
	assert.Contains(t, out, `<meta name="csrf-token" content="tok">`)
	assert.Contains(t, out, "<p>body</p>")
	assert.Contains(t, out, `href="/login"`)
	assert.NotContains(t, out, `href="/admin/smtp"`)
	assert.NotContains(t, out, "Log out")
}

func TestBase_Admin(t *testing.T) {
	ctx := WithData(context.Background(), Data{
		UserID:     "u-1",
		UserName:   "Admin",
		IsAdmin:    true,
		ActivePath: "/admin/smtp",
	})

	out := render(t, ctx)

	assert.Contains(t, out, `<a href="/admin/smtp" aria-current="page">SMTP</a>`)
	assert.Contains(t, out, `href="/admin/audit"`)
	assert.Contains(t, out, "Log out")
	assert.NotContains(t, out, `href="/login"`)
}

func TestBase_NoLayoutData(t *testing.T) {
	out := render(t, context.Background())

	assert.Contains(t, out, `href="/login"`)
	assert.Contains(t, out, `<meta name="csrf-token" content="">`)
}
