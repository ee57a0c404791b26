package smtp

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/casa-helloworld/internal/templates/layouts"
)

type formData struct {
	Settings  *SMTPSettings
	CSRFToken string
	Error     string
	Success   string
}

var formTmpl = template.Must(template.New("smtp-form").Parse(`<section id="smtp-settings">
<h1>SMTP settings</h1>
{{if .Error}}<p class="alert alert-error" role="alert">{{.Error}}</p>{{end}}
{{if .Success}}<p class="alert alert-success" role="status">{{.Success}}</p>{{end}}
<form hx-put="/admin/smtp" hx-target="#smtp-settings" hx-swap="outerHTML" method="post" action="/admin/smtp">
<input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
<label>Host <input type="text" name="host" value="{{.Settings.Host}}" required></label>
<label>Port <input type="number" name="port" min="1" max="65535" value="{{.Settings.Port}}"></label>
<label>Username <input type="text" name="username" value="{{.Settings.Username}}" autocomplete="off"></label>
<label>Password <input type="password" name="password" autocomplete="new-password" placeholder="{{if .Settings.HasPassword}}unchanged{{else}}not set{{end}}"></label>
<label><input type="checkbox" name="requires_ssl" value="true"{{if .Settings.RequiresSSL}} checked{{end}}> Require STARTTLS</label>
<label><input type="checkbox" name="server_trust" value="true"{{if .Settings.ServerTrust}} checked{{end}}> Trust server certificate</label>
<label>From address <input type="email" name="from_email_address" value="{{.Settings.FromEmailAddress}}" required></label>
<button type="submit">Save</button>
</form>
{{if .Settings.Configured}}
<form hx-post="/admin/smtp/test" hx-target="#smtp-settings" hx-swap="outerHTML" method="post" action="/admin/smtp/test">
<input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
<button type="submit">Test connection</button>
</form>
<form hx-post="/admin/smtp/send-test" hx-target="#smtp-settings" hx-swap="outerHTML" method="post" action="/admin/smtp/send-test">
<input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
<label>Send test message to <input type="email" name="to" required></label>
<button type="submit">Send</button>
</form>
{{end}}
</section>
`))

// SMTPFormComponent renders the settings form fragment for HTMX swaps.
func SMTPFormComponent(settings *SMTPSettings, csrfToken, errMsg, successMsg string) templ.Component {
	if settings == nil {
		settings = toSettings(nil)
	}
	data := formData{Settings: settings, CSRFToken: csrfToken, Error: errMsg, Success: successMsg}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return formTmpl.Execute(w, data)
	})
}

// SMTPSettingsPage renders the full admin page.
func SMTPSettingsPage(settings *SMTPSettings, csrfToken, errMsg, successMsg string) templ.Component {
	return layouts.Base("SMTP settings", SMTPFormComponent(settings, csrfToken, errMsg, successMsg))
}
