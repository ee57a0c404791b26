package helloworld

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/casa-helloworld/internal/templates/layouts"
)

type otpStatus struct {
	Sent     bool
	Verified bool
	Message  string
	Error    string
}

type helloWorldData struct {
	CSRFToken        string
	Message          string
	OrganizationName string
	LoggedIn         bool
	OTP              otpStatus
}

var sectionTmpl = template.Must(template.New("helloworld").Parse(`<section id="helloworld">
<h1>Hello World</h1>
<form method="post" action="/plugins/helloworld/org-name" hx-post="/plugins/helloworld/org-name" hx-target="#helloworld" hx-swap="outerHTML">
<input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
<label>Message <input type="text" name="message" value="{{.Message}}"></label>
<button type="submit">Load organization name</button>
</form>
<p>Organization: <span id="organization-name">{{.OrganizationName}}</span></p>
{{if .LoggedIn}}
<h2>One-time password</h2>
{{with .OTP}}{{if .Message}}<p class="alert alert-success" role="status">{{.Message}}</p>{{end}}{{if .Error}}<p class="alert alert-error" role="alert">{{.Error}}</p>{{end}}{{end}}
{{if not .OTP.Verified}}
<form method="post" action="/plugins/helloworld/otp" hx-post="/plugins/helloworld/otp" hx-target="#helloworld" hx-swap="outerHTML">
<input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
<button type="submit">Email me a code</button>
</form>
{{if .OTP.Sent}}
<form method="post" action="/plugins/helloworld/otp/verify" hx-post="/plugins/helloworld/otp/verify" hx-target="#helloworld" hx-swap="outerHTML">
<input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
<label>Code <input type="text" name="code" inputmode="numeric" pattern="[0-9]{6}" maxlength="6" autocomplete="one-time-code" required></label>
<button type="submit">Verify</button>
</form>
{{end}}
{{end}}
{{end}}
</section>
`))

// HelloWorldSection renders the page body for HTMX swaps.
func HelloWorldSection(data helloWorldData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return sectionTmpl.Execute(w, data)
	})
}

// HelloWorldPage renders the full page.
func HelloWorldPage(data helloWorldData) templ.Component {
	return layouts.Base("Hello World", HelloWorldSection(data))
}
