package auth

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/casa-helloworld/internal/templates/layouts"
)

var loginFormTmpl = template.Must(template.New("login-form").Parse(`<form id="login-form" method="post" action="/login" hx-post="/login" hx-target="#login-form" hx-swap="outerHTML">
<input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
{{if .Error}}<p class="alert alert-error" role="alert">{{.Error}}</p>{{end}}
<label>Email <input type="email" name="email" value="{{.Email}}" autocomplete="username" required autofocus></label>
<label>Password <input type="password" name="password" autocomplete="current-password" required></label>
<button type="submit">Sign in</button>
</form>
`))

// LoginFormComponent renders the login form fragment.
func LoginFormComponent(csrfToken, email, errMsg string) templ.Component {
	data := struct {
		CSRFToken string
		Email     string
		Error     string
	}{csrfToken, email, errMsg}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return loginFormTmpl.Execute(w, data)
	})
}

// LoginPage renders the full login page.
func LoginPage(csrfToken, email, errMsg string) templ.Component {
	return layouts.Base("Sign in", LoginFormComponent(csrfToken, email, errMsg))
}
