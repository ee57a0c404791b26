// Package pages holds full-page views that belong to no plugin.
package pages

import (
	"context"
	"html/template"
	"io"
	"net/http"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/casa-helloworld/internal/templates/layouts"
)

var errorTmpl = template.Must(template.New("error").Parse(`<section class="error">
<h1>{{.Code}} {{.Status}}</h1>
<p>{{.Message}}</p>
<p><a href="/plugins/helloworld">Back to Casa</a></p>
</section>
`))

// ErrorPage renders an error with its status code and a client-safe message.
func ErrorPage(code int, message string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return errorTmpl.Execute(w, struct {
			Code    int
			Status  string
			Message string
		}{code, http.StatusText(code), message})
	})
	return layouts.Base(http.StatusText(code), body)
}
