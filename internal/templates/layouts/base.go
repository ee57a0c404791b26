package layouts

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

// Nav link shown in the header.
type navLink struct {
	Href   string
	Label  string
	Active bool
}

type baseData struct {
	Title         string
	Authenticated bool
	UserName      string
	CSRFToken     string
	Links         []navLink
}

var (
	baseHead = template.Must(template.New("head").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="csrf-token" content="{{.CSRFToken}}">
<title>{{.Title}} - Casa</title>
<script src="https://unpkg.com/htmx.org@2.0.4" defer></script>
</head>
<body hx-headers='{"X-CSRF-Token": "{{.CSRFToken}}"}'>
<header>
<nav>
{{range .Links}}<a href="{{.Href}}"{{if .Active}} aria-current="page"{{end}}>{{.Label}}</a>
{{end}}{{if .Authenticated}}<span>{{.UserName}}</span>
<form method="post" action="/logout"><input type="hidden" name="csrf_token" value="{{.CSRFToken}}"><button type="submit">Log out</button></form>{{end}}
</nav>
</header>
<main>
`))

	baseFoot = template.Must(template.New("foot").Parse(`</main>
</body>
</html>
`))
)

// Base wraps content in the full HTML document. Layout data comes from the
// context populated by the layout injector.
func Base(title string, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ld := FromContext(ctx)
		data := baseData{
			Title:         title,
			Authenticated: ld.Authenticated(),
			UserName:      ld.UserName,
			CSRFToken:     ld.CSRFToken,
			Links:         navLinks(ld),
		}
		if err := baseHead.Execute(w, data); err != nil {
			return err
		}
		if err := content.Render(ctx, w); err != nil {
			return err
		}
		return baseFoot.Execute(w, data)
	})
}

func navLinks(ld Data) []navLink {
	links := []navLink{{Href: "/plugins/helloworld", Label: "Hello World"}}
	if ld.IsAdmin {
		links = append(links,
			navLink{Href: "/admin/smtp", Label: "SMTP"},
			navLink{Href: "/admin/audit", Label: "Activity"},
		)
	}
	if !ld.Authenticated() {
		links = append(links, navLink{Href: "/login", Label: "Log in"})
	}
	for i := range links {
		links[i].Active = links[i].Href == ld.ActivePath
	}
	return links
}
