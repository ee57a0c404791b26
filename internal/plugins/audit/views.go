package audit

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"

	"github.com/a-h/templ"

	"github.com/keyxmakerx/casa-helloworld/internal/templates/layouts"
)

var activityTmpl = template.Must(template.New("activity").Funcs(template.FuncMap{
	"details": formatDetails,
}).Parse(`<section id="audit">
<h1>Activity</h1>
{{if .Entries}}
<table>
<thead><tr><th>When</th><th>Who</th><th>Action</th><th>From</th><th>Details</th></tr></thead>
<tbody>
{{range .Entries}}<tr>
<td><time datetime="{{.CreatedAt.Format "2006-01-02T15:04:05Z07:00"}}">{{.CreatedAt.Format "2006-01-02 15:04"}}</time></td>
<td>{{.UserName}}</td>
<td><code>{{.Action}}</code></td>
<td>{{.RemoteIP}}</td>
<td>{{details .Details}}</td>
</tr>
{{end}}</tbody>
</table>
<nav class="pagination">
{{if .HasPrev}}<a href="/admin/audit?page={{.Prev}}">Newer</a>{{end}}
<span>Page {{.Page}}</span>
{{if .HasNext}}<a href="/admin/audit?page={{.Next}}">Older</a>{{end}}
</nav>
{{else}}
<p>No activity recorded yet.</p>
{{end}}
</section>
`))

type activityData struct {
	Page
	Prev int
	Next int
}

// ActivityPage renders the audit log.
func ActivityPage(p Page) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return activityTmpl.Execute(w, activityData{Page: p, Prev: p.Page - 1, Next: p.Page + 1})
	})
	return layouts.Base("Activity", body)
}

// formatDetails renders a details map as sorted "key=value" pairs.
func formatDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, " ")
}
