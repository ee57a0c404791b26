// Package sanitize provides HTML sanitization for mail bodies. Uses
// bluemonday to strip dangerous HTML (script tags, event handlers,
// javascript: URLs) while preserving the formatting mail clients render.
package sanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	bodyPolicy     *bluemonday.Policy
	bodyPolicyOnce sync.Once
)

// getBodyPolicy returns the shared mail body policy, initializing it on first
// call.
func getBodyPolicy() *bluemonday.Policy {
	bodyPolicyOnce.Do(func() {
		bodyPolicy = bluemonday.UGCPolicy()

		// Mail clients ignore stylesheets, so inline styles carry layout.
		bodyPolicy.AllowAttrs("style").OnElements("span", "p", "div", "td", "th", "table")
		bodyPolicy.AllowAttrs("class").Globally()

		bodyPolicy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "td", "th", "caption")
		bodyPolicy.AllowAttrs("colspan", "rowspan", "align").OnElements("td", "th")
	})
	return bodyPolicy
}

// HTML sanitizes an HTML mail body supplied by an operator through
// casactl send-email before it is sent.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	return getBodyPolicy().Sanitize(input)
}
