// Package layouts holds the page shell shared by every plugin. Handlers
// never pass layout data directly: middleware.LayoutInjector stores a Data
// value in the request context and Base reads it back, so this package does
// not import any plugin.
package layouts

import "context"

// Data is what the shell needs to know about the current request.
type Data struct {
	CSRFToken  string
	ActivePath string

	// Zero for anonymous requests.
	UserID   string
	UserName string
	IsAdmin  bool
}

// Authenticated reports whether a user is logged in.
func (d Data) Authenticated() bool { return d.UserID != "" }

type dataKey struct{}

// WithData returns ctx carrying d.
func WithData(ctx context.Context, d Data) context.Context {
	return context.WithValue(ctx, dataKey{}, d)
}

// FromContext returns the Data stored by WithData, or the zero value.
func FromContext(ctx context.Context) Data {
	d, _ := ctx.Value(dataKey{}).(Data)
	return d
}
