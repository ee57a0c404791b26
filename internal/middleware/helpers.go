package middleware

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// LayoutInjector adds layout data (session, CSRF token, current path) to the
// context layouts.Base renders with. app/routes.go sets it so this package
// stays free of plugin imports.
var LayoutInjector func(echo.Context, context.Context) context.Context

// IsHTMX reports whether the request is an HTMX swap (not a boosted
// navigation), which gets a fragment instead of a full page.
func IsHTMX(c echo.Context) bool {
	h := c.Request().Header
	return h.Get("HX-Request") == "true" && h.Get("HX-Boosted") != "true"
}

// Render writes component as HTML with status.
func Render(c echo.Context, status int, component templ.Component) error {
	ctx := c.Request().Context()
	if LayoutInjector != nil {
		ctx = LayoutInjector(c, ctx)
	}
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	if c.Request().Method == http.MethodHead {
		return nil
	}
	return component.Render(ctx, c.Response().Writer)
}
