// Package middleware holds the echo middleware and rendering helpers shared
// by the plugins. Global middleware is installed in internal/app; route
// specific middleware (auth guards, rate limits) in each plugin's routes.go.
package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger logs one line per request once the handler returns. The
// query string is left out so codes and tokens never reach the log, and
// health probes drop to debug.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			res := c.Response()
			status := res.Status
			if he, ok := err.(*echo.HTTPError); ok && !res.Committed {
				status = he.Code
			}

			level := slog.LevelInfo
			switch {
			case c.Path() == "/healthz":
				level = slog.LevelDebug
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			req := c.Request()
			slog.LogAttrs(req.Context(), level, "http request",
				slog.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", status),
				slog.Int64("bytes", res.Size),
				slog.Duration("latency", time.Since(start)),
				slog.String("remote_ip", c.RealIP()),
			)
			return err
		}
	}
}
