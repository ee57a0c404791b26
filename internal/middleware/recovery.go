package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
)

// Recovery turns a handler panic into a 500 for the error handler. The panic
// value and stack go to the log only.
func Recovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				slog.Error("handler panicked",
					slog.Any("panic", r),
					slog.String("route", c.Path()),
					slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
					slog.String("stack", string(debug.Stack())),
				)
				err = echo.NewHTTPError(http.StatusInternalServerError).SetInternal(fmt.Errorf("panic: %v", r))
			}()
			return next(c)
		}
	}
}
