// Package app is the application bootstrap and dependency injection root.
// It holds the shared infrastructure (DB pool, Redis client, Echo instance)
// and wires the plugins together.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/casa-helloworld/internal/apperror"
	"github.com/keyxmakerx/casa-helloworld/internal/config"
	"github.com/keyxmakerx/casa-helloworld/internal/middleware"
	"github.com/keyxmakerx/casa-helloworld/internal/templates/pages"
)

// App holds all shared dependencies and the Echo HTTP server instance.
type App struct {
	Config *config.Config

	// DB is the MariaDB pool holding users and configuration records.
	DB *sql.DB

	// Redis holds sessions and pending one-time passwords.
	Redis *redis.Client

	Echo *echo.Echo
}

// New creates an App and configures global middleware and error handling.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) *App {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	middleware.TrustedProxies(e, cfg.TrustedProxies)

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Echo:   e,
	}

	app.setupMiddleware()
	e.HTTPErrorHandler = app.errorHandler

	return app
}

// setupMiddleware registers global middleware. Recovery is outermost; CSRF
// runs last so every handler sees a token.
func (a *App) setupMiddleware() {
	a.Echo.Use(middleware.Recovery())
	a.Echo.Use(echomw.RequestID())
	a.Echo.Use(middleware.RequestLogger())
	a.Echo.Use(middleware.SecurityHeaders())
	a.Echo.Use(middleware.CSRF())
}

// errorHandler maps AppErrors and echo.HTTPErrors to responses: JSON for
// clients that ask for it, an HX-Redirect or 303 to /login for 401s, and
// the error page otherwise. HTMX errors retarget the body so the page is
// not swapped into a fragment.
func (a *App) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := defaultErrorMessage(code)

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		message = appErr.Message
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
		}
	case errors.As(err, &echoErr):
		code = echoErr.Code
		message = defaultErrorMessage(code)
		if msg, ok := echoErr.Message.(string); ok && code < http.StatusInternalServerError {
			message = msg
		}
		if code >= http.StatusInternalServerError {
			slog.Error("request failed",
				slog.Any("error", err),
				slog.String("path", c.Request().URL.Path),
			)
		}
	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
		)
	}

	if wantsJSON(c) {
		_ = c.JSON(code, map[string]string{
			"error":   http.StatusText(code),
			"message": message,
		})
		return
	}

	if middleware.IsHTMX(c) {
		if code == http.StatusUnauthorized {
			c.Response().Header().Set("HX-Redirect", "/login")
			_ = c.NoContent(http.StatusNoContent)
			return
		}
		c.Response().Header().Set("HX-Retarget", "body")
		c.Response().Header().Set("HX-Reswap", "innerHTML")
	}

	if code == http.StatusUnauthorized {
		_ = c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	if err := middleware.Render(c, code, pages.ErrorPage(code, message)); err != nil {
		slog.Error("rendering error page", slog.Any("error", err))
	}
}

// defaultErrorMessage returns a user-friendly message for common status codes.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "The request was invalid or cannot be processed."
	case http.StatusUnauthorized:
		return "You need to log in to access this page."
	case http.StatusForbidden:
		return "You don't have permission to access this resource."
	case http.StatusNotFound:
		return "The page you're looking for doesn't exist."
	case http.StatusMethodNotAllowed:
		return "This action is not allowed."
	case http.StatusUnprocessableEntity:
		return "The submitted data could not be processed."
	case http.StatusTooManyRequests:
		return "You're making too many requests. Please slow down."
	case http.StatusServiceUnavailable:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return "Something went wrong on our end. Please try again."
	}
}

// wantsJSON reports whether the client prefers a JSON error body.
func wantsJSON(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}

// Start begins listening for HTTP requests on the configured port. It
// returns http.ErrServerClosed after Shutdown.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting casa plugin server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}
