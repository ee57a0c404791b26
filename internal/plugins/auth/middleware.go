package auth

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/casa-helloworld/internal/apperror"
)

// contextKeySession stores the validated session in the Echo context. Other
// plugins read it through GetSession or SessionContextOf.
const contextKeySession = "auth_session"

// LoadSession returns middleware that validates the session cookie when one
// is present and stores the session in the request context. Requests without
// a valid session pass through unauthenticated.
func LoadSession(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := getSessionToken(c)
			if token == "" {
				return next(c)
			}

			session, err := service.ValidateSession(c.Request().Context(), token)
			if err != nil {
				if apperror.SafeCode(err) != http.StatusUnauthorized {
					slog.Warn("session lookup failed", slog.Any("error", err))
				}
				// Invalid or expired session -- clear the stale cookie.
				clearSessionCookie(c)
				return next(c)
			}

			c.Set(contextKeySession, session)
			return next(c)
		}
	}
}

// RequireAuth returns middleware that rejects requests without a session.
// LoadSession must run first. Browsers are redirected to /login, HTMX gets
// an HX-Redirect header.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetSession(c) == nil {
				return handleUnauthenticated(c)
			}
			return next(c)
		}
	}
}

// RequireAdmin returns middleware that allows only site admins. It implies
// RequireAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := GetSession(c)
			if session == nil {
				return handleUnauthenticated(c)
			}
			if !session.IsAdmin {
				return apperror.NewForbidden("administrator access required")
			}
			return next(c)
		}
	}
}

// handleUnauthenticated returns the appropriate response for unauthenticated
// requests.
func handleUnauthenticated(c echo.Context) error {
	if isHTMXRequest(c) {
		c.Response().Header().Set("HX-Redirect", "/login")
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

// --- Exported accessors for other plugins ---

// GetSession retrieves the authenticated session from the Echo context.
// Returns nil if the request is not authenticated.
func GetSession(c echo.Context) *Session {
	session, ok := c.Get(contextKeySession).(*Session)
	if !ok {
		return nil
	}
	return session
}

// GetUserID retrieves the authenticated user's ID from the Echo context.
// Returns empty string if the request is not authenticated.
func GetUserID(c echo.Context) string {
	if session := GetSession(c); session != nil {
		return session.UserID
	}
	return ""
}

// SessionContext exposes the logged-in user, or nil when nobody is logged in.
type SessionContext interface {
	LoggedUser() *Session
}

// requestSession is the SessionContext of one HTTP request.
type requestSession struct {
	c echo.Context
}

func (r requestSession) LoggedUser() *Session {
	return GetSession(r.c)
}

// SessionContextOf returns the session context for a request.
func SessionContextOf(c echo.Context) SessionContext {
	return requestSession{c: c}
}

// StaticSession is a fixed SessionContext for code running outside a
// request, such as the CLI.
type StaticSession struct {
	Session *Session
}

// LoggedUser returns the fixed session.
func (s StaticSession) LoggedUser() *Session {
	return s.Session
}

// isHTMXRequest returns true if the request was made by HTMX.
func isHTMXRequest(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}
