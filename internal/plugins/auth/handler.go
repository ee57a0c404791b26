package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/casa-helloworld/internal/apperror"
	"github.com/keyxmakerx/casa-helloworld/internal/middleware"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/audit"
)

// sessionCookieName is the HTTP cookie used to store the session token.
const sessionCookieName = "casa_session"

// homePath is where users land after logging in.
const homePath = "/plugins/helloworld"

// Handler handles HTTP requests for authentication (login, logout).
// Handlers are thin: they bind the request, call the service, and render the
// response. No business logic lives here.
type Handler struct {
	service   AuthService
	recorder  ActivityRecorder
	cookieTTL int
}

// ActivityRecorder receives successful logins for the audit log.
type ActivityRecorder interface {
	Record(ctx context.Context, userID, remoteIP, action string, details map[string]any)
}

// NewHandler creates a new auth handler. cookieMaxAge is in seconds and
// should match the session TTL. recorder may be nil.
func NewHandler(service AuthService, recorder ActivityRecorder, cookieMaxAge int) *Handler {
	return &Handler{service: service, recorder: recorder, cookieTTL: cookieMaxAge}
}

// LoginForm renders the login page (GET /login).
func (h *Handler) LoginForm(c echo.Context) error {
	if GetSession(c) != nil {
		return c.Redirect(http.StatusSeeOther, homePath)
	}

	csrfToken := middleware.GetCSRFToken(c)
	return middleware.Render(c, http.StatusOK, LoginPage(csrfToken, "", ""))
}

// Login processes the login form submission (POST /login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return h.renderLoginError(c, req.Email, "email and password are required")
	}

	token, user, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		errMsg := "invalid email or password"
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusUnauthorized {
			errMsg = appErr.Message
		}
		return h.renderLoginError(c, req.Email, errMsg)
	}

	h.setSessionCookie(c, token)
	if h.recorder != nil {
		h.recorder.Record(c.Request().Context(), user.ID, c.RealIP(), audit.ActionLogin, nil)
	}

	// HTMX requests get a redirect header; browser forms get a 303 redirect.
	if middleware.IsHTMX(c) {
		c.Response().Header().Set("HX-Redirect", homePath)
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, homePath)
}

// Logout destroys the session and clears the cookie (POST /logout).
func (h *Handler) Logout(c echo.Context) error {
	if token := getSessionToken(c); token != "" {
		// The cookie is cleared regardless.
		_ = h.service.DestroySession(c.Request().Context(), token)
	}

	clearSessionCookie(c)

	if middleware.IsHTMX(c) {
		c.Response().Header().Set("HX-Redirect", "/login")
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) renderLoginError(c echo.Context, email, errMsg string) error {
	csrfToken := middleware.GetCSRFToken(c)
	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, LoginFormComponent(csrfToken, email, errMsg))
	}
	return middleware.Render(c, http.StatusOK, LoginPage(csrfToken, email, errMsg))
}

// --- Cookie helpers ---

// getSessionToken reads the session token from the cookie.
func getSessionToken(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// setSessionCookie sets the session cookie on the response. The cookie is
// HttpOnly (JS can't read it), Secure if behind TLS, and SameSite=Lax.
func (h *Handler) setSessionCookie(c echo.Context, token string) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   h.cookieTTL,
	})
}

// clearSessionCookie removes the session cookie by setting MaxAge to -1.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
