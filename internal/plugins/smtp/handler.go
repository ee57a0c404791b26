package smtp

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/casa-helloworld/internal/apperror"
	"github.com/keyxmakerx/casa-helloworld/internal/middleware"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/audit"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/auth"
)

// Handler handles HTTP requests for SMTP settings management.
// Admin-only -- all routes require site admin middleware.
type Handler struct {
	service  SettingsService
	recorder ActivityRecorder
}

// ActivityRecorder receives admin actions for the audit log.
type ActivityRecorder interface {
	Record(ctx context.Context, userID, remoteIP, action string, details map[string]any)
}

// NewHandler creates a new SMTP handler. recorder may be nil.
func NewHandler(service SettingsService, recorder ActivityRecorder) *Handler {
	return &Handler{service: service, recorder: recorder}
}

// Settings renders the SMTP settings page (GET /admin/smtp).
func (h *Handler) Settings(c echo.Context) error {
	settings, err := h.service.GetSettings(c.Request().Context())
	if err != nil {
		return err
	}

	csrfToken := middleware.GetCSRFToken(c)
	return middleware.Render(c, http.StatusOK, SMTPSettingsPage(settings, csrfToken, "", ""))
}

// UpdateSettings saves SMTP settings (PUT /admin/smtp).
func (h *Handler) UpdateSettings(c echo.Context) error {
	var req UpdateSMTPRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if err := h.service.UpdateSettings(c.Request().Context(), req); err != nil {
		return h.respond(c, userMessage(err, "failed to save settings"), "")
	}
	h.record(c, audit.ActionSMTPUpdated, map[string]any{
		"host":             req.Host,
		"port":             req.Port,
		"password_changed": req.Password != "",
	})
	return h.respond(c, "", "Settings saved")
}

// TestConnection tests SMTP connectivity (POST /admin/smtp/test).
func (h *Handler) TestConnection(c echo.Context) error {
	err := h.service.TestConnection(c.Request().Context())
	h.record(c, audit.ActionSMTPTested, map[string]any{"ok": err == nil})
	if err != nil {
		return h.respond(c, userMessage(err, "connection failed"), "")
	}
	return h.respond(c, "", "Connection successful")
}

// SendTestEmail sends a test message (POST /admin/smtp/send-test).
func (h *Handler) SendTestEmail(c echo.Context) error {
	var req TestEmailRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	err := h.service.SendTestEmail(c.Request().Context(), req.To)
	h.record(c, audit.ActionSMTPTestSent, map[string]any{"to": req.To, "ok": err == nil})
	if err != nil {
		return h.respond(c, userMessage(err, "sending failed"), "")
	}
	return h.respond(c, "", "Test message sent to "+req.To)
}

// respond re-renders the form with feedback: a fragment for HTMX, the full
// page otherwise.
func (h *Handler) respond(c echo.Context, errMsg, successMsg string) error {
	settings, err := h.service.GetSettings(c.Request().Context())
	if err != nil {
		return err
	}
	csrfToken := middleware.GetCSRFToken(c)

	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, SMTPFormComponent(settings, csrfToken, errMsg, successMsg))
	}
	return middleware.Render(c, http.StatusOK, SMTPSettingsPage(settings, csrfToken, errMsg, successMsg))
}

func (h *Handler) record(c echo.Context, action string, details map[string]any) {
	if h.recorder == nil {
		return
	}
	h.recorder.Record(c.Request().Context(), auth.GetUserID(c), c.RealIP(), action, details)
}

// userMessage extracts the client-safe message from an AppError. Internal
// errors fall back to a generic message.
func userMessage(err error, fallback string) string {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return fallback
	}
	if appErr.Code == http.StatusInternalServerError {
		return fallback
	}
	return appErr.Message
}
