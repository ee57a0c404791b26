package helloworld

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/casa-helloworld/internal/apperror"
	"github.com/keyxmakerx/casa-helloworld/internal/middleware"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/auth"
)

// Handler serves the hello world page. Each request gets its own view model
// built from the shared Deps and the request's session.
type Handler struct {
	deps Deps
}

// NewHandler creates a new hello world handler. deps.Session is ignored;
// the request session is used instead.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// messageForm is the page's text field.
type messageForm struct {
	Message string `form:"message"`
}

// otpForm is the verification form.
type otpForm struct {
	Code string `form:"code"`
}

func (h *Handler) viewModel(c echo.Context) *ViewModel {
	deps := h.deps
	deps.Session = auth.SessionContextOf(c)
	vm := New(deps)
	vm.Init(c.Request().Context())
	return vm
}

// Page renders the plugin page (GET /plugins/helloworld).
func (h *Handler) Page(c echo.Context) error {
	vm := h.viewModel(c)
	return middleware.Render(c, http.StatusOK, HelloWorldPage(pageData(c, vm, otpStatus{})))
}

// LoadOrgName handles the "load organization name" button
// (POST /plugins/helloworld/org-name). HTMX receives an HX-Trigger header
// naming each property that changed.
func (h *Handler) LoadOrgName(c echo.Context) error {
	var form messageForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	vm := h.viewModel(c)
	vm.SetMessage(strings.TrimSpace(form.Message))

	var changed []string
	vm.Subscribe(func(property string) {
		changed = append(changed, property)
	})

	if err := vm.LoadOrgName(c.Request().Context()); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("organization is not configured")
		}
		return apperror.NewInternal(err)
	}

	if len(changed) > 0 {
		c.Response().Header().Set("HX-Trigger", strings.Join(changed, ", "))
	}
	return h.render(c, pageData(c, vm, otpStatus{}))
}

// SendOTP emails a one-time password to the logged-in user
// (POST /plugins/helloworld/otp).
func (h *Handler) SendOTP(c echo.Context) error {
	vm := h.viewModel(c)

	status := otpStatus{Sent: true, Message: "A one-time password was sent to your email address."}
	if !vm.SendOTP(c.Request().Context()) {
		status = otpStatus{Error: "The one-time password could not be sent. Check the SMTP settings."}
	}
	return h.render(c, pageData(c, vm, status))
}

// VerifyOTP checks a submitted code (POST /plugins/helloworld/otp/verify).
func (h *Handler) VerifyOTP(c echo.Context) error {
	var form otpForm
	if err := c.Bind(&form); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	code := strings.TrimSpace(form.Code)
	if len(code) != otpDigits {
		vm := h.viewModel(c)
		return h.render(c, pageData(c, vm, otpStatus{Sent: true, Error: "Enter the 6-digit code from the email."}))
	}

	vm := h.viewModel(c)
	ok, err := vm.VerifyOTP(c.Request().Context(), code)

	var status otpStatus
	switch {
	case errors.Is(err, ErrOTPNotFound):
		status = otpStatus{Error: "No code is pending. Request a new one."}
	case err != nil:
		slog.Error("verifying one-time password", slog.Any("error", err))
		return apperror.NewInternal(err)
	case ok:
		status = otpStatus{Verified: true, Message: "Code verified."}
	default:
		status = otpStatus{Sent: true, Error: "That code is not valid."}
	}
	return h.render(c, pageData(c, vm, status))
}

// render sends the page section for HTMX and the full page otherwise.
func (h *Handler) render(c echo.Context, data helloWorldData) error {
	if middleware.IsHTMX(c) {
		return middleware.Render(c, http.StatusOK, HelloWorldSection(data))
	}
	return middleware.Render(c, http.StatusOK, HelloWorldPage(data))
}

func pageData(c echo.Context, vm *ViewModel, status otpStatus) helloWorldData {
	return helloWorldData{
		CSRFToken:        middleware.GetCSRFToken(c),
		Message:          vm.Message(),
		OrganizationName: vm.OrganizationName(),
		LoggedIn:         auth.GetSession(c) != nil,
		OTP:              status,
	}
}
