package helloworld

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/casa-helloworld/internal/apperror"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/auth"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/persistence"
)

// stubAuth accepts the session cookie "good" for testUser().
type stubAuth struct{}

func (stubAuth) Login(ctx context.Context, input auth.LoginInput) (string, *auth.User, error) {
	return "", nil, apperror.NewUnauthorized("invalid email or password")
}

func (stubAuth) ValidateSession(ctx context.Context, token string) (*auth.Session, error) {
	if token != "good" {
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}
	return testUser(), nil
}

func (stubAuth) DestroySession(ctx context.Context, token string) error { return nil }

func newTestServer(deps Deps) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.String(apperror.SafeCode(err), apperror.SafeMessage(err))
	}
	g := e.Group("/plugins/helloworld", auth.LoadSession(stubAuth{}), auth.RequireAuth())
	RegisterRoutes(g, NewHandler(deps))
	return e
}

func do(e *echo.Echo, method, target string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	req.AddCookie(&http.Cookie{Name: "casa_session", Value: "good"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Page(t *testing.T) {
	e := newTestServer(Deps{Organizations: &mockOrganizations{}, Mailer: &mockMailer{}, OTP: &mockOTPStore{}})

	rec := do(e, http.MethodGet, "/plugins/helloworld", nil, false)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<html")
	assert.Contains(t, rec.Body.String(), `id="helloworld"`)
	assert.Contains(t, rec.Body.String(), `<span id="organization-name"></span>`)
}

func TestHandler_PageRequiresLogin(t *testing.T) {
	e := newTestServer(Deps{Organizations: &mockOrganizations{}, Mailer: &mockMailer{}, OTP: &mockOTPStore{}})

	req := httptest.NewRequest(http.MethodGet, "/plugins/helloworld", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestHandler_LoadOrgName(t *testing.T) {
	e := newTestServer(Deps{Organizations: &mockOrganizations{}, Mailer: &mockMailer{}, OTP: &mockOTPStore{}})

	rec := do(e, http.MethodPost, "/plugins/helloworld/org-name", url.Values{"message": {"hello there"}}, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, PropertyOrganizationName, rec.Header().Get("HX-Trigger"))
	assert.NotContains(t, rec.Body.String(), "<html", "HTMX gets the fragment")
	assert.Contains(t, rec.Body.String(), `<span id="organization-name">Acme Corp</span>`)
	assert.Contains(t, rec.Body.String(), `value="hello there"`)
}

func TestHandler_LoadOrgName_NotConfigured(t *testing.T) {
	orgs := &mockOrganizations{
		getOrganizationFn: func(ctx context.Context) (*persistence.Organization, error) {
			return nil, apperror.NewNotFound("organization not found")
		},
	}
	e := newTestServer(Deps{Organizations: orgs, Mailer: &mockMailer{}, OTP: &mockOTPStore{}})

	rec := do(e, http.MethodPost, "/plugins/helloworld/org-name", url.Values{}, true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("HX-Trigger"))
}

func TestHandler_LoadOrgName_StoreError(t *testing.T) {
	orgs := &mockOrganizations{
		getOrganizationFn: func(ctx context.Context) (*persistence.Organization, error) {
			return nil, errors.New("connection reset")
		},
	}
	e := newTestServer(Deps{Organizations: orgs, Mailer: &mockMailer{}, OTP: &mockOTPStore{}})

	rec := do(e, http.MethodPost, "/plugins/helloworld/org-name", url.Values{}, true)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestHandler_SendOTP(t *testing.T) {
	mailer := &mockMailer{result: true}
	e := newTestServer(Deps{Organizations: &mockOrganizations{}, Mailer: mailer, OTP: &mockOTPStore{}, OTPSubject: "Code"})

	rec := do(e, http.MethodPost, "/plugins/helloworld/otp", url.Values{}, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "was sent to your email address")
	assert.Contains(t, rec.Body.String(), `name="code"`)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "jane@example.com", mailer.sent[0].recipient)
}

func TestHandler_SendOTP_Failure(t *testing.T) {
	e := newTestServer(Deps{Organizations: &mockOrganizations{}, Mailer: &mockMailer{result: false}, OTP: &mockOTPStore{}})

	rec := do(e, http.MethodPost, "/plugins/helloworld/otp", url.Values{}, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "could not be sent")
	assert.NotContains(t, rec.Body.String(), `name="code"`)
}

func TestHandler_VerifyOTP(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		verify func(ctx context.Context, userID, code string) (bool, error)
		want   string
		status int
	}{
		{name: "valid", code: "123456", want: "Code verified.", status: http.StatusOK},
		{name: "invalid", code: "654321", want: "That code is not valid.", status: http.StatusOK},
		{name: "malformed", code: "12ab", want: "Enter the 6-digit code", status: http.StatusOK},
		{
			name: "none pending",
			code: "123456",
			verify: func(ctx context.Context, userID, code string) (bool, error) {
				return false, ErrOTPNotFound
			},
			want:   "No code is pending",
			status: http.StatusOK,
		},
		{
			name: "store error",
			code: "123456",
			verify: func(ctx context.Context, userID, code string) (bool, error) {
				return false, errors.New("redis down")
			},
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			otp := &mockOTPStore{verifyFn: tt.verify}
			e := newTestServer(Deps{Organizations: &mockOrganizations{}, Mailer: &mockMailer{}, OTP: otp})

			rec := do(e, http.MethodPost, "/plugins/helloworld/otp/verify", url.Values{"code": {tt.code}}, true)

			assert.Equal(t, tt.status, rec.Code)
			if tt.want != "" {
				assert.Contains(t, rec.Body.String(), tt.want)
			}
		})
	}
}
