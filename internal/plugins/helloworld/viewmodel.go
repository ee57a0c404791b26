// Package helloworld is the sample Casa plugin page. Its view model exposes a
// free-text message, the organization's display name (loaded on demand), and
// a one-time password round trip delivered by email.
package helloworld

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"sync"
	"time"

	"github.com/keyxmakerx/casa-helloworld/internal/plugins/auth"
	"github.com/keyxmakerx/casa-helloworld/internal/plugins/persistence"
)

// Properties reported to subscribers.
const (
	PropertyMessage          = "message"
	PropertyOrganizationName = "organizationName"
)

// OrganizationProvider supplies the organization record. It is satisfied by
// persistence.PersistenceService.
type OrganizationProvider interface {
	GetOrganization(ctx context.Context) (*persistence.Organization, error)
}

// EmailSender sends an HTML email and reports success. It is satisfied by
// smtp.Notifier.
type EmailSender interface {
	SendEmail(ctx context.Context, recipient, subject, htmlBody string) bool
}

// Deps are the view model's collaborators.
type Deps struct {
	Organizations OrganizationProvider
	Mailer        EmailSender
	Session       auth.SessionContext
	OTP           OTPStore

	// OTPSubject is the subject line of one-time password emails.
	OTPSubject string
	// OTPTTL is shown to the user in the email body.
	OTPTTL time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// ViewModel backs the hello world page. Create one per request.
type ViewModel struct {
	deps   Deps
	logger *slog.Logger

	mu               sync.Mutex
	message          string
	organizationName string
	subscribers      []func(property string)
}

// New creates a view model. Call Init before use.
func New(deps Deps) *ViewModel {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewModel{deps: deps, logger: logger}
}

// Init runs once after construction.
func (vm *ViewModel) Init(ctx context.Context) {
	vm.logger.InfoContext(ctx, "hello world view model initialised")
	if user := vm.loggedUser(); user != nil {
		vm.logger.InfoContext(ctx, "hello world page opened",
			slog.String("user_id", user.UserID),
			slog.String("user_name", user.Name),
		)
	}
}

// Message returns the text typed on the page.
func (vm *ViewModel) Message() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.message
}

// SetMessage stores the text typed on the page.
func (vm *ViewModel) SetMessage(message string) {
	vm.mu.Lock()
	changed := vm.message != message
	vm.message = message
	vm.mu.Unlock()

	if changed {
		vm.notify(PropertyMessage)
	}
}

// OrganizationName returns the last loaded display name, or "" before
// LoadOrgName succeeds.
func (vm *ViewModel) OrganizationName() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.organizationName
}

// LoadOrgName fetches the organization's display name and notifies
// subscribers of PropertyOrganizationName. On error the previous name is
// kept and nobody is notified.
func (vm *ViewModel) LoadOrgName(ctx context.Context) error {
	vm.logger.DebugContext(ctx, "loading organization name", slog.String("message", vm.Message()))

	org, err := vm.deps.Organizations.GetOrganization(ctx)
	if err != nil {
		return fmt.Errorf("loading organization name: %w", err)
	}

	vm.mu.Lock()
	vm.organizationName = org.DisplayName
	vm.mu.Unlock()

	vm.notify(PropertyOrganizationName)
	return nil
}

// Subscribe registers fn to be called with the name of each changed
// property. Callbacks run synchronously on the goroutine making the change.
func (vm *ViewModel) Subscribe(fn func(property string)) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.subscribers = append(vm.subscribers, fn)
}

func (vm *ViewModel) notify(property string) {
	vm.mu.Lock()
	subs := append([]func(string){}, vm.subscribers...)
	vm.mu.Unlock()

	for _, fn := range subs {
		fn(property)
	}
}

// SendOTP issues a one-time password for the logged-in user and emails it.
// Returns false when nobody is logged in, the code cannot be stored, or the
// email is not sent.
func (vm *ViewModel) SendOTP(ctx context.Context) bool {
	user := vm.loggedUser()
	if user == nil {
		vm.logger.WarnContext(ctx, "one-time password requested without a logged-in user")
		return false
	}

	code, err := vm.deps.OTP.Issue(ctx, user.UserID)
	if err != nil {
		vm.logger.ErrorContext(ctx, "issuing one-time password",
			slog.String("user_id", user.UserID),
			slog.Any("error", err),
		)
		return false
	}

	body, err := renderOTPEmail(otpEmailData{
		Name:    user.Name,
		Code:    code,
		Minutes: int(vm.deps.OTPTTL.Minutes()),
	})
	if err != nil {
		vm.logger.ErrorContext(ctx, "rendering one-time password email", slog.Any("error", err))
		return false
	}

	return vm.deps.Mailer.SendEmail(ctx, user.Email, vm.deps.OTPSubject, body)
}

// VerifyOTP checks a code submitted by the logged-in user. ErrOTPNotFound is
// returned when no code is pending.
func (vm *ViewModel) VerifyOTP(ctx context.Context, code string) (bool, error) {
	user := vm.loggedUser()
	if user == nil {
		return false, errors.New("no logged-in user")
	}

	ok, err := vm.deps.OTP.Verify(ctx, user.UserID, code)
	if err != nil {
		return false, err
	}

	vm.logger.InfoContext(ctx, "one-time password checked",
		slog.String("user_id", user.UserID),
		slog.Bool("valid", ok),
	)
	return ok, nil
}

func (vm *ViewModel) loggedUser() *auth.Session {
	if vm.deps.Session == nil {
		return nil
	}
	return vm.deps.Session.LoggedUser()
}

type otpEmailData struct {
	Name    string
	Code    string
	Minutes int
}

var otpEmailTmpl = template.Must(template.New("otp-email").Parse(
	`<p>Hello{{if .Name}} {{.Name}}{{end}},</p>
<p>Your one-time password is <strong>{{.Code}}</strong>.</p>
{{if .Minutes}}<p>It expires in {{.Minutes}} minutes.</p>
{{end}}<p>If you did not request this code, you can ignore this message.</p>`))

func renderOTPEmail(data otpEmailData) (string, error) {
	var buf bytes.Buffer
	if err := otpEmailTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
