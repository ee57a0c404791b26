package audit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/casa-helloworld/internal/apperror"
)

// mockAuditRepo implements AuditRepository for testing.
type mockAuditRepo struct {
	logFn  func(ctx context.Context, entry *AuditEntry) error
	listFn func(ctx context.Context, limit, offset int) ([]AuditEntry, int, error)
	logged []*AuditEntry
}

func (m *mockAuditRepo) Log(ctx context.Context, entry *AuditEntry) error {
	m.logged = append(m.logged, entry)
	if m.logFn != nil {
		return m.logFn(ctx, entry)
	}
	return nil
}

func (m *mockAuditRepo) List(ctx context.Context, limit, offset int) ([]AuditEntry, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, 0, nil
}

func assertAppError(t *testing.T, err error, code int) {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func TestLog_Validation(t *testing.T) {
	svc := NewAuditService(&mockAuditRepo{})

	assertAppError(t, svc.Log(context.Background(), &AuditEntry{Action: ActionSMTPUpdated}), http.StatusBadRequest)
	assertAppError(t, svc.Log(context.Background(), &AuditEntry{UserID: "u1"}), http.StatusBadRequest)
}

func TestLog_RepoError(t *testing.T) {
	repo := &mockAuditRepo{logFn: func(ctx context.Context, entry *AuditEntry) error {
		return errors.New("db down")
	}}
	err := NewAuditService(repo).Log(context.Background(), &AuditEntry{UserID: "u1", Action: ActionLogin})
	assertAppError(t, err, http.StatusInternalServerError)
}

func TestRecord(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Record(ctx, "u1", "192.0.2.1", ActionSMTPUpdated, map[string]any{"host": "smtp.example.com"})

	require.Len(t, repo.logged, 1)
	assert.Equal(t, "u1", repo.logged[0].UserID)
	assert.Equal(t, "192.0.2.1", repo.logged[0].RemoteIP)
	assert.Equal(t, ActionSMTPUpdated, repo.logged[0].Action)
	assert.Equal(t, "smtp.example.com", repo.logged[0].Details["host"])
}

func TestRecord_SwallowsErrors(t *testing.T) {
	repo := &mockAuditRepo{logFn: func(ctx context.Context, entry *AuditEntry) error {
		return errors.New("db down")
	}}
	assert.NotPanics(t, func() {
		NewAuditService(repo).Record(context.Background(), "u1", "", ActionLogin, nil)
	})
}

func TestRecent_Paging(t *testing.T) {
	var gotLimit, gotOffset int
	repo := &mockAuditRepo{listFn: func(ctx context.Context, limit, offset int) ([]AuditEntry, int, error) {
		gotLimit, gotOffset = limit, offset
		return []AuditEntry{{ID: 1}}, 120, nil
	}}
	svc := NewAuditService(repo)

	page, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 0, gotOffset)
	assert.Equal(t, perPage, gotLimit)
	assert.True(t, page.HasNext())
	assert.False(t, page.HasPrev())

	page, err = svc.Recent(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 100, gotOffset)
	assert.False(t, page.HasNext())
	assert.True(t, page.HasPrev())
}

func TestFormatDetails(t *testing.T) {
	assert.Equal(t, "", formatDetails(nil))
	assert.Equal(t, "host=smtp.example.com port=587", formatDetails(map[string]any{"port": 587, "host": "smtp.example.com"}))
}

func TestActivity_Handler(t *testing.T) {
	repo := &mockAuditRepo{listFn: func(ctx context.Context, limit, offset int) ([]AuditEntry, int, error) {
		return []AuditEntry{{ID: 7, UserName: "Admin", Action: ActionSMTPTested, Details: map[string]any{"ok": true}}}, 1, nil
	}}
	e := echo.New()
	e.GET("/admin/audit", NewHandler(NewAuditService(repo)).Activity)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/audit", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<code>smtp.tested</code>")
	assert.Contains(t, rec.Body.String(), "ok=true")

	req := httptest.NewRequest(http.MethodGet, "/admin/audit", nil)
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"action":"smtp.tested"`)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

func TestActivity_BadPageParam(t *testing.T) {
	var gotOffset int
	repo := &mockAuditRepo{listFn: func(ctx context.Context, limit, offset int) ([]AuditEntry, int, error) {
		gotOffset = offset
		return nil, 0, nil
	}}
	e := echo.New()
	e.GET("/admin/audit", NewHandler(NewAuditService(repo)).Activity)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/audit?page=abc", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, gotOffset)
}
