package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/keyxmakerx/casa-helloworld/internal/apperror"
)

// perPage is the number of entries shown per page on the activity page.
const perPage = 50

// AuditService handles business logic for the audit log.
type AuditService interface {
	// Log validates and persists an entry.
	Log(ctx context.Context, entry *AuditEntry) error

	// Record is the fire-and-forget form of Log used by other plugins.
	// Failures are logged, never returned.
	Record(ctx context.Context, userID, remoteIP, action string, details map[string]any)

	// Recent returns one page of the activity feed. Pages are 1-indexed.
	Recent(ctx context.Context, page int) (*Page, error)
}

// auditService implements AuditService.
type auditService struct {
	repo AuditRepository
}

// NewAuditService creates a new audit service with the given repository.
func NewAuditService(repo AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// Log validates and persists an audit entry.
func (s *auditService) Log(ctx context.Context, entry *AuditEntry) error {
	if entry.UserID == "" {
		return apperror.NewBadRequest("user ID is required for audit entry")
	}
	if entry.Action == "" {
		return apperror.NewBadRequest("action is required for audit entry")
	}

	if err := s.repo.Log(ctx, entry); err != nil {
		slog.Error("failed to write audit log entry",
			slog.String("user_id", entry.UserID),
			slog.String("action", entry.Action),
			slog.Any("error", err),
		)
		return apperror.NewInternal(fmt.Errorf("writing audit entry: %w", err))
	}
	return nil
}

// Record logs an entry and swallows the error. The request context may be
// cancelled once the response is written, so the write is detached from it.
func (s *auditService) Record(ctx context.Context, userID, remoteIP, action string, details map[string]any) {
	entry := &AuditEntry{UserID: userID, Action: action, RemoteIP: remoteIP, Details: details}
	if err := s.Log(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn("audit entry dropped",
			slog.String("action", action),
			slog.Any("error", err),
		)
	}
}

// Recent returns a page of the activity feed. Invalid pages are clamped to 1.
func (s *auditService) Recent(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}

	entries, total, err := s.repo.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing audit entries: %w", err))
	}
	return &Page{Entries: entries, Total: total, Page: page, PerPage: perPage}, nil
}
