// Package audit records administrative actions: SMTP settings changes, relay
// tests, and console logins. Entries live in the audit_log table and are
// listed on the admin activity page.
//
// Recording never blocks the action being recorded; failures are logged.
package audit

import "time"

// Action names follow "resource.verb".
const (
	ActionSMTPUpdated  = "smtp.updated"
	ActionSMTPTested   = "smtp.tested"
	ActionSMTPTestSent = "smtp.test_sent"
	ActionLogin        = "auth.login"
)

// AuditEntry is one recorded action.
type AuditEntry struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"user_id"`
	Action    string         `json:"action"`
	RemoteIP  string         `json:"remote_ip,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`

	// UserName is joined from users at query time.
	UserName string `json:"user_name,omitempty"`
}

// Page is one page of the activity feed.
type Page struct {
	Entries []AuditEntry
	Total   int
	Page    int
	PerPage int
}

// HasNext reports whether another page follows.
func (p Page) HasNext() bool {
	return p.Page*p.PerPage < p.Total
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool {
	return p.Page > 1
}
