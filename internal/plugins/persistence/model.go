// Package persistence is the configuration provider for the plugin. It reads
// the organization record and the directory configuration records (which
// carry the SMTP settings) from MariaDB. Records are addressed by base DN so
// the shape matches the directory layout Casa administrators already know.
package persistence

import "time"

// Organization holds the organization-wide display settings.
type Organization struct {
	DisplayName string    `json:"display_name"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SMTPConfiguration holds the relay settings. Password is the ciphertext
// produced by the secret service, never plaintext.
type SMTPConfiguration struct {
	Host             string `json:"host"`
	Port             int    `json:"port"`
	Username         string `json:"username"`
	Password         string `json:"-"`
	RequiresSSL      bool   `json:"requires_ssl"`
	ServerTrust      bool   `json:"server_trust"`
	FromEmailAddress string `json:"from_email_address"`
}

// HasPassword reports whether an encrypted password is stored.
func (s *SMTPConfiguration) HasPassword() bool {
	return s != nil && s.Password != ""
}

// Configuration is a directory configuration record. SMTP is nil when the
// record exists but no relay has been configured.
type Configuration struct {
	BaseDN    string             `json:"base_dn"`
	SMTP      *SMTPConfiguration `json:"smtp,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// configurationRow is the raw database row. SMTP columns are nullable.
type configurationRow struct {
	BaseDN      string
	Host        *string
	Port        *int
	Username    *string
	Password    *string
	RequiresSSL *bool
	ServerTrust *bool
	FromAddress *string
	UpdatedAt   time.Time
}

// toConfiguration converts a row to the domain record. A NULL or empty host
// means "no SMTP configuration".
func (r *configurationRow) toConfiguration() Configuration {
	cfg := Configuration{BaseDN: r.BaseDN, UpdatedAt: r.UpdatedAt}
	if r.Host == nil || *r.Host == "" {
		return cfg
	}

	cfg.SMTP = &SMTPConfiguration{
		Host:             *r.Host,
		Port:             derefInt(r.Port),
		Username:         derefString(r.Username),
		Password:         derefString(r.Password),
		RequiresSSL:      derefBool(r.RequiresSSL),
		ServerTrust:      derefBool(r.ServerTrust),
		FromEmailAddress: derefString(r.FromAddress),
	}
	return cfg
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func derefBool(b *bool) bool {
	return b != nil && *b
}
