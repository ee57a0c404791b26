// Package smtp sends outbound email for the plugin. The relay settings are
// read from the directory configuration record on every send and the stored
// password is decrypted at send time; plaintext credentials are never cached.
// The encrypted password is NEVER returned to the UI -- only a boolean
// indicating whether a password is configured.
package smtp

import (
	"errors"

	"github.com/keyxmakerx/casa-helloworld/internal/plugins/persistence"
)

// ErrConfigurationMissing means no SMTP settings are stored. Nothing is sent
// and no network connection is made.
var ErrConfigurationMissing = errors.New("smtp: settings not found")

// ErrConfigurationUnavailable means the settings store could not be read.
var ErrConfigurationUnavailable = errors.New("smtp: settings could not be loaded")

// ErrMessaging wraps any failure while composing or delivering a message:
// connection, TLS, authentication, or address errors.
var ErrMessaging = errors.New("smtp: messaging failure")

// Email is a single outbound message.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
}

// SMTPSettings is the admin view of the relay settings. The password is
// intentionally omitted -- HasPassword shows whether one is set.
type SMTPSettings struct {
	Configured       bool   `json:"configured"`
	Host             string `json:"host"`
	Port             int    `json:"port"`
	Username         string `json:"username"`
	HasPassword      bool   `json:"has_password"`
	RequiresSSL      bool   `json:"requires_ssl"`
	ServerTrust      bool   `json:"server_trust"`
	FromEmailAddress string `json:"from_email_address"`
}

// toSettings converts a stored configuration to the redacted admin view.
func toSettings(cfg *persistence.SMTPConfiguration) *SMTPSettings {
	if cfg == nil {
		return &SMTPSettings{Port: defaultSubmissionPort, RequiresSSL: true}
	}
	return &SMTPSettings{
		Configured:       true,
		Host:             cfg.Host,
		Port:             cfg.Port,
		Username:         cfg.Username,
		HasPassword:      cfg.HasPassword(),
		RequiresSSL:      cfg.RequiresSSL,
		ServerTrust:      cfg.ServerTrust,
		FromEmailAddress: cfg.FromEmailAddress,
	}
}

// UpdateSMTPRequest holds form data for updating SMTP settings.
// Password is optional -- empty means "keep existing".
type UpdateSMTPRequest struct {
	Host             string `json:"host" form:"host"`
	Port             int    `json:"port" form:"port"`
	Username         string `json:"username" form:"username"`
	Password         string `json:"password" form:"password"`
	RequiresSSL      bool   `json:"requires_ssl" form:"requires_ssl"`
	ServerTrust      bool   `json:"server_trust" form:"server_trust"`
	FromEmailAddress string `json:"from_email_address" form:"from_email_address"`
}

// TestEmailRequest is the admin "send a test message" form.
type TestEmailRequest struct {
	To string `json:"to" form:"to"`
}
