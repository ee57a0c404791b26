package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/casa-helloworld/internal/apperror"
)

// ConfigurationRepository handles database access for the organization and
// configuration records.
type ConfigurationRepository interface {
	// GetOrganization returns the singleton organization row (id=1).
	GetOrganization(ctx context.Context) (*Organization, error)

	// FindByBaseDN returns every configuration record stored under baseDN.
	FindByBaseDN(ctx context.Context, baseDN string) ([]configurationRow, error)

	// UpsertSMTP writes the SMTP columns of the record at baseDN, creating the
	// record if it does not exist.
	UpsertSMTP(ctx context.Context, baseDN string, smtp *SMTPConfiguration) error
}

// configurationRepository implements ConfigurationRepository with MariaDB.
type configurationRepository struct {
	db *sql.DB
}

// NewConfigurationRepository creates a new configuration repository.
func NewConfigurationRepository(db *sql.DB) ConfigurationRepository {
	return &configurationRepository{db: db}
}

// GetOrganization retrieves the singleton organization row.
func (r *configurationRepository) GetOrganization(ctx context.Context) (*Organization, error) {
	org := &Organization{}
	err := r.db.QueryRowContext(ctx,
		`SELECT display_name, updated_at FROM organization WHERE id = 1`,
	).Scan(&org.DisplayName, &org.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("organization not configured")
	}
	if err != nil {
		return nil, fmt.Errorf("querying organization: %w", err)
	}
	return org, nil
}

// FindByBaseDN lists configuration rows for a base DN. An empty slice means
// no record exists.
func (r *configurationRepository) FindByBaseDN(ctx context.Context, baseDN string) ([]configurationRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT base_dn, smtp_host, smtp_port, smtp_username, smtp_password,
		        smtp_requires_ssl, smtp_server_trust, smtp_from_address, updated_at
		 FROM configurations WHERE base_dn = ?`,
		baseDN,
	)
	if err != nil {
		return nil, fmt.Errorf("querying configurations: %w", err)
	}
	defer rows.Close()

	var result []configurationRow
	for rows.Next() {
		var row configurationRow
		if err := rows.Scan(
			&row.BaseDN, &row.Host, &row.Port, &row.Username, &row.Password,
			&row.RequiresSSL, &row.ServerTrust, &row.FromAddress, &row.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning configuration row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating configurations: %w", err)
	}
	return result, nil
}

// UpsertSMTP writes the SMTP settings for a configuration record.
func (r *configurationRepository) UpsertSMTP(ctx context.Context, baseDN string, smtp *SMTPConfiguration) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO configurations (base_dn, smtp_host, smtp_port, smtp_username,
		                             smtp_password, smtp_requires_ssl, smtp_server_trust,
		                             smtp_from_address)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE
		     smtp_host = VALUES(smtp_host),
		     smtp_port = VALUES(smtp_port),
		     smtp_username = VALUES(smtp_username),
		     smtp_password = VALUES(smtp_password),
		     smtp_requires_ssl = VALUES(smtp_requires_ssl),
		     smtp_server_trust = VALUES(smtp_server_trust),
		     smtp_from_address = VALUES(smtp_from_address)`,
		baseDN, smtp.Host, smtp.Port, smtp.Username, smtp.Password,
		smtp.RequiresSSL, smtp.ServerTrust, smtp.FromEmailAddress,
	)
	if err != nil {
		return fmt.Errorf("upserting smtp configuration: %w", err)
	}
	return nil
}
