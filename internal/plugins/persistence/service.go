package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/keyxmakerx/casa-helloworld/internal/apperror"
)

// PersistenceService is the configuration provider other plugins consume.
type PersistenceService interface {
	// GetOrganization returns the organization display settings.
	GetOrganization(ctx context.Context) (*Organization, error)

	// Find returns every configuration record under baseDN.
	Find(ctx context.Context, baseDN string) ([]Configuration, error)

	// GetConfiguration returns the first record under the default base DN,
	// or nil (with no error) when none exists.
	GetConfiguration(ctx context.Context) (*Configuration, error)

	// SaveSMTPConfiguration stores SMTP settings on the default record. The
	// password must already be encrypted.
	SaveSMTPConfiguration(ctx context.Context, smtp *SMTPConfiguration) error
}

// persistenceService implements PersistenceService.
type persistenceService struct {
	repo   ConfigurationRepository
	baseDN string
}

// NewPersistenceService creates a configuration provider reading records
// under baseDN (normally config.DefaultConfigurationDN).
func NewPersistenceService(repo ConfigurationRepository, baseDN string) PersistenceService {
	return &persistenceService{repo: repo, baseDN: baseDN}
}

// GetOrganization returns the organization record.
func (s *persistenceService) GetOrganization(ctx context.Context) (*Organization, error) {
	org, err := s.repo.GetOrganization(ctx)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("loading organization: %w", err))
	}
	return org, nil
}

// Find lists configuration records under baseDN.
func (s *persistenceService) Find(ctx context.Context, baseDN string) ([]Configuration, error) {
	baseDN = strings.TrimSpace(baseDN)
	if baseDN == "" {
		return nil, apperror.NewBadRequest("base DN is required")
	}

	rows, err := s.repo.FindByBaseDN(ctx, baseDN)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("finding configurations under %s: %w", baseDN, err))
	}

	result := make([]Configuration, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toConfiguration())
	}
	return result, nil
}

// GetConfiguration returns the first configuration record, or nil.
func (s *persistenceService) GetConfiguration(ctx context.Context) (*Configuration, error) {
	configs, err := s.Find(ctx, s.baseDN)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		slog.Debug("no configuration record found", slog.String("base_dn", s.baseDN))
		return nil, nil
	}
	return &configs[0], nil
}

// SaveSMTPConfiguration validates and stores SMTP settings.
func (s *persistenceService) SaveSMTPConfiguration(ctx context.Context, smtp *SMTPConfiguration) error {
	if smtp == nil {
		return apperror.NewBadRequest("smtp configuration is required")
	}
	if strings.TrimSpace(smtp.Host) == "" {
		return apperror.NewValidation("SMTP host is required")
	}
	if smtp.Port <= 0 || smtp.Port > 65535 {
		return apperror.NewValidation("SMTP port must be between 1 and 65535")
	}
	if strings.TrimSpace(smtp.FromEmailAddress) == "" {
		return apperror.NewValidation("from address is required")
	}

	if err := s.repo.UpsertSMTP(ctx, s.baseDN, smtp); err != nil {
		return apperror.NewInternal(fmt.Errorf("saving smtp configuration: %w", err))
	}

	slog.Info("smtp configuration updated",
		slog.String("base_dn", s.baseDN),
		slog.String("host", smtp.Host),
		slog.Int("port", smtp.Port),
	)
	return nil
}
