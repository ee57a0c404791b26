package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"

	// Reads migration files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations brings the schema at db up to the newest file in
// migrationsPath. A database left dirty by a failed migration is refused
// until an operator forces the version.
func RunMigrations(db *sql.DB, migrationsPath string) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	from, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		from = 0
	case err != nil:
		return fmt.Errorf("reading schema version: %w", err)
	case dirty:
		return fmt.Errorf("schema version %d is dirty, fix it and run migrate force", from)
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("schema up to date", slog.Uint64("version", uint64(from)))
		return nil
	}
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	to, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	slog.Info("schema migrated", slog.Uint64("from", uint64(from)), slog.Uint64("to", uint64(to)))
	return nil
}
