// Package database opens the MariaDB pool and Redis client shared by the
// plugins and applies schema migrations. Connections are created once at
// startup and handed to the plugins by the app package.
package database

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "mysql" driver.
	_ "github.com/go-sql-driver/mysql"

	"github.com/keyxmakerx/casa-helloworld/internal/config"
)

// NewMariaDB opens the pool and waits for the server to answer.
func NewMariaDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening mariadb connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := waitFor(ctx, "mariadb", db.PingContext); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
