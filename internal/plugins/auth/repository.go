package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/casa-helloworld/internal/apperror"
)

// UserRepository reads console users.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository returns a UserRepository over db.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const (
	selectUser = `SELECT id, email, display_name, password_hash, is_admin, created_at, last_login_at
		FROM users`
	queryUserByID    = selectUser + ` WHERE id = ?`
	queryUserByEmail = selectUser + ` WHERE email = ?`
	touchLastLogin   = `UPDATE users SET last_login_at = UTC_TIMESTAMP() WHERE id = ?`
)

func (r *userRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, queryUserByID, id)
}

// FindByEmail expects email already lowercased.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, queryUserByEmail, email)
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, touchLastLogin, id); err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	return nil
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.LastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}
