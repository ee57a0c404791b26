package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/casa-helloworld/internal/apperror"
)

// AuthService logs console users in and resolves session cookies.
type AuthService interface {
	Login(ctx context.Context, input LoginInput) (token string, user *User, err error)
	ValidateSession(ctx context.Context, token string) (*Session, error)
	DestroySession(ctx context.Context, token string) error
}

type authService struct {
	repo     UserRepository
	sessions *sessionStore
}

// NewAuthService returns an AuthService with sessions in rdb that live for
// sessionTTL.
func NewAuthService(repo UserRepository, rdb *redis.Client, sessionTTL time.Duration) AuthService {
	return &authService{
		repo:     repo,
		sessions: &sessionStore{rdb: rdb, ttl: sessionTTL},
	}
}

// errBadCredentials is shared by unknown emails and wrong passwords.
func errBadCredentials() error {
	return apperror.NewUnauthorized("invalid email or password")
}

// Login checks email and password and opens a session.
func (s *authService) Login(ctx context.Context, input LoginInput) (string, *User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.repo.FindByEmail(ctx, email)
	switch {
	case apperror.IsNotFound(err):
		return "", nil, errBadCredentials()
	case err != nil:
		return "", nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}
	if !verifyPassword(input.Password, user.PasswordHash) {
		return "", nil, errBadCredentials()
	}

	token, err := s.sessions.create(ctx, user)
	if err != nil {
		return "", nil, apperror.NewInternal(err)
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("failed to update last login", slog.String("user_id", user.ID), slog.Any("error", err))
	}
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return token, user, nil
}

// ValidateSession returns the session behind token.
func (s *authService) ValidateSession(ctx context.Context, token string) (*Session, error) {
	session, err := s.sessions.get(ctx, token)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if session == nil {
		return nil, apperror.NewUnauthorized("session expired or invalid")
	}
	return session, nil
}

// DestroySession deletes the session behind token.
func (s *authService) DestroySession(ctx context.Context, token string) error {
	if err := s.sessions.delete(ctx, token); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting session: %w", err))
	}
	return nil
}
