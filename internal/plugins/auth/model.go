// Package auth logs console users in and guards the plugin and admin routes.
// Users live in MariaDB with argon2id hashes; sessions are random tokens
// backed by Redis hashes.
package auth

import "time"

// User is a row of the users table.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// LoginRequest binds the login form.
type LoginRequest struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

// LoginInput is what Login checks.
type LoginInput struct {
	Email    string
	Password string
}

// Session is the logged-in user as seen by handlers.
type Session struct {
	UserID    string
	Email     string
	Name      string
	IsAdmin   bool
	CreatedAt time.Time
}
