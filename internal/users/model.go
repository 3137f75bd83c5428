package users

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTaken              = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is a registered account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
