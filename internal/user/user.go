package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredentials = errors.New("email and password are required")
)

// User owns expenses and reconciliations. BaseCurrency is the default
// conversion target.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	BaseCurrency string
	CreatedAt    time.Time
}
