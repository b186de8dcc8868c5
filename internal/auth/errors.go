package auth

import "errors"

// Registration errors
var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidUsername = errors.New("username must be between 3 and 100 characters")
	ErrWeakPassword    = errors.New("password must be at least 6 characters")
	ErrEmailTaken      = errors.New("email already registered")
)

// Login and lookup errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
