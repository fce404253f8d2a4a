package errors

import (
	"errors"
	"fmt"

	"github.com/Alturino/dashboard/internal/auth"
)

var (
	ErrEmailAlreadyUsed   = &auth.ProviderError{Message: "An account with this email already exists"}
	ErrInvalidCredentials = &auth.ProviderError{Message: "Invalid email or password"}
	ErrInvalidSignUp      = &auth.ProviderError{Message: "Please enter a valid email and a password of at least 6 characters"}

	ErrTokenInvalid   = fmt.Errorf("invalid token: %w", auth.ErrNoSession)
	ErrSessionRevoked = fmt.Errorf("session revoked: %w", auth.ErrNoSession)

	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("duplicate email")
)
