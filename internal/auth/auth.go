// Package auth defines the boundary to the authentication provider and the
// per-request session state the dashboard screens observe.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoSession means the viewer is not signed in: the token is missing,
// invalid, expired or revoked.
var ErrNoSession = errors.New("no session")

type Session struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Provider interface {
	SignUp(c context.Context, email, password string) error
	SignIn(c context.Context, email, password string) (token string, session Session, err error)
	SignOut(c context.Context, token string) error
	// Session resolves a token. Errors wrapping ErrNoSession mean signed out;
	// any other error means the provider could not answer.
	Session(c context.Context, token string) (Session, error)
}

// ProviderError is a provider failure whose message is safe to show to the
// viewer.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// Message returns the viewer facing message carried by err, or fallback.
func Message(err error, fallback string) string {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) && providerErr.Message != "" {
		return providerErr.Message
	}
	return fallback
}
