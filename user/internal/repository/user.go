package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type InsertUserParams struct {
	ID       uuid.UUID
	Email    string
	Password string
}

// Repository stores users. InsertUser returns errors.ErrDuplicateEmail for a
// taken email and FindByEmail returns errors.ErrUserNotFound for none.
type Repository interface {
	InsertUser(c context.Context, param InsertUserParams) (User, error)
	FindByEmail(c context.Context, email string) (User, error)
}
