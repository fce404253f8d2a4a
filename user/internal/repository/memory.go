package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	inErrors "github.com/Alturino/dashboard/user/internal/errors"
)

// MemoryRepository keeps users for the lifetime of the process.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: map[string]User{}}
}

func (r *MemoryRepository) InsertUser(c context.Context, param InsertUserParams) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[param.Email]; ok {
		return User{}, fmt.Errorf("failed inserting user with error=%w", inErrors.ErrDuplicateEmail)
	}
	now := time.Now().UTC()
	user := User{
		ID:        param.ID,
		Email:     param.Email,
		Password:  param.Password,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.users[param.Email] = user
	return user, nil
}

func (r *MemoryRepository) FindByEmail(c context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[email]
	if !ok {
		return User{}, fmt.Errorf("failed finding user with error=%w", inErrors.ErrUserNotFound)
	}
	return user, nil
}
