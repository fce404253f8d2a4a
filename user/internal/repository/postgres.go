package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	inErrors "github.com/Alturino/dashboard/user/internal/errors"
)

const uniqueViolation = "23505"

const insertUser = `
INSERT INTO users (id, email, password)
VALUES ($1, $2, $3)
RETURNING id, email, password, created_at, updated_at
`

const findByEmail = `
SELECT id, email, password, created_at, updated_at
FROM users
WHERE email = $1
`

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) InsertUser(c context.Context, param InsertUserParams) (User, error) {
	user := User{}
	err := r.pool.QueryRow(c, insertUser, param.ID, param.Email, param.Password).
		Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return User{}, fmt.Errorf("failed inserting user with error=%w", inErrors.ErrDuplicateEmail)
	}
	if err != nil {
		return User{}, fmt.Errorf("failed inserting user with error=%w", err)
	}
	return user, nil
}

func (r *PostgresRepository) FindByEmail(c context.Context, email string) (User, error) {
	user := User{}
	err := r.pool.QueryRow(c, findByEmail, email).
		Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("failed finding user with error=%w", inErrors.ErrUserNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("failed finding user with error=%w", err)
	}
	return user, nil
}
