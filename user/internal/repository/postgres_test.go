package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Alturino/dashboard/internal/config"
	"github.com/Alturino/dashboard/internal/infra"
	inErrors "github.com/Alturino/dashboard/user/internal/errors"
)

func TestPostgresRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	c := context.Background()

	pgContainer, err := postgres.Run(
		c,
		"postgres:16.6-alpine3.21",
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithDatabase("postgres"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed running postgres container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(c)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(c, "5432/tcp")
	require.NoError(t, err)

	cfg := config.Database{
		Name:          "postgres",
		Host:          host,
		Port:          uint16(port.Int()),
		Username:      "postgres",
		Password:      "postgres",
		MigrationPath: "file://../../../migrations",
	}
	pool, err := infra.NewDatabaseClient(c, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, infra.Migrate(c, pool, cfg, infra.MigrationUp))
	require.NoError(t, infra.Migrate(c, pool, cfg, infra.MigrationUp))

	repo := NewPostgresRepository(pool)
	id := uuid.New()

	inserted, err := repo.InsertUser(c, InsertUserParams{ID: id, Email: "a@b.co", Password: "hash"})
	require.NoError(t, err)
	assert.Equal(t, id, inserted.ID)
	assert.False(t, inserted.CreatedAt.IsZero())

	_, err = repo.InsertUser(c, InsertUserParams{ID: uuid.New(), Email: "a@b.co", Password: "hash"})
	assert.ErrorIs(t, err, inErrors.ErrDuplicateEmail)

	found, err := repo.FindByEmail(c, "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, inserted.ID, found.ID)
	assert.Equal(t, "hash", found.Password)

	_, err = repo.FindByEmail(c, "nobody@b.co")
	assert.ErrorIs(t, err, inErrors.ErrUserNotFound)
}
