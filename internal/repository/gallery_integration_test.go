//go:build integration

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/facematch/internal/database"
	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

func setupIntegrationTest(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "facematch_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("postgres://test:test@%s:%s/facematch_test?sslmode=disable", host, port.Port())

	sqlDB, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	migrator, err := database.NewMigrator(sqlDB, "facematch_test")
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	_ = migrator.Close()

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup
}

func TestGalleryRepository_Integration(t *testing.T) {
	pool, cleanup := setupIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewGalleryRepository(pool)

	g, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())

	require.NoError(t, repo.Append(ctx, "zoe", domain.Embedding{1, 0, 0}))
	require.NoError(t, repo.Append(ctx, "adam", domain.Embedding{0, 1, 0}))
	require.NoError(t, repo.Append(ctx, "zoe", domain.Embedding{0, 0, 1}))

	g, err = repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"zoe", "adam"}, g.IDs())
	assert.Equal(t, []domain.Embedding{{1, 0, 0}, {0, 0, 1}}, g.Samples("zoe"))

	ids, samples, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ids)
	assert.Equal(t, 3, samples)
	assert.NoError(t, repo.Ping(ctx))
}
