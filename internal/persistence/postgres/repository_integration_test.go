//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/carbonlog/internal/domain"
)

func TestRepositoryFactorLifecycle(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepository(t, ctx)

	// Seed a verified row, then a pending submission for the same key.
	require.NoError(t, repo.UpsertVerified(ctx, domain.EmissionFactor{
		Key:          "beef",
		ActivityType: domain.ActivityFood,
		CO2ePerUnit:  15.5,
		Unit:         "serving",
	}))
	require.NoError(t, repo.Insert(ctx, domain.EmissionFactor{
		Key:          "beef",
		ActivityType: domain.ActivityFood,
		CO2ePerUnit:  12.0,
		Unit:         "serving",
		Status:       domain.FactorPending,
		AddedBy:      "priya",
	}))

	keys, err := repo.AllKeys(ctx)
	require.NoError(t, err)
	require.Contains(t, keys, "beef")

	// Wildcard lookup returns both rows, verified first.
	rows, err := repo.Find(ctx, "BEEF", "", "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, domain.FactorVerified, rows[0].Status)
	require.Equal(t, 15.5, rows[0].CO2ePerUnit)

	// Status and owner filters narrow as the resolver tiers expect.
	rows, err = repo.Find(ctx, "beef", domain.FactorPending, "priya")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 12.0, rows[0].CO2ePerUnit)

	rows, err = repo.Find(ctx, "beef", domain.FactorPending, "someone-else")
	require.NoError(t, err)
	require.Empty(t, rows)

	// Re-upserting a verified factor updates in place instead of duplicating.
	require.NoError(t, repo.UpsertVerified(ctx, domain.EmissionFactor{
		Key:          "beef",
		ActivityType: domain.ActivityFood,
		CO2ePerUnit:  14.0,
		Unit:         "serving",
	}))
	rows, err = repo.Find(ctx, "beef", domain.FactorVerified, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 14.0, rows[0].CO2ePerUnit)
}

func TestRepositoryUsers(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepository(t, ctx)

	user := domain.User{
		Username:     "priya",
		PasswordHash: "$2a$10$notarealhashbutlongenough0123456789",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.CreateUser(ctx, user))

	err := repo.CreateUser(ctx, user)
	require.ErrorIs(t, err, domain.ErrUsernameTaken)

	stored, err := repo.FindUser(ctx, "priya")
	require.NoError(t, err)
	require.Equal(t, user.PasswordHash, stored.PasswordHash)

	_, err = repo.FindUser(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func setupRepository(t *testing.T, ctx context.Context) (*Repository, *pgxpool.Pool) {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("carbonlog"),
		postgrescontainer.WithUsername("carbonlog"),
		postgrescontainer.WithPassword("carbonlog"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return NewRepository(pool), pool
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
