//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"simreg/internal/domain"
	"simreg/internal/repository/postgres"
)

func newSlotRepo(t *testing.T) *postgres.SessionSlotRepo {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("simreg_db"),
		tcpostgres.WithUsername("simreg"),
		tcpostgres.WithPassword("simreg_secret"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://../../../db/migrations", dsn)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("migrate up: %v", err)
	}
	_, _ = m.Close()

	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return postgres.NewSessionSlotRepo(db)
}

func TestSessionSlotRepo_SaveLoadDelete(t *testing.T) {
	repo := newSlotRepo(t)
	ctx := context.Background()

	_, err := repo.Load(ctx, "simreg:session:w1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Save(ctx, "simreg:session:w1", "sealed-1", time.Hour))
	require.NoError(t, repo.Save(ctx, "simreg:session:w1", "sealed-2", time.Hour))

	v, err := repo.Load(ctx, "simreg:session:w1")
	require.NoError(t, err)
	assert.Equal(t, "sealed-2", v)

	require.NoError(t, repo.Delete(ctx, "simreg:session:w1"))
	_, err = repo.Load(ctx, "simreg:session:w1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionSlotRepo_Expiry(t *testing.T) {
	repo := newSlotRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "short", "v", 50*time.Millisecond))
	require.NoError(t, repo.Save(ctx, "forever", "v", 0))
	time.Sleep(200 * time.Millisecond)

	_, err := repo.Load(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	n, err := repo.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	v, err := repo.Load(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
