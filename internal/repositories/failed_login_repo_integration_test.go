//go:build integration
// +build integration

package repositories

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/BradenHooton/loginguard/internal/database"
	"github.com/BradenHooton/loginguard/internal/models"
	"github.com/BradenHooton/loginguard/internal/services"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *database.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("loginguard"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		panic("failed to start postgres container: " + err.Error())
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		panic("failed to get connection string: " + err.Error())
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		panic("failed to create connection pool: " + err.Error())
	}

	testDB = database.NewFromPool(pool, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	if err := testDB.Migrate(ctx); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		panic("failed to run migrations: " + err.Error())
	}

	code := m.Run()

	pool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func cleanup(t *testing.T) {
	t.Helper()
	_, err := testDB.Pool.Exec(context.Background(), "TRUNCATE TABLE bfp_failed_logins")
	require.NoError(t, err)
}

func TestPostgresRepo_LedgerScenario(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewFailedLoginRepository(testDB)

	clock := services.ClockFunc(func() time.Time { return time.Unix(10000, 0) })
	ledger := services.NewAttemptLedger(repo, clock, fixedWindow(300))

	for _, at := range []int64{9700, 9701, 9900, 9999} {
		require.NoError(t, ledger.RecordFailedAttempt(ctx, "alice", "1.2.3.4", at))
	}
	require.NoError(t, ledger.RecordFailedAttempt(ctx, "bob", "1.2.3.4", 9950))

	count, err := ledger.CountRecentAttempts(ctx, "alice", "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	last, err := ledger.LastAttemptTime(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, int64(9999), last)

	require.NoError(t, ledger.PurgeAttempts(ctx, "alice", "1.2.3.4"))
	require.NoError(t, ledger.PurgeAttempts(ctx, "alice", "1.2.3.4"))

	count, err = ledger.CountRecentAttempts(ctx, "alice", "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = ledger.CountRecentAttempts(ctx, "bob", "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPostgresRepo_LatestSinceNoRows(t *testing.T) {
	cleanup(t)
	repo := NewFailedLoginRepository(testDB)

	latest, found, err := repo.LatestSince(context.Background(), "1.2.3.4", 0)

	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, int64(0), latest)
}

func TestPostgresRepo_DeleteOlderThan(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewFailedLoginRepository(testDB)

	for _, at := range []int64{100, 200, 300} {
		require.NoError(t, repo.Insert(ctx, &models.FailedLoginAttempt{UID: "alice", IP: "1.2.3.4", AttemptedAt: at}))
	}

	removed, err := repo.DeleteOlderThan(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	count, err := repo.CountSince(ctx, "alice", "1.2.3.4", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPostgresRepo_UIDTooLongIsInvalidArgument(t *testing.T) {
	cleanup(t)
	repo := NewFailedLoginRepository(testDB)

	long := make([]byte, 80)
	for i := range long {
		long[i] = 'u'
	}

	err := repo.Insert(context.Background(), &models.FailedLoginAttempt{UID: string(long), IP: "1.2.3.4", AttemptedAt: 1})

	assert.ErrorIs(t, err, models.ErrStorageUnavailable)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestPostgresRepo_ClosedPoolIsStorageUnavailable(t *testing.T) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, testDB.Pool.Config().ConnString())
	require.NoError(t, err)
	pool.Close()

	repo := NewFailedLoginRepository(database.NewFromPool(pool, slog.New(slog.NewJSONHandler(io.Discard, nil))))

	_, err = repo.CountSince(ctx, "alice", "1.2.3.4", 0)
	assert.ErrorIs(t, err, models.ErrStorageUnavailable)
}
