package health_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/db"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/infrastructure/health"
)

func TestRedisHealthChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checker := health.NewRedisHealthChecker(client)
	assert.Equal(t, "redis", checker.Name())
	assert.NoError(t, checker.Check(context.Background()))

	mr.Close()
	assert.Error(t, checker.Check(context.Background()))
}

func TestDBHealthChecker(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	mock.ExpectPing()
	checker := health.NewDBHealthChecker(db.Wrap(sqlx.NewDb(sqlDB, "postgres")))
	assert.Equal(t, "database", checker.Name())
	assert.NoError(t, checker.Check(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
