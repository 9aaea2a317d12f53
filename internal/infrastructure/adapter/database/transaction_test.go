package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/logger"
)

func TestUnitOfWork_CommitAppliesBothWrites(t *testing.T) {
	testDB := NewTestDBManager(t, logger.NewNoopLogger())
	uow := testDB.Manager.CreateUnitOfWork()
	ctx := context.Background()

	_, err := testDB.Manager.CreditRepository().Add(ctx, "user-1", 3)
	require.NoError(t, err)
	gen, err := entity.NewPendingGeneration("gen-1", "user-1", "a fox", "task-1", 1, testDB.TimeProvider)
	require.NoError(t, err)
	require.NoError(t, testDB.Manager.GenerationRepository().CreatePending(ctx, gen))

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	failed, err := uow.GetGenerationRepository(txCtx).MarkFailed(txCtx, "task-1", "user-1", "failed")
	require.NoError(t, err)
	require.True(t, failed)
	_, err = uow.GetCreditRepository(txCtx).Add(txCtx, "user-1", 1)
	require.NoError(t, err)
	require.NoError(t, uow.Commit(txCtx))

	credits, err := testDB.Manager.CreditRepository().Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), credits)

	got, err := testDB.Manager.GenerationRepository().GetByTaskID(ctx, "task-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, got.Status)

	assert.NoError(t, uow.Rollback(txCtx), "rolling back a committed transaction is tolerated")
}

func TestUnitOfWork_RollbackDiscardsWrites(t *testing.T) {
	testDB := NewTestDBManager(t, logger.NewNoopLogger())
	uow := testDB.Manager.CreateUnitOfWork()
	ctx := context.Background()

	_, err := testDB.Manager.CreditRepository().Add(ctx, "user-1", 3)
	require.NoError(t, err)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	_, err = uow.GetCreditRepository(txCtx).Add(txCtx, "user-1", 10)
	require.NoError(t, err)
	require.NoError(t, uow.Rollback(txCtx))

	credits, err := testDB.Manager.CreditRepository().Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), credits)
}

func TestUnitOfWork_RequiresTransactionInContext(t *testing.T) {
	testDB := NewTestDBManager(t, logger.NewNoopLogger())
	uow := testDB.Manager.CreateUnitOfWork()

	assert.ErrorIs(t, uow.Commit(context.Background()), ErrNoTransaction)
	assert.ErrorIs(t, uow.Rollback(context.Background()), ErrNoTransaction)
}

func TestManager_PingAndMigrateAreIdempotent(t *testing.T) {
	testDB := NewTestDBManager(t, logger.NewNoopLogger())
	ctx := context.Background()

	require.NoError(t, testDB.Manager.Ping(ctx))
	require.NoError(t, testDB.Manager.Migrate(ctx))

	version, err := testDB.Manager.MigrationManager().GetCurrentVersion(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, version)
}

type poolRecorder struct{ samples []sql.DBStats }

func (r *poolRecorder) RecordPoolStats(stats sql.DBStats) { r.samples = append(r.samples, stats) }

func TestManager_StartMonitoringRecordsFirstSample(t *testing.T) {
	testDB := NewTestDBManager(t, logger.NewNoopLogger())
	rec := &poolRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, testDB.Manager.StartMonitoring(ctx, time.Hour, rec))

	require.Len(t, rec.samples, 1)
	assert.Equal(t, 1, rec.samples[0].MaxOpenConnections)
	stats, ok := testDB.Manager.connectionMonitor.Last()
	assert.True(t, ok)
	assert.Equal(t, rec.samples[0], stats)
}

func TestManager_NotConnected(t *testing.T) {
	m := NewManager(&Config{Driver: DriverSQLite}, logger.NewNoopLogger(), nil)

	assert.ErrorIs(t, m.Ping(context.Background()), ErrNotConnected)
	assert.ErrorIs(t, m.Migrate(context.Background()), ErrNotConnected)
	assert.NoError(t, m.Close())
}

func TestConfig_Validate(t *testing.T) {
	valid := &Config{
		Driver:       DriverPostgres,
		Host:         "localhost",
		Port:         5432,
		Username:     "imagegen",
		Database:     "imagegen",
		SSLMode:      "disable",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		QueryTimeout: 1,
		LogLevel:     "warn",
	}
	require.NoError(t, valid.Validate())
	assert.Equal(t, "host=localhost port=5432 user=imagegen password= dbname=imagegen sslmode=disable", valid.DSN())

	badPort := *valid
	badPort.Port = 0
	assert.Error(t, badPort.Validate())

	badDriver := *valid
	badDriver.Driver = "mysql"
	assert.Error(t, badDriver.Validate())

	sqliteConfig := &Config{
		Driver:       DriverSQLite,
		Database:     "imagegen.db",
		MaxOpenConns: 1,
		QueryTimeout: 1,
		LogLevel:     "silent",
	}
	require.NoError(t, sqliteConfig.Validate())
	assert.Equal(t, "imagegen.db", sqliteConfig.DSN())

	assert.Error(t, valid.WithQueryTimeout(0).Validate())
}

func TestExtractTableName(t *testing.T) {
	assert.Equal(t, "credit_balances", extractTableName(`SELECT credits FROM "credit_balances" WHERE user_id = 'u'`))
	assert.Equal(t, "generations", extractTableName(`UPDATE "generations" SET status='failed'`))
	assert.Equal(t, "generations", extractTableName(`INSERT INTO generations (id) VALUES ('x')`))
	assert.Equal(t, "", extractTableName("BEGIN"))
	assert.Equal(t, "UPDATE", extractQueryType("update generations set x = 1"))
}
