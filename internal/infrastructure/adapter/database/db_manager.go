package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/database/migration"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/repository"
)

// ErrNotConnected is returned when the manager is used before Connect
var ErrNotConnected = errors.New("database is not connected")

// Manager manages database connections
type Manager struct {
	config            *Config
	db                *gorm.DB
	logger            coreport.Logger
	migrationMgr      *migration.MigrationManager
	connectionMonitor *ConnectionPoolMonitor
	timeProvider      coreport.TimeProvider
}

// NewManager creates a new database manager
func NewManager(config *Config, logger coreport.Logger, timeProvider coreport.TimeProvider) *Manager {
	return &Manager{
		config:       config,
		logger:       logger,
		timeProvider: timeProvider,
	}
}

// Connect establishes a database connection, retrying while the server is unreachable
func (m *Manager) Connect(ctx context.Context) (*gorm.DB, error) {
	m.logger.Info("Connecting to database", map[string]any{
		"driver": m.config.Driver,
		"host":   m.config.Host,
		"port":   m.config.Port,
		"name":   m.config.Database,
	})

	dialector, err := m.dialector()
	if err != nil {
		return nil, err
	}

	attempts := m.config.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	attempt := 0
	gormDB, err := backoff.Retry(ctx, func() (*gorm.DB, error) {
		attempt++
		db, openErr := gorm.Open(dialector, &gorm.Config{
			Logger:         NewDatabaseLogger(m.logger, m.timeProvider, m.config.LogLevel, m.config.SlowThreshold),
			NowFunc:        func() time.Time { return m.timeProvider.Now().UTC() },
			TranslateError: true,
		})
		if openErr == nil {
			openErr = pingDB(ctx, db)
		}
		if openErr != nil {
			m.logger.Warn("Failed to connect to database", map[string]any{
				"error":   openErr.Error(),
				"attempt": attempt,
				"of":      attempts,
			})
			return nil, openErr
		}
		return db, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(m.config.RetryDelay)),
		backoff.WithMaxTries(uint(attempts)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	maxOpen := m.config.MaxOpenConns
	if m.config.Driver == DriverSQLite {
		// sqlite allows a single writer
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(m.config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(m.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(m.config.ConnMaxIdleTime)

	m.logger.Info("Successfully connected to database", map[string]any{
		"driver":         m.config.Driver,
		"host":           m.config.Host,
		"name":           m.config.Database,
		"max_open_conns": maxOpen,
		"max_idle_conns": m.config.MaxIdleConns,
		"query_timeout":  m.config.QueryTimeout.String(),
		"attempts":       attempt,
	})

	m.db = gormDB
	m.migrationMgr = migration.NewMigrationManager(gormDB, m.logger, m.timeProvider)
	return m.db, nil
}

func (m *Manager) dialector() (gorm.Dialector, error) {
	switch m.config.Driver {
	case DriverPostgres:
		return postgres.Open(m.config.DSN()), nil
	case DriverSQLite:
		return sqlite.Open(m.config.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", m.config.Driver)
	}
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate brings the schema up to date
func (m *Manager) Migrate(ctx context.Context) error {
	if m.migrationMgr == nil {
		return ErrNotConnected
	}
	return m.migrationMgr.MigrateAll(ctx)
}

// StartMonitoring samples the connection pool until ctx is done; recorder may be nil
func (m *Manager) StartMonitoring(ctx context.Context, interval time.Duration, recorder PoolStatsRecorder) error {
	if m.db == nil {
		return ErrNotConnected
	}
	m.connectionMonitor = NewConnectionPoolMonitor(m, recorder, m.logger)
	return m.connectionMonitor.Start(ctx, interval)
}

// Ping checks that the database answers within the query timeout
func (m *Manager) Ping(ctx context.Context) error {
	if m.db == nil {
		return ErrNotConnected
	}
	ctx, cancel := m.WithTimeout(ctx)
	defer cancel()
	return pingDB(ctx, m.db)
}

// DB returns the GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	m.logger.Info("Closing database connection", nil)

	if m.connectionMonitor != nil {
		m.connectionMonitor.Stop()
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}

// WithTimeout returns a context with timeout for database operations
func (m *Manager) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return m.timeProvider.WithTimeout(ctx, m.config.QueryTimeout)
}

// CreateUnitOfWork creates a new UnitOfWork instance
func (m *Manager) CreateUnitOfWork() persistence.UnitOfWork {
	return NewUnitOfWork(m.db, m.logger, m.timeProvider)
}

// CreditRepository returns the non-transactional credit ledger
func (m *Manager) CreditRepository() *repository.CreditRepository {
	return repository.NewCreditRepository(m.db, m.timeProvider, m.logger)
}

// GenerationRepository returns the non-transactional history store
func (m *Manager) GenerationRepository() *repository.GenerationRepository {
	return repository.NewGenerationRepository(m.db, m.timeProvider, m.logger)
}

// MigrationManager returns the migration manager
func (m *Manager) MigrationManager() *migration.MigrationManager {
	return m.migrationMgr
}
