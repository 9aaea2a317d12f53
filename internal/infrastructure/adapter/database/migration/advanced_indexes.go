package migration

import (
	"context"

	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"gorm.io/gorm"
)

// AdvancedIndexManager manages PostgreSQL-specific indexes; other dialects are skipped
type AdvancedIndexManager struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewAdvancedIndexManager creates a new advanced index manager
func NewAdvancedIndexManager(db *gorm.DB, logger coreport.Logger) *AdvancedIndexManager {
	return &AdvancedIndexManager{
		db:     db,
		logger: logger,
	}
}

func (m *AdvancedIndexManager) isPostgres() bool {
	return m.db.Dialector.Name() == "postgres"
}

// CreateAdvancedIndexes creates partial indexes for the history and reconciler queries
func (m *AdvancedIndexManager) CreateAdvancedIndexes(ctx context.Context) error {
	if !m.isPostgres() {
		m.logger.Debug("Skipping advanced indexes for non-PostgreSQL dialect", map[string]any{
			"dialect": m.db.Dialector.Name(),
		})
		return nil
	}
	m.logger.Info("Creating advanced PostgreSQL indexes", nil)

	statements := map[string]string{
		"idx_generations_completed_user": `
			CREATE INDEX IF NOT EXISTS idx_generations_completed_user
			ON generations (user_id, created_at DESC)
			WHERE status = 'completed'`,
		"idx_generations_pending_created": `
			CREATE INDEX IF NOT EXISTS idx_generations_pending_created
			ON generations (created_at)
			WHERE status = 'pending'`,
	}

	db := m.db.WithContext(ctx)
	for name, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			m.logger.Error("Failed to create index", map[string]any{
				"index": name,
				"error": err.Error(),
			})
			return err
		}
	}

	m.logger.Info("Advanced PostgreSQL indexes created successfully", nil)
	return nil
}

// CreatePerformanceTweaks applies PostgreSQL storage settings; failures are not fatal
func (m *AdvancedIndexManager) CreatePerformanceTweaks(ctx context.Context) {
	if !m.isPostgres() {
		return
	}
	m.logger.Info("Applying PostgreSQL performance tweaks", nil)

	// Balances are updated in place on every generation
	if err := m.db.WithContext(ctx).Exec(`ALTER TABLE credit_balances SET (fillfactor = 80)`).Error; err != nil {
		m.logger.Warn("Failed to set fillfactor for credit_balances table", map[string]any{
			"error": err.Error(),
		})
	}
}
