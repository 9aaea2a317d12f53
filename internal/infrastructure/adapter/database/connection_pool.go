package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
)

// poolSaturation is the in-use share of MaxOpenConnections that triggers a warning
const poolSaturation = 0.8

// PoolStatsRecorder receives every connection pool sample
type PoolStatsRecorder interface {
	RecordPoolStats(stats sql.DBStats)
}

// ConnectionPoolMonitor samples the connection pool and warns when it nears exhaustion
type ConnectionPoolMonitor struct {
	db       *Manager
	recorder PoolStatsRecorder // Optional
	logger   coreport.Logger

	mu       sync.RWMutex
	last     sql.DBStats
	sampled  bool
	stopOnce sync.Once
	stop     chan struct{}
}

// NewConnectionPoolMonitor creates a monitor; recorder may be nil
func NewConnectionPoolMonitor(db *Manager, recorder PoolStatsRecorder, logger coreport.Logger) *ConnectionPoolMonitor {
	return &ConnectionPoolMonitor{
		db:       db,
		recorder: recorder,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start takes a first sample, then samples every interval until ctx is done or Stop is called
func (m *ConnectionPoolMonitor) Start(ctx context.Context, interval time.Duration) error {
	if err := m.sample(); err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				if err := m.sample(); err != nil {
					m.logger.Error("Failed to sample connection pool", map[string]any{
						"error": err.Error(),
					})
				}
			}
		}
	}()
	return nil
}

// Stop ends sampling; safe to call more than once
func (m *ConnectionPoolMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Last returns the most recent sample and whether one was taken
func (m *ConnectionPoolMonitor) Last() (sql.DBStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.sampled
}

func (m *ConnectionPoolMonitor) sample() error {
	sqlDB, err := m.db.DB().DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	stats := sqlDB.Stats()

	m.mu.Lock()
	m.last, m.sampled = stats, true
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.RecordPoolStats(stats)
	}

	// A single-connection sqlite pool is always saturated while in use
	if stats.MaxOpenConnections > 1 && float64(stats.InUse) > float64(stats.MaxOpenConnections)*poolSaturation {
		m.logger.Warn("Database connection pool nearly exhausted", map[string]any{
			"in_use":     stats.InUse,
			"max_open":   stats.MaxOpenConnections,
			"idle":       stats.Idle,
			"wait_count": stats.WaitCount,
			"wait_time":  stats.WaitDuration.String(),
		})
	}
	return nil
}
