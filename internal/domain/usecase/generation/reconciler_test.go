package generation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
	errs "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/metrics"
	providermocks "github.com/amirhossein-jamali/imagegen/mocks/port/provider"
)

func newTestReconciler(t *testing.T, store *memoryStore, p *providermocks.MockImageProvider) *Reconciler {
	clock := newTestClock(t)
	log := logger.NewNoopLogger()
	finalizer := NewFinalizer(store, store, store, newQuietPublisher(t), metrics.NewNoop(), clock, log)
	return NewReconciler(store, p, finalizer, ReconcilerConfig{
		StaleAfter:   10 * time.Minute,
		AbandonAfter: 24 * time.Hour,
		BatchSize:    10,
		Concurrency:  2,
	}, metrics.NewNoop(), clock, log)
}

func TestReconciler_RunOnce(t *testing.T) {
	ctx := context.Background()
	stale := fixedNow.Add(-time.Hour)

	t.Run("should resolve stale entries against the provider", func(t *testing.T) {
		// Arrange
		store := newMemoryStore()
		store.balances["user-1"] = 2
		store.seedPending("user-1", "done", stale)
		store.seedPending("user-1", "broken", stale.Add(time.Second))
		store.seedPending("user-1", "running", stale.Add(2*time.Second))
		store.seedPending("user-1", "fresh", fixedNow.Add(-time.Minute))

		p := providermocks.NewMockImageProvider(t)
		p.On("GetTask", mock.Anything, "done").Return(remote("done", entity.RemoteStatusSucceeded, "u1"), nil).Once()
		p.On("GetTask", mock.Anything, "broken").Return(remote("broken", entity.RemoteStatusFailed), nil).Once()
		p.On("GetTask", mock.Anything, "running").Return(remote("running", entity.RemoteStatusRunning), nil).Once()

		// Act
		report, err := newTestReconciler(t, store, p).RunOnce(ctx)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 3, report.Scanned)
		assert.Equal(t, 1, report.Completed)
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, 1, report.Skipped)
		assert.Equal(t, entity.StatusCompleted, store.generation("done").Status)
		assert.Equal(t, entity.StatusFailed, store.generation("broken").Status)
		assert.Equal(t, entity.StatusPending, store.generation("running").Status)
		assert.Equal(t, entity.StatusPending, store.generation("fresh").Status)
		assert.Equal(t, int64(3), store.balance("user-1"))
	})

	t.Run("should abandon entries past the retention window", func(t *testing.T) {
		store := newMemoryStore()
		store.seedPending("user-1", "ancient", fixedNow.Add(-48*time.Hour))
		store.seedPending("user-1", "gone", fixedNow.Add(-30*time.Hour))

		p := providermocks.NewMockImageProvider(t)
		p.On("GetTask", mock.Anything, "ancient").Return(remote("ancient", entity.RemoteStatusPending), nil).Once()
		p.On("GetTask", mock.Anything, "gone").
			Return(nil, errs.NewUpstreamError("query task", 404, "NotFound", "task not found")).Once()

		report, err := newTestReconciler(t, store, p).RunOnce(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, report.Abandoned)
		assert.Equal(t, int64(2), store.balance("user-1"))
	})

	t.Run("should leave entries alone when the provider is unreachable", func(t *testing.T) {
		store := newMemoryStore()
		store.seedPending("user-1", "T1", stale)

		p := providermocks.NewMockImageProvider(t)
		p.On("GetTask", mock.Anything, "T1").Return(nil, errs.NewUpstreamError("query task", 0, "", "dial tcp")).Once()

		report, err := newTestReconciler(t, store, p).RunOnce(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, report.Errors)
		assert.Equal(t, entity.StatusPending, store.generation("T1").Status)
		assert.Equal(t, int64(0), store.balance("user-1"))
	})

	t.Run("should report the first unresolved error in the sweep log", func(t *testing.T) {
		store := newMemoryStore()
		store.seedPending("user-1", "T1", stale)
		store.seedPending("user-1", "T2", stale.Add(time.Second))

		p := providermocks.NewMockImageProvider(t)
		p.On("GetTask", mock.Anything, "T1").Return(nil, errs.NewUpstreamError("query task", 503, "", "busy")).Once()
		p.On("GetTask", mock.Anything, "T2").Return(remote("T2", entity.RemoteStatusSucceeded, "u1"), nil).Once()

		obsCore, logs := observer.New(zap.DebugLevel)
		log := logger.NewFromZap(zap.New(obsCore), coreport.LogLevelDebug)
		clock := newTestClock(t)
		finalizer := NewFinalizer(store, store, store, newQuietPublisher(t), metrics.NewNoop(), clock, log)
		r := NewReconciler(store, p, finalizer, ReconcilerConfig{Concurrency: 1}, metrics.NewNoop(), clock, log)

		report, err := r.RunOnce(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, report.Errors)
		assert.Equal(t, 1, report.Completed)
		entries := logs.FilterMessage("Reconciliation sweep left entries unresolved").All()
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].ContextMap()["firstError"], "task T1")
	})

	t.Run("should do nothing without stale entries", func(t *testing.T) {
		store := newMemoryStore()
		p := providermocks.NewMockImageProvider(t)

		report, err := newTestReconciler(t, store, p).RunOnce(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, report.Scanned)
	})
}

func TestReconciler_Run(t *testing.T) {
	t.Run("should stop when the context is canceled", func(t *testing.T) {
		store := newMemoryStore()
		p := providermocks.NewMockImageProvider(t)
		r := newTestReconciler(t, store, p)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.NoError(t, r.Run(ctx))
	})
}
