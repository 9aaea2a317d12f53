package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
	errs "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/provider"
)

// Reconciler defaults
const (
	DefaultReconcileInterval = time.Minute
	DefaultStaleAfter        = 10 * time.Minute
	DefaultAbandonAfter      = 24 * time.Hour
	DefaultReconcileBatch    = 100
	DefaultReconcileWorkers  = 4
)

// Reconciliation outcomes
const (
	ReconcileCompleted = "completed"
	ReconcileFailed    = "failed"
	ReconcileAbandoned = "abandoned"
	ReconcileSkipped   = "skipped"
	ReconcileError     = "error"
)

// ReconcilerConfig controls how pending entries are swept
type ReconcilerConfig struct {
	Interval     time.Duration
	StaleAfter   time.Duration
	AbandonAfter time.Duration
	BatchSize    int
	Concurrency  int
}

// ReconcileReport summarizes one sweep
type ReconcileReport struct {
	Scanned   int
	Completed int
	Failed    int
	Abandoned int
	Skipped   int
	Errors    int
}

// Reconciler resolves pending entries whose flow was abandoned
type Reconciler struct {
	historyRepo  persistence.GenerationRepository
	provider     provider.ImageProvider
	finalizer    *Finalizer
	metrics      coreport.Metrics
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	cfg          ReconcilerConfig
}

// NewReconciler creates a new Reconciler
func NewReconciler(
	historyRepo persistence.GenerationRepository,
	imageProvider provider.ImageProvider,
	finalizer *Finalizer,
	cfg ReconcilerConfig,
	metrics coreport.Metrics,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultReconcileInterval
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.AbandonAfter <= 0 {
		cfg.AbandonAfter = DefaultAbandonAfter
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultReconcileBatch
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultReconcileWorkers
	}
	return &Reconciler{
		historyRepo:  historyRepo,
		provider:     imageProvider,
		finalizer:    finalizer,
		metrics:      metrics,
		timeProvider: timeProvider,
		logger:       logger,
		cfg:          cfg,
	}
}

// Run sweeps every interval until ctx is done
func (r *Reconciler) Run(ctx context.Context) error {
	r.logger.Info("Reconciler started", map[string]any{
		"interval":   r.cfg.Interval.String(),
		"staleAfter": r.cfg.StaleAfter.String(),
	})

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reconciler stopped", nil)
			return nil
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("Reconciliation sweep failed", map[string]any{
					"error": err.Error(),
				})
			}
		}
	}
}

// RunOnce resolves one batch of stale pending entries
func (r *Reconciler) RunOnce(ctx context.Context) (*ReconcileReport, error) {
	now := r.timeProvider.Now()
	stale, err := r.historyRepo.ListStalePending(ctx, now.Add(-r.cfg.StaleAfter), r.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{Scanned: len(stale)}
	if len(stale) == 0 {
		return report, nil
	}

	var completed, failed, abandoned, skipped, errored atomic.Int64
	// A plain group: one unresolved entry must not cancel the rest of the batch
	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)

	for _, gen := range stale {
		g.Go(func() error {
			outcome, err := r.resolve(ctx, gen, now)
			r.metrics.PendingReconciled(outcome)
			switch outcome {
			case ReconcileCompleted:
				completed.Add(1)
			case ReconcileFailed:
				failed.Add(1)
			case ReconcileAbandoned:
				abandoned.Add(1)
			case ReconcileSkipped:
				skipped.Add(1)
			default:
				errored.Add(1)
			}
			if err != nil {
				return fmt.Errorf("task %s: %w", gen.TaskID, err)
			}
			return nil
		})
	}
	firstErr := g.Wait()

	report.Completed = int(completed.Load())
	report.Failed = int(failed.Load())
	report.Abandoned = int(abandoned.Load())
	report.Skipped = int(skipped.Load())
	report.Errors = int(errored.Load())

	fields := map[string]any{
		"scanned":   report.Scanned,
		"completed": report.Completed,
		"failed":    report.Failed,
		"abandoned": report.Abandoned,
		"skipped":   report.Skipped,
		"errors":    report.Errors,
	}
	if firstErr != nil {
		// Unresolved entries stay pending and are retried on the next sweep
		fields["firstError"] = firstErr.Error()
		r.logger.Warn("Reconciliation sweep left entries unresolved", fields)
		return report, nil
	}
	r.logger.Info("Reconciliation sweep finished", fields)
	return report, nil
}

// resolve settles one pending entry against the provider
// The error is set only for the ReconcileError outcome
func (r *Reconciler) resolve(ctx context.Context, gen *entity.Generation, now time.Time) (string, error) {
	log := r.logger.With(map[string]any{"userId": gen.UserID, "taskId": gen.TaskID})
	expired := now.Sub(gen.CreatedAt) >= r.cfg.AbandonAfter

	task, err := r.provider.GetTask(ctx, gen.TaskID)
	if err != nil {
		var upstream *errs.UpstreamError
		if expired && errors.As(err, &upstream) && upstream.StatusCode == http.StatusNotFound {
			return r.fail(ctx, gen, ReconcileAbandoned, "task no longer known to provider")
		}
		log.Warn("Could not query pending task", map[string]any{"error": err.Error()})
		return ReconcileError, err
	}
	r.metrics.TaskPolled(string(task.Status))

	switch task.Status {
	case entity.RemoteStatusSucceeded:
		urls := entity.CleanImageURLs(task.ImageURLs)
		if len(urls) == 0 {
			return r.fail(ctx, gen, ReconcileFailed, "task succeeded without images")
		}
		if !r.finalizer.Complete(ctx, gen.UserID, gen.TaskID, urls) {
			return ReconcileSkipped, nil
		}
		return ReconcileCompleted, nil
	case entity.RemoteStatusFailed:
		return r.fail(ctx, gen, ReconcileFailed,
			errs.NewGenerationFailedError(gen.TaskID, task.Code, task.Message).Error())
	case entity.RemoteStatusPending, entity.RemoteStatusRunning:
		if expired {
			return r.fail(ctx, gen, ReconcileAbandoned, "task did not finish within the retention window")
		}
		return ReconcileSkipped, nil
	default:
		return r.fail(ctx, gen, ReconcileFailed,
			errs.NewUnknownTaskStateError(gen.TaskID, string(task.Status)).Error())
	}
}

func (r *Reconciler) fail(ctx context.Context, gen *entity.Generation, outcome, reason string) (string, error) {
	refunded, err := r.finalizer.Fail(ctx, FailRequest{
		UserID:   gen.UserID,
		TaskID:   gen.TaskID,
		Credits:  gen.CreditsUsed,
		Recorded: true,
		Reason:   reason,
	})
	if err != nil {
		return ReconcileError, err
	}
	if !refunded {
		return ReconcileSkipped, nil
	}
	return outcome, nil
}
