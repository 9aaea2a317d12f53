package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
	errs "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/event"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/persistence"
)

// DefaultFinalizeTimeout bounds the ledger and history writes of one finalization
const DefaultFinalizeTimeout = 10 * time.Second

// FailRequest identifies a generation whose credits must be returned
type FailRequest struct {
	UserID   string
	TaskID   string
	Credits  int64
	Recorded bool // A pending history entry was confirmed for the task
	Reason   string
}

// Finalizer applies terminal transitions; any number of actors may finalize the same task
type Finalizer struct {
	uow          persistence.UnitOfWork
	creditRepo   persistence.CreditRepository
	historyRepo  persistence.GenerationRepository
	publisher    event.Publisher
	metrics      coreport.Metrics
	timeProvider coreport.TimeProvider
	timeout      time.Duration
	logger       coreport.Logger
}

// NewFinalizer creates a new Finalizer
func NewFinalizer(
	uow persistence.UnitOfWork,
	creditRepo persistence.CreditRepository,
	historyRepo persistence.GenerationRepository,
	publisher event.Publisher,
	metrics coreport.Metrics,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Finalizer {
	return &Finalizer{
		uow:          uow,
		creditRepo:   creditRepo,
		historyRepo:  historyRepo,
		publisher:    publisher,
		metrics:      metrics,
		timeProvider: timeProvider,
		timeout:      DefaultFinalizeTimeout,
		logger:       logger,
	}
}

// Complete moves the pending entry to completed; the credit stays consumed
// History failures are logged and reported as false, never as an error to the caller
func (f *Finalizer) Complete(ctx context.Context, userID, taskID string, urls []string) bool {
	ctx, cancel := f.detach(ctx)
	defer cancel()

	transitioned, err := f.historyRepo.MarkCompleted(ctx, taskID, userID, entity.CleanImageURLs(urls))
	if err != nil {
		f.logger.Error("Failed to mark generation completed", map[string]any{
			"userId": userID,
			"taskId": taskID,
			"error":  err.Error(),
		})
		return false
	}
	if !transitioned {
		f.logger.Warn("No pending generation to complete", map[string]any{
			"userId": userID,
			"taskId": taskID,
		})
		return false
	}

	f.publish(ctx, event.GenerationEvent{
		Type:      event.EventCompleted,
		UserID:    userID,
		TaskID:    taskID,
		ImageURLs: urls,
	})
	return true
}

// Fail refunds the credits and moves the pending entry to failed, exactly once per task
// The conditional transition and the refund commit together, and the refund only happens
// if this call performed the transition. A task that has no entry at all is refunded in the
// same unit of work; one without a task id never reached the provider and is refunded directly.
func (f *Finalizer) Fail(ctx context.Context, req FailRequest) (bool, error) {
	ctx, cancel := f.detach(ctx)
	defer cancel()

	var (
		refunded bool
		err      error
	)
	if req.TaskID == "" {
		var balance int64
		balance, err = f.creditRepo.Add(ctx, req.UserID, req.Credits)
		if err == nil {
			refunded = true
			f.recordRefund(req, balance)
		}
	} else {
		refunded, err = f.failTask(ctx, req)
	}

	if err != nil {
		genErr := &errs.GenerationError{TaskID: req.TaskID, UserID: req.UserID, Stage: "refund", Err: err}
		fields := genErr.LogFields()
		fields["credits"] = req.Credits
		f.logger.Error("Refund failed, manual reconciliation required", fields)
		return false, fmt.Errorf("%w: %w", errs.ErrPersistence, genErr)
	}

	if refunded {
		f.publish(ctx, event.GenerationEvent{
			Type:   event.EventRefunded,
			UserID: req.UserID,
			TaskID: req.TaskID,
			Reason: req.Reason,
		})
	}
	return refunded, nil
}

func (f *Finalizer) failTask(ctx context.Context, req FailRequest) (refunded bool, err error) {
	txCtx, err := f.uow.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			if rbErr := f.uow.Rollback(txCtx); rbErr != nil {
				f.logger.Warn("Rollback after failed finalization failed", map[string]any{
					"taskId": req.TaskID,
					"error":  rbErr.Error(),
				})
			}
		}
	}()

	historyRepo := f.uow.GetGenerationRepository(txCtx)
	transitioned, err := historyRepo.MarkFailed(txCtx, req.TaskID, req.UserID, req.Reason)
	if err != nil {
		return false, err
	}
	if !transitioned {
		// An entry that exists was finalized by another actor and its outcome stands.
		// The pending write may have committed even when it reported an error, so
		// an unrecorded submission is only refunded once the entry is known to be absent.
		if req.Recorded {
			return false, f.skipFinalized(txCtx, req)
		}
		_, lookupErr := historyRepo.GetByTaskID(txCtx, req.TaskID, req.UserID)
		switch {
		case lookupErr == nil:
			return false, f.skipFinalized(txCtx, req)
		case !errs.IsNotFoundError(lookupErr):
			return false, lookupErr
		}
	}

	balance, err := f.uow.GetCreditRepository(txCtx).Add(txCtx, req.UserID, req.Credits)
	if err != nil {
		return false, err
	}
	if err = f.uow.Commit(txCtx); err != nil {
		return false, err
	}
	f.recordRefund(req, balance)

	if transitioned {
		f.publish(ctx, event.GenerationEvent{
			Type:   event.EventFailed,
			UserID: req.UserID,
			TaskID: req.TaskID,
			Reason: req.Reason,
		})
	}
	return true, nil
}

func (f *Finalizer) skipFinalized(txCtx context.Context, req FailRequest) error {
	if err := f.uow.Commit(txCtx); err != nil {
		return err
	}
	f.logger.Warn("No pending generation to fail", map[string]any{
		"userId": req.UserID,
		"taskId": req.TaskID,
	})
	return nil
}

func (f *Finalizer) recordRefund(req FailRequest, balance int64) {
	f.metrics.CreditsMoved(coreport.CreditsRefunded, req.Credits)
	f.logger.Info("Credits refunded", map[string]any{
		"userId":  req.UserID,
		"taskId":  req.TaskID,
		"credits": req.Credits,
		"balance": balance,
		"reason":  req.Reason,
	})
}

// publish delivers a lifecycle event; delivery failures are logged only
func (f *Finalizer) publish(ctx context.Context, evt event.GenerationEvent) {
	evt.OccurredAt = f.timeProvider.Now()
	if err := f.publisher.Publish(ctx, evt); err != nil {
		f.logger.Warn("Failed to publish generation event", map[string]any{
			"type":   string(evt.Type),
			"taskId": evt.TaskID,
			"error":  err.Error(),
		})
	}
}

// detach keeps finalization running after the caller goes away
func (f *Finalizer) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return f.timeProvider.WithTimeout(context.WithoutCancel(ctx), f.timeout)
}
