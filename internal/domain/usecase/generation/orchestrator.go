package generation

import (
	"context"
	"errors"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
	errs "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/event"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/provider"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/usecase"
)

// Orchestrator drives one generation through
// Init -> CreditsReserved -> TaskSubmitted -> Polling -> Finalized
type Orchestrator struct {
	credits      usecase.CreditUseCase
	history      usecase.HistoryUseCase
	validator    *RequestValidator
	gateway      *Gateway
	poller       *Poller
	finalizer    *Finalizer
	provider     provider.ImageProvider
	publisher    event.Publisher
	metrics      coreport.Metrics
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	cost         int64
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	credits usecase.CreditUseCase,
	history usecase.HistoryUseCase,
	validator *RequestValidator,
	gateway *Gateway,
	poller *Poller,
	finalizer *Finalizer,
	imageProvider provider.ImageProvider,
	publisher event.Publisher,
	metrics coreport.Metrics,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Orchestrator {
	return &Orchestrator{
		credits:      credits,
		history:      history,
		validator:    validator,
		gateway:      gateway,
		poller:       poller,
		finalizer:    finalizer,
		provider:     imageProvider,
		publisher:    publisher,
		metrics:      metrics,
		timeProvider: timeProvider,
		logger:       logger,
		cost:         entity.GenerationCost,
	}
}

var _ usecase.GenerationUseCase = (*Orchestrator)(nil)

// Generate runs the whole flow and returns the image URLs
func (o *Orchestrator) Generate(ctx context.Context, userID, prompt string) (*usecase.GenerationResult, error) {
	sub, err := o.Submit(ctx, userID, prompt)
	if err != nil {
		return nil, err
	}
	return o.Await(ctx, sub)
}

// Submit reserves the credit, creates the remote task and records it as pending
func (o *Orchestrator) Submit(ctx context.Context, userID, prompt string) (*usecase.Submission, error) {
	normalized, err := o.validator.ValidateGeneration(userID, prompt)
	if err != nil {
		return nil, err
	}

	// Init -> CreditsReserved
	reserved, err := o.credits.Reserve(ctx, userID, o.cost)
	if err != nil {
		return nil, err
	}
	if !reserved {
		o.metrics.GenerationFinished(coreport.OutcomeRejected, 0)
		o.logger.Info("Generation rejected for insufficient credits", map[string]any{
			"userId": userID,
		})
		return nil, errs.NewInsufficientCreditsError(userID, o.cost)
	}

	// CreditsReserved -> TaskSubmitted
	startedAt := o.timeProvider.Now()
	taskID, err := o.gateway.Submit(ctx, normalized)
	if err != nil {
		if _, refundErr := o.finalizer.Fail(ctx, FailRequest{
			UserID:  userID,
			Credits: o.cost,
			Reason:  "task submission failed",
		}); refundErr != nil {
			return nil, refundErr
		}
		o.metrics.GenerationFinished(coreport.OutcomeFailed, o.timeProvider.Since(startedAt))
		return nil, err
	}

	sub := &usecase.Submission{
		UserID:      userID,
		Prompt:      normalized,
		TaskID:      taskID,
		Credits:     o.cost,
		SubmittedAt: startedAt,
	}
	sub.Recorded = o.history.RecordPending(ctx, userID, normalized, taskID, o.cost)

	if err := o.publisher.Publish(ctx, event.GenerationEvent{
		Type:       event.EventSubmitted,
		UserID:     userID,
		TaskID:     taskID,
		OccurredAt: startedAt,
	}); err != nil {
		o.logger.Warn("Failed to publish generation event", map[string]any{
			"type":   string(event.EventSubmitted),
			"taskId": taskID,
			"error":  err.Error(),
		})
	}

	return sub, nil
}

// Await polls the submission and finalizes ledger and history
// On timeout or cancellation a recorded entry stays pending for the reconciler;
// an unrecorded one is refunded immediately since nothing else can resolve it.
// The remote task may still succeed after that refund, in which case its images
// cost nothing. This is accepted: without an entry there is no record to charge against.
func (o *Orchestrator) Await(ctx context.Context, sub *usecase.Submission) (*usecase.GenerationResult, error) {
	log := o.logger.With(map[string]any{"userId": sub.UserID, "taskId": sub.TaskID})

	// TaskSubmitted -> Polling
	urls, err := o.poller.AwaitCompletion(ctx, sub.TaskID)
	if err == nil {
		// Polling -> Finalized-Success
		o.finalizer.Complete(ctx, sub.UserID, sub.TaskID, urls)
		o.metrics.GenerationFinished(coreport.OutcomeCompleted, o.timeProvider.Since(sub.SubmittedAt))
		log.Info("Generation completed", map[string]any{"images": len(urls)})
		return &usecase.GenerationResult{TaskID: sub.TaskID, ImageURLs: urls}, nil
	}

	if abandoned(ctx, err) {
		outcome := coreport.OutcomeTimeout
		if errors.Is(err, context.Canceled) {
			outcome = coreport.OutcomeCanceled
		}
		o.metrics.GenerationFinished(outcome, o.timeProvider.Since(sub.SubmittedAt))

		if sub.Recorded {
			log.Warn("Polling stopped before a terminal state, leaving generation pending", map[string]any{
				"error": err.Error(),
			})
			return nil, err
		}
		if _, refundErr := o.finalizer.Fail(ctx, FailRequest{
			UserID:  sub.UserID,
			TaskID:  sub.TaskID,
			Credits: sub.Credits,
			Reason:  "polling abandoned without a history entry",
		}); refundErr != nil {
			return nil, refundErr
		}
		return nil, err
	}

	// Polling -> Finalized-Failure
	o.metrics.GenerationFinished(coreport.OutcomeFailed, o.timeProvider.Since(sub.SubmittedAt))
	log.Warn("Generation failed", map[string]any{"error": err.Error()})
	if _, refundErr := o.finalizer.Fail(ctx, FailRequest{
		UserID:   sub.UserID,
		TaskID:   sub.TaskID,
		Credits:  sub.Credits,
		Recorded: sub.Recorded,
		Reason:   err.Error(),
	}); refundErr != nil {
		return nil, refundErr
	}
	return nil, err
}

// TaskStatus reports a task to its owner and finalizes the owner's pending entry
// once the provider reports a terminal state
func (o *Orchestrator) TaskStatus(ctx context.Context, userID, taskID string) (*usecase.TaskStatus, error) {
	if err := o.validator.ValidateTaskQuery(userID, taskID); err != nil {
		return nil, err
	}

	local, err := o.history.Find(ctx, userID, taskID)
	switch {
	case err == nil && local.Status.IsTerminal():
		return &usecase.TaskStatus{
			TaskID:    taskID,
			Status:    local.Status,
			Remote:    remoteStatusOf(local.Status),
			ImageURLs: entity.CleanImageURLs(local.ImageURLs),
			Message:   local.FailureReason,
		}, nil
	case err != nil && !errs.IsNotFoundError(err):
		o.logger.Warn("History lookup failed, querying provider directly", map[string]any{
			"userId": userID,
			"taskId": taskID,
			"error":  err.Error(),
		})
		local = nil
	case err != nil:
		local = nil
	}

	task, err := o.provider.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	o.metrics.TaskPolled(string(task.Status))

	status := &usecase.TaskStatus{
		TaskID:    taskID,
		Status:    task.LocalStatus(),
		Remote:    task.Status,
		ImageURLs: []string{},
		Message:   task.Message,
	}
	if task.Status == entity.RemoteStatusSucceeded {
		status.ImageURLs = entity.CleanImageURLs(task.ImageURLs)
	}

	if local == nil || local.Status != entity.StatusPending {
		return status, nil
	}

	switch {
	case task.Status == entity.RemoteStatusSucceeded && len(status.ImageURLs) > 0:
		o.finalizer.Complete(ctx, userID, taskID, status.ImageURLs)
	case task.Status == entity.RemoteStatusFailed:
		if _, err := o.finalizer.Fail(ctx, FailRequest{
			UserID:   userID,
			TaskID:   taskID,
			Credits:  local.CreditsUsed,
			Recorded: true,
			Reason:   errs.NewGenerationFailedError(taskID, task.Code, task.Message).Error(),
		}); err != nil {
			return nil, err
		}
	}
	return status, nil
}

// abandoned reports whether polling stopped without the task reaching a terminal state
func abandoned(ctx context.Context, err error) bool {
	if errors.Is(err, errs.ErrTimeout) {
		return true
	}
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

func remoteStatusOf(status entity.GenerationStatus) entity.RemoteTaskStatus {
	switch status {
	case entity.StatusCompleted:
		return entity.RemoteStatusSucceeded
	case entity.StatusFailed:
		return entity.RemoteStatusFailed
	default:
		return entity.RemoteStatusPending
	}
}
