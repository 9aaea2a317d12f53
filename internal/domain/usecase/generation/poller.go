package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
	errs "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/provider"
)

// Poll defaults
const (
	DefaultPollInterval    = 2 * time.Second
	DefaultPollTimeout     = 5 * time.Minute
	DefaultMaxPollAttempts = 150
)

// errTaskInProgress keeps the retry loop going while the task is PENDING or RUNNING
var errTaskInProgress = errors.New("task still in progress")

// PollerConfig bounds the poll loop
type PollerConfig struct {
	Interval    time.Duration
	Timeout     time.Duration
	MaxAttempts int
}

// Poller queries a remote task until it reaches a terminal state
type Poller struct {
	provider provider.ImageProvider
	cfg      PollerConfig
	metrics  coreport.Metrics
	logger   coreport.Logger
}

// NewPoller creates a new Poller
func NewPoller(
	imageProvider provider.ImageProvider,
	cfg PollerConfig,
	metrics coreport.Metrics,
	logger coreport.Logger,
) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultPollTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxPollAttempts
	}
	return &Poller{
		provider: imageProvider,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

// AwaitCompletion returns the image URLs of a SUCCEEDED task in provider order
// It stops issuing queries as soon as ctx is done; the remote task is left running
func (p *Poller) AwaitCompletion(ctx context.Context, taskID string) ([]string, error) {
	if taskID == "" {
		return nil, errs.ErrInvalidTaskID
	}

	attempts := 0
	operation := func() ([]string, error) {
		attempts++
		task, err := p.provider.GetTask(ctx, taskID)
		if err != nil {
			if errs.IsTransientUpstreamError(err) {
				p.logger.Warn("Transient error while polling task", map[string]any{
					"taskId":  taskID,
					"attempt": attempts,
					"error":   err.Error(),
				})
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}

		p.metrics.TaskPolled(string(task.Status))
		return p.evaluate(task)
	}

	urls, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.cfg.Interval)),
		backoff.WithMaxElapsedTime(p.cfg.Timeout),
		backoff.WithMaxTries(uint(p.cfg.MaxAttempts)),
	)
	if err == nil {
		p.logger.Debug("Task reached SUCCEEDED", map[string]any{
			"taskId":   taskID,
			"attempts": attempts,
			"images":   len(urls),
		})
		return urls, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: task %s deadline exceeded after %d queries", errs.ErrTimeout, taskID, attempts)
		}
		return nil, ctxErr
	}
	if errors.Is(err, errTaskInProgress) {
		return nil, fmt.Errorf("%w: task %s still in progress after %d queries", errs.ErrTimeout, taskID, attempts)
	}
	return nil, err
}

// evaluate maps one task snapshot onto the poll loop's next step
func (p *Poller) evaluate(task *entity.RemoteTask) ([]string, error) {
	switch task.Status {
	case entity.RemoteStatusSucceeded:
		urls := entity.CleanImageURLs(task.ImageURLs)
		if len(urls) == 0 {
			return nil, backoff.Permanent(errs.NewGenerationFailedError(task.TaskID, task.Code, "task succeeded without images"))
		}
		return urls, nil
	case entity.RemoteStatusFailed:
		return nil, backoff.Permanent(errs.NewGenerationFailedError(task.TaskID, task.Code, task.Message))
	case entity.RemoteStatusPending, entity.RemoteStatusRunning:
		return nil, errTaskInProgress
	default:
		return nil, backoff.Permanent(errs.NewUnknownTaskStateError(task.TaskID, string(task.Status)))
	}
}
