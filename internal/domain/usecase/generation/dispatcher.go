package generation

import (
	"context"
	"sync"

	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/usecase"
)

// Dispatcher defaults
const (
	DefaultWorkers   = 8
	DefaultQueueSize = 256
)

// AwaitFunc is the function signature for awaiting and finalizing a submission
type AwaitFunc func(ctx context.Context, sub *usecase.Submission) (*usecase.GenerationResult, error)

// DispatcherConfig sizes the worker pool
type DispatcherConfig struct {
	Workers   int
	QueueSize int
}

// Dispatcher awaits submissions in the background on a bounded worker pool
type Dispatcher struct {
	logger coreport.Logger
	await  AwaitFunc

	queue   chan *usecase.Submission
	workers int
	wg      sync.WaitGroup

	// Lifetime of in-flight polls; canceled when shutdown runs out of time
	baseCtx context.Context
	cancel  context.CancelFunc

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewDispatcher creates a new dispatcher; Start must be called before Enqueue
func NewDispatcher(cfg DispatcherConfig, await AwaitFunc, logger coreport.Logger) *Dispatcher {
	if await == nil {
		panic("Dispatcher await function cannot be nil")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}

	return &Dispatcher{
		logger:  logger,
		await:   await,
		queue:   make(chan *usecase.Submission, cfg.QueueSize),
		workers: cfg.Workers,
	}
}

// Start launches the workers; polls run under ctx with its cancellation removed
func (d *Dispatcher) Start(ctx context.Context) {
	d.once.Do(func() {
		d.baseCtx, d.cancel = context.WithCancel(context.WithoutCancel(ctx))
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.work(i)
		}
		d.logger.Info("Generation dispatcher started", map[string]any{
			"workers":   d.workers,
			"queueSize": cap(d.queue),
		})
	})
}

// Enqueue hands a submission to the pool without blocking
// false means the pool is full or shut down and the submission stays pending
func (d *Dispatcher) Enqueue(sub *usecase.Submission) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("Dispatcher is shut down, leaving generation to reconciler", map[string]any{
			"userId": sub.UserID,
			"taskId": sub.TaskID,
		})
		return false
	}

	select {
	case d.queue <- sub:
		d.logger.Debug("Generation enqueued", map[string]any{
			"userId": sub.UserID,
			"taskId": sub.TaskID,
		})
		return true
	default:
		d.logger.Warn("Dispatcher queue full, leaving generation to reconciler", map[string]any{
			"userId":    sub.UserID,
			"taskId":    sub.TaskID,
			"queueSize": cap(d.queue),
		})
		return false
	}
}

// work drains the queue until it is closed
func (d *Dispatcher) work(id int) {
	defer d.wg.Done()

	for sub := range d.queue {
		if _, err := d.await(d.baseCtx, sub); err != nil {
			d.logger.Debug("Background generation ended with error", map[string]any{
				"worker": id,
				"taskId": sub.TaskID,
				"error":  err.Error(),
			})
		}
	}
}

// Pending returns the number of queued submissions
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Shutdown stops accepting work and waits for queued and in-flight jobs
// If ctx ends first the running polls are canceled; their entries stay pending
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.logger.Info("Shutting down generation dispatcher", map[string]any{
		"pending": len(d.queue),
	})

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if d.cancel != nil {
			d.cancel()
		}
		d.logger.Info("Generation dispatcher shut down successfully", nil)
		return nil
	case <-ctx.Done():
		if d.cancel != nil {
			d.cancel()
		}
		<-done
		d.logger.Warn("Generation dispatcher shutdown timed out, in-flight polls canceled", nil)
		return ctx.Err()
	}
}
