package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/usecase"
)

// DefaultWriteTimeout bounds a best-effort history write
const DefaultWriteTimeout = 3 * time.Second

// HistoryUseCase implements the generation history business logic
type HistoryUseCase struct {
	generationRepo persistence.GenerationRepository
	timeProvider   coreport.TimeProvider
	writeTimeout   time.Duration
	logger         coreport.Logger
}

// NewHistoryUseCase creates a new history use case instance
func NewHistoryUseCase(
	generationRepo persistence.GenerationRepository,
	timeProvider coreport.TimeProvider,
	writeTimeout time.Duration,
	logger coreport.Logger,
) usecase.HistoryUseCase {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &HistoryUseCase{
		generationRepo: generationRepo,
		timeProvider:   timeProvider,
		writeTimeout:   writeTimeout,
		logger:         logger,
	}
}

// RecordPending stores a pending entry and reports whether it was persisted
// The write outlives a canceled caller context but not the write timeout. A failed
// write is re-read, since the row may have committed before the error was reported.
func (u *HistoryUseCase) RecordPending(ctx context.Context, userID, prompt, taskID string, credits int64) bool {
	generation, err := entity.NewPendingGeneration(uuid.NewString(), userID, prompt, taskID, credits, u.timeProvider)
	if err != nil {
		u.logger.Warn("Skipping pending history entry", map[string]any{
			"userId": userID,
			"taskId": taskID,
			"error":  err.Error(),
		})
		return false
	}

	writeCtx, cancel := u.timeProvider.WithTimeout(context.WithoutCancel(ctx), u.writeTimeout)
	defer cancel()

	if err := u.generationRepo.CreatePending(writeCtx, generation); err != nil {
		if u.committedDespite(ctx, userID, taskID) {
			u.logger.Warn("Pending generation recorded despite write error", map[string]any{
				"userId": userID,
				"taskId": taskID,
				"error":  err.Error(),
			})
			return true
		}
		u.logger.Error("Failed to record pending generation", map[string]any{
			"userId": userID,
			"taskId": taskID,
			"error":  err.Error(),
		})
		return false
	}

	u.logger.Debug("Pending generation recorded", map[string]any{
		"userId": userID,
		"taskId": taskID,
		"id":     generation.ID,
	})
	return true
}

// committedDespite reports whether the pending entry exists after CreatePending returned an error
func (u *HistoryUseCase) committedDespite(ctx context.Context, userID, taskID string) bool {
	readCtx, cancel := u.timeProvider.WithTimeout(context.WithoutCancel(ctx), u.writeTimeout)
	defer cancel()

	existing, err := u.generationRepo.GetByTaskID(readCtx, taskID, userID)
	return err == nil && existing.Status == entity.StatusPending
}

// ListCompleted returns completed entries newest first; entries left without URLs are dropped
func (u *HistoryUseCase) ListCompleted(ctx context.Context, userID string, page, pageSize int) (*usecase.HistoryPage, error) {
	if err := entity.ValidateUserID(userID); err != nil {
		return nil, err
	}
	req, err := entity.NewPageRequest(page, pageSize)
	if err != nil {
		return nil, err
	}

	generations, total, err := u.generationRepo.ListCompleted(ctx, userID, req)
	if err != nil {
		u.logger.Error("Failed to list generation history", map[string]any{
			"userId": userID,
			"page":   req.Page,
			"error":  err.Error(),
		})
		return nil, err
	}

	entries := make([]*entity.Generation, 0, len(generations))
	for _, g := range generations {
		g.ImageURLs = entity.CleanImageURLs(g.ImageURLs)
		if len(g.ImageURLs) == 0 {
			u.logger.Warn("Completed generation has no image URLs", map[string]any{
				"userId": userID,
				"taskId": g.TaskID,
			})
			continue
		}
		entries = append(entries, g)
	}

	return &usecase.HistoryPage{
		Entries:    entries,
		Pagination: entity.NewPagination(req, total),
	}, nil
}

// Find returns the user's entry for a remote task
func (u *HistoryUseCase) Find(ctx context.Context, userID, taskID string) (*entity.Generation, error) {
	if err := entity.ValidateUserID(userID); err != nil {
		return nil, err
	}
	return u.generationRepo.GetByTaskID(ctx, taskID, userID)
}
