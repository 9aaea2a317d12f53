package persistence

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
)

// GenerationRepository defines durable storage for generation history entries
type GenerationRepository interface {
	// CreatePending stores a new entry in pending status
	//
	// Possible errors:
	// - ErrPersistence: If the store is unavailable or the task id is already recorded
	CreatePending(ctx context.Context, generation *entity.Generation) error

	// MarkCompleted moves the matching pending entry to completed with its URLs
	// Returns false when no pending entry exists for (taskID, userID)
	//
	// Possible errors:
	// - ErrPersistence: If the store is unavailable
	MarkCompleted(ctx context.Context, taskID, userID string, urls []string) (bool, error)

	// MarkFailed moves the matching pending entry to failed and clears its URLs
	// Returns false when no pending entry exists for (taskID, userID)
	//
	// Possible errors:
	// - ErrPersistence: If the store is unavailable
	MarkFailed(ctx context.Context, taskID, userID, reason string) (bool, error)

	// GetByTaskID returns the entry owned by userID for the remote task
	//
	// Possible errors:
	// - ErrGenerationNotFound: If the user owns no entry for the task
	// - ErrPersistence: If the store is unavailable
	GetByTaskID(ctx context.Context, taskID, userID string) (*entity.Generation, error)

	// ListCompleted returns one page of completed entries, newest first, and the total count
	//
	// Possible errors:
	// - ErrPersistence: If the store is unavailable
	ListCompleted(ctx context.Context, userID string, page entity.PageRequest) ([]*entity.Generation, int64, error)

	// ListStalePending returns pending entries created before olderThan, oldest first
	//
	// Possible errors:
	// - ErrPersistence: If the store is unavailable
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*entity.Generation, error)
}
