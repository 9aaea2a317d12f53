package usecase

import (
	"context"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
)

// HistoryPage is one page of completed generations
type HistoryPage struct {
	Entries    []*entity.Generation
	Pagination entity.Pagination
}

// HistoryUseCase defines methods for reading and recording generation history
type HistoryUseCase interface {
	// RecordPending stores a pending entry; failures are logged and swallowed
	RecordPending(ctx context.Context, userID, prompt, taskID string, credits int64) bool

	// ListCompleted returns completed entries, newest first, with pagination metadata
	ListCompleted(ctx context.Context, userID string, page, pageSize int) (*HistoryPage, error)

	// Find returns the user's entry for a task
	Find(ctx context.Context, userID, taskID string) (*entity.Generation, error)
}
