package usecase

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
)

// Submission is a generation whose credit is reserved and whose remote task exists
type Submission struct {
	UserID      string
	Prompt      string
	TaskID      string
	Credits     int64
	Recorded    bool // Whether the pending history entry was persisted
	SubmittedAt time.Time
}

// GenerationResult is the outcome of a finalized successful generation
type GenerationResult struct {
	TaskID    string
	ImageURLs []string
}

// TaskStatus is the current view of a generation task for its owner
type TaskStatus struct {
	TaskID    string
	Status    entity.GenerationStatus
	Remote    entity.RemoteTaskStatus
	ImageURLs []string
	Message   string
}

// GenerationUseCase defines the credit-metered generation flow
type GenerationUseCase interface {
	// Generate runs the whole flow and returns the image URLs
	Generate(ctx context.Context, userID, prompt string) (*GenerationResult, error)

	// Submit reserves a credit, creates the remote task and records it as pending
	Submit(ctx context.Context, userID, prompt string) (*Submission, error)

	// Await polls a submission to a terminal state and finalizes ledger and history
	Await(ctx context.Context, sub *Submission) (*GenerationResult, error)

	// TaskStatus queries the provider once and finalizes the user's entry if it became terminal
	TaskStatus(ctx context.Context, userID, taskID string) (*TaskStatus, error)
}
