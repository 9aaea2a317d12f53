package entity

import (
	"fmt"
	"strings"
	"time"

	errs "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
)

// GenerationStatus defines possible status values for a history entry
type GenerationStatus string

// GenerationStatus constants
const (
	StatusPending   GenerationStatus = "pending"
	StatusCompleted GenerationStatus = "completed"
	StatusFailed    GenerationStatus = "failed"
)

// IsTerminal reports whether no further transition can happen
func (s GenerationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Generation is one history entry pairing a remote task with its prompt and outcome
type Generation struct {
	ID            string           // Local identifier
	UserID        string           // Owner of the entry
	Prompt        string           // Trimmed prompt text
	TaskID        string           // Remote task identifier
	ImageURLs     []string         // Result URLs in provider order, empty until completed
	Status        GenerationStatus // pending, completed or failed
	CreditsUsed   int64            // Credits charged for the batch
	FailureReason string           // Provider or local reason for a failure
	CreatedAt     time.Time
	UpdatedAt     time.Time
	FinishedAt    *time.Time // Set on the terminal transition
}

// NewPendingGeneration creates a history entry in pending status
func NewPendingGeneration(
	id string,
	userID string,
	prompt string,
	taskID string,
	creditsUsed int64,
	timeProvider coreport.TimeProvider,
) (*Generation, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(taskID) == "" {
		return nil, errs.ErrInvalidTaskID
	}
	if err := ValidateCredits(creditsUsed); err != nil {
		return nil, err
	}

	now := timeProvider.Now()
	return &Generation{
		ID:          id,
		UserID:      userID,
		Prompt:      strings.TrimSpace(prompt),
		TaskID:      taskID,
		ImageURLs:   []string{},
		Status:      StatusPending,
		CreditsUsed: creditsUsed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// MarkCompleted attaches the result URLs and moves the entry to completed
func (g *Generation) MarkCompleted(urls []string, timeProvider coreport.TimeProvider) error {
	if g.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", errs.ErrInvalidStateTransition, g.Status, StatusCompleted)
	}
	cleaned := CleanImageURLs(urls)
	if len(cleaned) == 0 {
		return fmt.Errorf("%w: completed generation needs at least one image URL", errs.ErrInvalidInput)
	}

	now := timeProvider.Now()
	g.ImageURLs = cleaned
	g.Status = StatusCompleted
	g.UpdatedAt = now
	g.FinishedAt = &now
	return nil
}

// MarkFailed discards any URLs and moves the entry to failed
func (g *Generation) MarkFailed(reason string, timeProvider coreport.TimeProvider) error {
	if g.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", errs.ErrInvalidStateTransition, g.Status, StatusFailed)
	}

	now := timeProvider.Now()
	g.ImageURLs = []string{}
	g.Status = StatusFailed
	g.FailureReason = reason
	g.UpdatedAt = now
	g.FinishedAt = &now
	return nil
}

// CleanImageURLs drops blank entries and keeps the original order
func CleanImageURLs(urls []string) []string {
	cleaned := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			cleaned = append(cleaned, u)
		}
	}
	return cleaned
}
