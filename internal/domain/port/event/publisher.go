package event

import (
	"context"
	"time"
)

// GenerationEventType names a lifecycle step of a generation
type GenerationEventType string

// Lifecycle steps
const (
	EventSubmitted GenerationEventType = "generation.submitted"
	EventCompleted GenerationEventType = "generation.completed"
	EventFailed    GenerationEventType = "generation.failed"
	EventRefunded  GenerationEventType = "credits.refunded"
)

// GenerationEvent is published when a generation changes state
type GenerationEvent struct {
	Type       GenerationEventType `json:"type"`
	UserID     string              `json:"userId"`
	TaskID     string              `json:"taskId"`
	ImageURLs  []string            `json:"images,omitempty"`
	Reason     string              `json:"reason,omitempty"`
	OccurredAt time.Time           `json:"occurredAt"`
}

// Publisher delivers generation events to subscribers
// Publishing is best-effort: callers log failures and continue
type Publisher interface {
	Publish(ctx context.Context, evt GenerationEvent) error
	Close() error
}
