package event

import (
	"context"

	eventport "github.com/amirhossein-jamali/imagegen/internal/domain/port/event"
)

// NoopPublisher discards events; used when Redis is not configured
type NoopPublisher struct{}

var _ eventport.Publisher = NoopPublisher{}

// NewNoopPublisher creates a publisher that drops every event
func NewNoopPublisher() NoopPublisher {
	return NoopPublisher{}
}

// Publish implements eventport.Publisher
func (NoopPublisher) Publish(context.Context, eventport.GenerationEvent) error { return nil }

// Close implements eventport.Publisher
func (NoopPublisher) Close() error { return nil }
