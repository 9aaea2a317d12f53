package provider

import (
	"context"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
)

// CreateTaskRequest describes one asynchronous batch generation
type CreateTaskRequest struct {
	Prompt    string
	BatchSize int
	Size      string
}

// ImageProvider is the remote asynchronous text-to-image service
type ImageProvider interface {
	// CreateTask accepts the request and returns the remote task id without waiting for results
	//
	// Possible errors:
	// - *UpstreamError: If the provider answers with a non-success status or is unreachable
	CreateTask(ctx context.Context, req CreateTaskRequest) (string, error)

	// GetTask returns the current task snapshot; safe to call repeatedly
	//
	// Possible errors:
	// - *UpstreamError: If the provider answers with a non-success status or is unreachable
	GetTask(ctx context.Context, taskID string) (*entity.RemoteTask, error)
}
