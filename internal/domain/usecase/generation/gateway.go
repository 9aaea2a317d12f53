package generation

import (
	"context"

	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/provider"
)

// Fixed batch parameters; every task requests the same batch
const (
	DefaultBatchSize = 4
	DefaultImageSize = "1024*1024"
)

// GatewayConfig holds the batch parameters sent with every task
type GatewayConfig struct {
	BatchSize int
	ImageSize string
}

// Gateway converts a prompt into a remote task
type Gateway struct {
	provider  provider.ImageProvider
	validator *RequestValidator
	cfg       GatewayConfig
	logger    coreport.Logger
}

// NewGateway creates a new Gateway
func NewGateway(
	imageProvider provider.ImageProvider,
	validator *RequestValidator,
	cfg GatewayConfig,
	logger coreport.Logger,
) *Gateway {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.ImageSize == "" {
		cfg.ImageSize = DefaultImageSize
	}
	return &Gateway{
		provider:  imageProvider,
		validator: validator,
		cfg:       cfg,
		logger:    logger,
	}
}

// Submit issues exactly one task-creation call for the prompt
func (g *Gateway) Submit(ctx context.Context, prompt string) (string, error) {
	normalized, err := g.validator.NormalizePrompt(prompt)
	if err != nil {
		return "", err
	}

	taskID, err := g.provider.CreateTask(ctx, provider.CreateTaskRequest{
		Prompt:    normalized,
		BatchSize: g.cfg.BatchSize,
		Size:      g.cfg.ImageSize,
	})
	if err != nil {
		g.logger.Error("Failed to create generation task", map[string]any{
			"error": err.Error(),
		})
		return "", err
	}

	g.logger.Info("Generation task created", map[string]any{
		"taskId":    taskID,
		"batchSize": g.cfg.BatchSize,
		"size":      g.cfg.ImageSize,
	})
	return taskID, nil
}
