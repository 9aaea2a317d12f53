package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
	domainerr "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/api/middleware"
)

// SubmissionQueue hands accepted submissions to background workers
type SubmissionQueue interface {
	// Enqueue returns false when the submission was not accepted
	Enqueue(sub *usecase.Submission) bool
}

// GenerationHandler handles generation-related HTTP requests
type GenerationHandler struct {
	generationUseCase usecase.GenerationUseCase
	creditUseCase     usecase.CreditUseCase
	queue             SubmissionQueue
	logger            coreport.Logger
}

// NewGenerationHandler creates a new generation handler instance
func NewGenerationHandler(
	generationUseCase usecase.GenerationUseCase,
	creditUseCase usecase.CreditUseCase,
	queue SubmissionQueue,
	logger coreport.Logger,
) *GenerationHandler {
	return &GenerationHandler{
		generationUseCase: generationUseCase,
		creditUseCase:     creditUseCase,
		queue:             queue,
		logger:            logger,
	}
}

// CreateGeneration handles the POST /api/generations endpoint
func (h *GenerationHandler) CreateGeneration(c *gin.Context) {
	req, ok := h.bindGenerateRequest(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	if req.Wait {
		result, err := h.generationUseCase.Generate(ctx, userID, req.Prompt)
		if err != nil {
			respondError(c, h.logger, "Generation failed", err)
			return
		}
		c.JSON(http.StatusOK, completedResponse(result))
		return
	}

	sub, result, err := h.submit(ctx, userID, req.Prompt)
	if err != nil {
		respondError(c, h.logger, "Generation failed", err)
		return
	}
	if result != nil {
		c.JSON(http.StatusOK, completedResponse(result))
		return
	}

	resp := dto.GenerationAcceptedResponse{
		TaskID: sub.TaskID,
		Status: string(entity.StatusPending),
	}
	if credits, err := h.creditUseCase.GetBalance(ctx, userID); err == nil {
		resp.Credits = credits
	} else {
		h.logger.Warn("Could not read balance after submission", map[string]any{
			"userId": userID,
			"taskId": sub.TaskID,
			"error":  err.Error(),
		})
	}
	c.JSON(http.StatusAccepted, resp)
}

// GetGeneration handles the GET /api/generations/:taskId endpoint
func (h *GenerationHandler) GetGeneration(c *gin.Context) {
	status, err := h.generationUseCase.TaskStatus(c.Request.Context(), middleware.UserID(c), c.Param("taskId"))
	if err != nil {
		respondError(c, h.logger, "Error querying generation", err)
		return
	}

	images := status.ImageURLs
	if images == nil {
		images = []string{}
	}
	c.JSON(http.StatusOK, dto.TaskStatusResponse{
		TaskID:       status.TaskID,
		Status:       string(status.Status),
		RemoteStatus: string(status.Remote),
		Images:       images,
		Message:      status.Message,
	})
}

// LegacyGenerateImage handles the POST /api/generate-image endpoint
func (h *GenerationHandler) LegacyGenerateImage(c *gin.Context) {
	req, ok := h.bindGenerateRequest(c)
	if !ok {
		return
	}

	sub, result, err := h.submit(c.Request.Context(), middleware.UserID(c), req.Prompt)
	if err != nil {
		respondError(c, h.logger, "Generation failed", err)
		return
	}

	output := dto.LegacyTaskOutput{
		TaskID:     sub.TaskID,
		TaskStatus: string(entity.RemoteStatusPending),
	}
	if result != nil {
		output.TaskStatus = string(entity.RemoteStatusSucceeded)
		output.Results = legacyResults(result.ImageURLs)
	}
	c.JSON(http.StatusOK, dto.LegacyTaskResponse{Output: output})
}

// LegacyQueryTask handles the GET /api/query-task?taskId= endpoint
func (h *GenerationHandler) LegacyQueryTask(c *gin.Context) {
	taskID := strings.TrimSpace(c.Query("taskId"))
	if taskID == "" {
		respondError(c, h.logger, "Missing task id", domainerr.ErrInvalidTaskID)
		return
	}

	status, err := h.generationUseCase.TaskStatus(c.Request.Context(), middleware.UserID(c), taskID)
	if err != nil {
		respondError(c, h.logger, "Error querying generation", err)
		return
	}

	c.JSON(http.StatusOK, dto.LegacyTaskResponse{Output: dto.LegacyTaskOutput{
		TaskID:     status.TaskID,
		TaskStatus: string(status.Remote),
		Results:    legacyResults(status.ImageURLs),
		Message:    status.Message,
	}})
}

func (h *GenerationHandler) bindGenerateRequest(c *gin.Context) (dto.GenerateRequest, bool) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, "Invalid generation request",
			fmt.Errorf("%w: %s", domainerr.ErrInvalidInput, err.Error()))
		return req, false
	}
	return req, true
}

// submit reserves and submits, then hands the task to the background queue
// When the queue refuses a submission without a pending entry nothing else would
// resolve its debit, so it is awaited inline and the result is returned
func (h *GenerationHandler) submit(
	ctx context.Context,
	userID string,
	prompt string,
) (*usecase.Submission, *usecase.GenerationResult, error) {
	sub, err := h.generationUseCase.Submit(ctx, userID, prompt)
	if err != nil {
		return nil, nil, err
	}
	if h.queue.Enqueue(sub) {
		return sub, nil, nil
	}

	if sub.Recorded {
		h.logger.Warn("Generation queue is full, leaving the task to reconciliation", map[string]any{
			"userId": userID,
			"taskId": sub.TaskID,
		})
		return sub, nil, nil
	}

	h.logger.Warn("Generation queue is full, awaiting inline", map[string]any{
		"userId": userID,
		"taskId": sub.TaskID,
	})
	result, err := h.generationUseCase.Await(ctx, sub)
	if err != nil {
		return nil, nil, err
	}
	return sub, result, nil
}

func completedResponse(result *usecase.GenerationResult) dto.GenerationResponse {
	return dto.GenerationResponse{
		TaskID: result.TaskID,
		Status: string(entity.StatusCompleted),
		Images: result.ImageURLs,
	}
}

func legacyResults(urls []string) []dto.LegacyTaskImage {
	if len(urls) == 0 {
		return nil
	}
	results := make([]dto.LegacyTaskImage, 0, len(urls))
	for _, u := range urls {
		results = append(results, dto.LegacyTaskImage{URL: u})
	}
	return results
}
