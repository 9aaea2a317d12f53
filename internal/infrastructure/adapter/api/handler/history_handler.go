package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainerr "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/api/middleware"
)

// HistoryHandler handles history-related HTTP requests
type HistoryHandler struct {
	historyUseCase usecase.HistoryUseCase
	logger         coreport.Logger
}

// NewHistoryHandler creates a new history handler instance
func NewHistoryHandler(historyUseCase usecase.HistoryUseCase, logger coreport.Logger) *HistoryHandler {
	return &HistoryHandler{
		historyUseCase: historyUseCase,
		logger:         logger,
	}
}

// ListHistory handles the GET /api/user/history endpoint
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	page, err := queryInt(c, "page")
	if err != nil {
		respondError(c, h.logger, "Invalid page parameter", err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		respondError(c, h.logger, "Invalid limit parameter", err)
		return
	}

	result, err := h.historyUseCase.ListCompleted(c.Request.Context(), middleware.UserID(c), page, limit)
	if err != nil {
		respondError(c, h.logger, "Error listing history", err)
		return
	}

	entries := make([]dto.HistoryEntry, 0, len(result.Entries))
	for _, g := range result.Entries {
		entries = append(entries, dto.HistoryEntry{
			ID:          g.ID,
			Prompt:      g.Prompt,
			Images:      g.ImageURLs,
			Status:      string(g.Status),
			CreditsUsed: g.CreditsUsed,
			CreatedAt:   g.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, dto.HistoryResponse{
		History: entries,
		Pagination: dto.PaginationResponse{
			Page:       result.Pagination.Page,
			Limit:      result.Pagination.PageSize,
			Total:      result.Pagination.Total,
			TotalPages: result.Pagination.TotalPages,
		},
	})
}

// queryInt reads an optional integer query parameter; absent means 0
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domainerr.ErrInvalidPagination
	}
	return value, nil
}
