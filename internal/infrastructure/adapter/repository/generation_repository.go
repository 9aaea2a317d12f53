package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
	errs "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/model"
)

// GenerationRepository implements history storage on top of GORM
type GenerationRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
	retry           *RetryConfig
}

// NewGenerationRepository creates a new GenerationRepository instance
func NewGenerationRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *GenerationRepository {
	retry := DefaultRetryConfig()
	return &GenerationRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
		retry:           &retry,
	}
}

// InTransaction returns a copy that never retries
func (r *GenerationRepository) InTransaction() *GenerationRepository {
	cp := *r
	cp.retry = nil
	return &cp
}

var _ persistence.GenerationRepository = (*GenerationRepository)(nil)

// CreatePending stores a new pending entry
func (r *GenerationRepository) CreatePending(ctx context.Context, generation *entity.Generation) error {
	row, err := toGenerationModel(generation)
	if err != nil {
		return wrapPersistence("encoding generation", err)
	}

	_, err = withRetry(ctx, r.retry, r.errorClassifier, r.logger, func() (*gorm.DB, error) {
		res := r.db.WithContext(ctx).Create(row)
		return res, res.Error
	})
	if err != nil {
		return r.handleDatabaseError("creating generation", err, generation.TaskID)
	}
	return nil
}

// MarkCompleted moves a pending entry to completed with its URLs
func (r *GenerationRepository) MarkCompleted(ctx context.Context, taskID, userID string, urls []string) (bool, error) {
	images, err := encodeImages(urls)
	if err != nil {
		return false, wrapPersistence("encoding images", err)
	}
	now := r.timeProvider.Now()
	return r.transition(ctx, "completing generation", taskID, userID, map[string]any{
		"status":      string(entity.StatusCompleted),
		"images":      images,
		"updated_at":  now,
		"finished_at": now,
	})
}

// MarkFailed moves a pending entry to failed and clears its URLs
func (r *GenerationRepository) MarkFailed(ctx context.Context, taskID, userID, reason string) (bool, error) {
	now := r.timeProvider.Now()
	return r.transition(ctx, "failing generation", taskID, userID, map[string]any{
		"status":         string(entity.StatusFailed),
		"images":         datatypes.JSON("[]"),
		"failure_reason": reason,
		"updated_at":     now,
		"finished_at":    now,
	})
}

// transition applies updates only while the entry is still pending
func (r *GenerationRepository) transition(
	ctx context.Context,
	operation string,
	taskID string,
	userID string,
	updates map[string]any,
) (bool, error) {
	result, err := withRetry(ctx, r.retry, r.errorClassifier, r.logger, func() (*gorm.DB, error) {
		res := r.db.WithContext(ctx).Model(&model.Generation{}).
			Where("task_id = ? AND user_id = ? AND status = ?", taskID, userID, string(entity.StatusPending)).
			Updates(updates)
		return res, res.Error
	})
	if err != nil {
		return false, r.handleDatabaseError(operation, err, taskID)
	}
	return result.RowsAffected == 1, nil
}

// GetByTaskID returns the entry owned by userID for a remote task
func (r *GenerationRepository) GetByTaskID(ctx context.Context, taskID, userID string) (*entity.Generation, error) {
	var row model.Generation
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrGenerationNotFound
	}
	if err != nil {
		return nil, r.handleDatabaseError("getting generation", err, taskID)
	}
	return toGenerationEntity(&row)
}

// ListCompleted returns one page of completed entries, newest first
func (r *GenerationRepository) ListCompleted(
	ctx context.Context,
	userID string,
	page entity.PageRequest,
) ([]*entity.Generation, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Generation{}).
		Where("user_id = ? AND status = ?", userID, string(entity.StatusCompleted))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, r.handleDatabaseError("counting generations", err, "")
	}
	if total == 0 {
		return []*entity.Generation{}, 0, nil
	}

	var rows []model.Generation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, string(entity.StatusCompleted)).
		Order("created_at DESC").
		Order("id DESC").
		Limit(page.PageSize).
		Offset(page.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, r.handleDatabaseError("listing generations", err, "")
	}

	generations, err := toGenerationEntities(rows)
	if err != nil {
		return nil, 0, wrapPersistence("decoding generations", err)
	}
	return generations, total, nil
}

// ListStalePending returns pending entries created before olderThan, oldest first
func (r *GenerationRepository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*entity.Generation, error) {
	var rows []model.Generation
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(entity.StatusPending), olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, r.handleDatabaseError("listing stale generations", err, "")
	}

	generations, err := toGenerationEntities(rows)
	if err != nil {
		return nil, wrapPersistence("decoding generations", err)
	}
	return generations, nil
}

// handleDatabaseError standardizes database error handling
func (r *GenerationRepository) handleDatabaseError(operation string, err error, taskID string) error {
	fields := map[string]any{
		"error":      err.Error(),
		"error_type": string(r.errorClassifier.Classify(err)),
	}
	if taskID != "" {
		fields["task_id"] = taskID
	}
	r.logger.Error("Database error when "+operation, fields)
	return wrapPersistence(operation, err)
}

func encodeImages(urls []string) (datatypes.JSON, error) {
	if urls == nil {
		urls = []string{}
	}
	b, err := json.Marshal(urls)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func decodeImages(raw datatypes.JSON) ([]string, error) {
	urls := []string{}
	if len(raw) == 0 {
		return urls, nil
	}
	if err := json.Unmarshal(raw, &urls); err != nil {
		return nil, err
	}
	return urls, nil
}

func toGenerationModel(g *entity.Generation) (*model.Generation, error) {
	images, err := encodeImages(g.ImageURLs)
	if err != nil {
		return nil, err
	}
	return &model.Generation{
		ID:            g.ID,
		UserID:        g.UserID,
		Prompt:        g.Prompt,
		TaskID:        g.TaskID,
		Images:        images,
		Status:        string(g.Status),
		CreditsUsed:   g.CreditsUsed,
		FailureReason: g.FailureReason,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
		FinishedAt:    g.FinishedAt,
	}, nil
}

func toGenerationEntity(row *model.Generation) (*entity.Generation, error) {
	urls, err := decodeImages(row.Images)
	if err != nil {
		return nil, wrapPersistence("decoding images", err)
	}
	return &entity.Generation{
		ID:            row.ID,
		UserID:        row.UserID,
		Prompt:        row.Prompt,
		TaskID:        row.TaskID,
		ImageURLs:     urls,
		Status:        entity.GenerationStatus(row.Status),
		CreditsUsed:   row.CreditsUsed,
		FailureReason: row.FailureReason,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		FinishedAt:    row.FinishedAt,
	}, nil
}

func toGenerationEntities(rows []model.Generation) ([]*entity.Generation, error) {
	generations := make([]*entity.Generation, 0, len(rows))
	for i := range rows {
		g, err := toGenerationEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		generations = append(generations, g)
	}
	return generations, nil
}
