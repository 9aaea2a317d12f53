package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	errs "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/imagegen/internal/infrastructure/adapter/model"
)

// CreditRepository implements the credit ledger with single-statement atomic updates
type CreditRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
	retry           *RetryConfig // nil inside a unit of work
}

// NewCreditRepository creates a new CreditRepository instance
func NewCreditRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *CreditRepository {
	retry := DefaultRetryConfig()
	return &CreditRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
		retry:           &retry,
	}
}

// InTransaction returns a copy that never retries; a failed statement aborts the surrounding transaction
func (r *CreditRepository) InTransaction() *CreditRepository {
	cp := *r
	cp.retry = nil
	return &cp
}

var _ persistence.CreditRepository = (*CreditRepository)(nil)

// Get returns the balance; a missing record reads as 0
func (r *CreditRepository) Get(ctx context.Context, userID string) (int64, error) {
	var balance model.CreditBalance
	err := r.db.WithContext(ctx).Select("credits").Where("user_id = ?", userID).Take(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, r.handleDatabaseError("getting credits", err, userID)
	}
	return balance.Credits, nil
}

// Initialize inserts the starting balance unless a record already exists
func (r *CreditRepository) Initialize(ctx context.Context, userID string, credits int64) (int64, bool, error) {
	now := r.timeProvider.Now()
	row := model.CreditBalance{UserID: userID, Credits: credits, CreatedAt: now, UpdatedAt: now}

	result, err := withRetry(ctx, r.retry, r.errorClassifier, r.logger, func() (*gorm.DB, error) {
		res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		return res, res.Error
	})
	if err != nil {
		return 0, false, r.handleDatabaseError("initializing credits", err, userID)
	}

	if result.RowsAffected == 1 {
		r.logger.Debug("Credit balance created", map[string]any{
			"user_id": userID,
			"credits": credits,
		})
		return credits, true, nil
	}

	balance, err := r.Get(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	return balance, false, nil
}

// Deduct subtracts credits only if the balance covers them
func (r *CreditRepository) Deduct(ctx context.Context, userID string, credits int64) (bool, error) {
	if credits <= 0 {
		return false, errs.ErrInvalidCredits
	}

	result, err := withRetry(ctx, r.retry, r.errorClassifier, r.logger, func() (*gorm.DB, error) {
		res := r.db.WithContext(ctx).Model(&model.CreditBalance{}).
			Where("user_id = ? AND credits >= ?", userID, credits).
			Updates(map[string]any{
				"credits":    gorm.Expr("credits - ?", credits),
				"updated_at": r.timeProvider.Now(),
			})
		return res, res.Error
	})
	if err != nil {
		return false, r.handleDatabaseError("deducting credits", err, userID)
	}

	if result.RowsAffected == 0 {
		r.logger.Debug("Deduction rejected for insufficient credits", map[string]any{
			"user_id":  userID,
			"required": credits,
		})
		return false, nil
	}
	return true, nil
}

// Add increments the balance, creating the record if needed, and returns the new balance
func (r *CreditRepository) Add(ctx context.Context, userID string, credits int64) (int64, error) {
	if credits <= 0 {
		return 0, errs.ErrInvalidCredits
	}

	now := r.timeProvider.Now()
	row := model.CreditBalance{UserID: userID, Credits: credits, CreatedAt: now, UpdatedAt: now}

	_, err := withRetry(ctx, r.retry, r.errorClassifier, r.logger, func() (*gorm.DB, error) {
		res := r.db.WithContext(ctx).
			Clauses(
				clause.OnConflict{
					Columns: []clause.Column{{Name: "user_id"}},
					DoUpdates: clause.Assignments(map[string]any{
						"credits":    gorm.Expr("credit_balances.credits + ?", credits),
						"updated_at": now,
					}),
				},
				clause.Returning{Columns: []clause.Column{{Name: "credits"}}},
			).
			Create(&row)
		return res, res.Error
	})
	if err != nil {
		return 0, r.handleDatabaseError("adding credits", err, userID)
	}
	return row.Credits, nil
}

// handleDatabaseError standardizes database error handling
func (r *CreditRepository) handleDatabaseError(operation string, err error, userID string) error {
	r.logger.Error("Database error when "+operation, map[string]any{
		"user_id":    userID,
		"error":      err.Error(),
		"error_type": string(r.errorClassifier.Classify(err)),
	})
	return wrapPersistence(operation, err)
}

// withRetry runs operation once when retry is nil, otherwise under RetryOnTransientError
func withRetry(
	ctx context.Context,
	retry *RetryConfig,
	classifier *ErrorClassifier,
	logger coreport.Logger,
	operation func() (*gorm.DB, error),
) (*gorm.DB, error) {
	if retry == nil {
		return operation()
	}
	return RetryOnTransientError(ctx, *retry, classifier, logger, operation)
}
