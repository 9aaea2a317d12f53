package credit

import (
	"context"

	"github.com/amirhossein-jamali/imagegen/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/imagegen/internal/domain/port/usecase"
)

// CreditUseCase implements the credit ledger business logic
type CreditUseCase struct {
	creditRepo   persistence.CreditRepository
	initialGrant int64
	metrics      coreport.Metrics
	logger       coreport.Logger
}

// NewCreditUseCase creates a new credit use case instance
func NewCreditUseCase(
	creditRepo persistence.CreditRepository,
	initialGrant int64,
	metrics coreport.Metrics,
	logger coreport.Logger,
) usecase.CreditUseCase {
	if initialGrant <= 0 {
		initialGrant = entity.DefaultInitialGrant
	}
	return &CreditUseCase{
		creditRepo:   creditRepo,
		initialGrant: initialGrant,
		metrics:      metrics,
		logger:       logger,
	}
}

// GetBalance returns the user's credits; a user without a record has 0
func (u *CreditUseCase) GetBalance(ctx context.Context, userID string) (int64, error) {
	if err := entity.ValidateUserID(userID); err != nil {
		return 0, err
	}

	credits, err := u.creditRepo.Get(ctx, userID)
	if err != nil {
		u.logger.Error("Failed to get credit balance", map[string]any{
			"userId": userID,
			"error":  err.Error(),
		})
		return 0, err
	}
	return credits, nil
}

// InitializeUser grants the starting credits exactly once per user
func (u *CreditUseCase) InitializeUser(ctx context.Context, userID string) (*usecase.InitializeResult, error) {
	if err := entity.ValidateUserID(userID); err != nil {
		return nil, err
	}

	credits, granted, err := u.creditRepo.Initialize(ctx, userID, u.initialGrant)
	if err != nil {
		u.logger.Error("Failed to initialize credit balance", map[string]any{
			"userId": userID,
			"error":  err.Error(),
		})
		return nil, err
	}

	if granted {
		u.metrics.CreditsMoved(coreport.CreditsGranted, u.initialGrant)
		u.logger.Info("Initial credits granted", map[string]any{
			"userId":  userID,
			"credits": credits,
		})
	}

	return &usecase.InitializeResult{Credits: credits, Granted: granted}, nil
}

// Recharge adds a positive number of credits
func (u *CreditUseCase) Recharge(ctx context.Context, userID string, credits int64) (int64, error) {
	if err := entity.ValidateUserID(userID); err != nil {
		return 0, err
	}
	if err := entity.ValidateCredits(credits); err != nil {
		return 0, err
	}

	balance, err := u.creditRepo.Add(ctx, userID, credits)
	if err != nil {
		u.logger.Error("Failed to recharge credits", map[string]any{
			"userId":  userID,
			"credits": credits,
			"error":   err.Error(),
		})
		return 0, err
	}

	u.metrics.CreditsMoved(coreport.CreditsRecharge, credits)
	u.logger.Info("Credits recharged", map[string]any{
		"userId":  userID,
		"added":   credits,
		"balance": balance,
	})
	return balance, nil
}

// Reserve deducts credits for a generation; false is the normal insufficient-balance outcome
func (u *CreditUseCase) Reserve(ctx context.Context, userID string, credits int64) (bool, error) {
	if err := entity.ValidateUserID(userID); err != nil {
		return false, err
	}
	if err := entity.ValidateCredits(credits); err != nil {
		return false, err
	}

	ok, err := u.creditRepo.Deduct(ctx, userID, credits)
	if err != nil {
		u.logger.Error("Failed to deduct credits", map[string]any{
			"userId":  userID,
			"credits": credits,
			"error":   err.Error(),
		})
		return false, err
	}
	if ok {
		u.metrics.CreditsMoved(coreport.CreditsDeducted, credits)
	}
	return ok, nil
}

// Refund returns reserved credits to the user
func (u *CreditUseCase) Refund(ctx context.Context, userID string, credits int64) (int64, error) {
	if err := entity.ValidateUserID(userID); err != nil {
		return 0, err
	}
	if err := entity.ValidateCredits(credits); err != nil {
		return 0, err
	}

	balance, err := u.creditRepo.Add(ctx, userID, credits)
	if err != nil {
		return 0, err
	}

	u.metrics.CreditsMoved(coreport.CreditsRefunded, credits)
	return balance, nil
}
