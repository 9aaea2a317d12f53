package usecase

import (
	"context"
)

// InitializeResult reports the outcome of a first-access grant
type InitializeResult struct {
	Credits int64 // Balance after initialization
	Granted bool  // False when the user was already initialized
}

// CreditUseCase defines methods for credit-related business operations
type CreditUseCase interface {
	// GetBalance returns the user's current credits
	GetBalance(ctx context.Context, userID string) (int64, error)

	// InitializeUser grants the starting credits once per user
	InitializeUser(ctx context.Context, userID string) (*InitializeResult, error)

	// Recharge adds credits to the user's balance and returns the new balance
	Recharge(ctx context.Context, userID string, credits int64) (int64, error)

	// Reserve deducts credits for a generation; false means the balance is insufficient
	Reserve(ctx context.Context, userID string, credits int64) (bool, error)

	// Refund returns previously reserved credits
	Refund(ctx context.Context, userID string, credits int64) (int64, error)
}
