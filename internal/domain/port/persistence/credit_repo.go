package persistence

import (
	"context"
)

// CreditRepository defines the atomic operations on a user's credit balance
type CreditRepository interface {
	// Get returns the current balance; a user without a record has 0 credits
	//
	// Possible errors:
	// - ErrPersistence: If the store is unavailable
	Get(ctx context.Context, userID string) (int64, error)

	// Initialize creates the balance with n credits only if none exists yet
	// Returns the balance after the call and whether credits were granted
	//
	// Possible errors:
	// - ErrPersistence: If the store is unavailable
	Initialize(ctx context.Context, userID string, n int64) (int64, bool, error)

	// Deduct atomically decrements the balance by n if it covers n
	// Returns false without mutating anything when the balance is insufficient
	//
	// Possible errors:
	// - ErrPersistence: If the store is unavailable
	Deduct(ctx context.Context, userID string, n int64) (bool, error)

	// Add atomically increments the balance by n and returns the new balance
	// Used for refunds and recharges
	//
	// Possible errors:
	// - ErrInvalidCredits: If n is not positive
	// - ErrPersistence: If the store is unavailable
	Add(ctx context.Context, userID string, n int64) (int64, error)
}
