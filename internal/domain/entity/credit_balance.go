package entity

import (
	"strings"
	"time"

	errs "github.com/amirhossein-jamali/imagegen/internal/domain/error"
	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
)

// DefaultInitialGrant is the number of credits granted on first initialization
const DefaultInitialGrant int64 = 5

// GenerationCost is the number of credits charged for one batch
const GenerationCost int64 = 1

// CreditBalance represents a user's integer credit balance
type CreditBalance struct {
	UserID    string    // Identity subject issued by the session provider
	Credits   int64     // Never negative
	CreatedAt time.Time // When the balance was first granted
	UpdatedAt time.Time // When the balance last changed
}

// NewCreditBalance creates a balance for the given user
func NewCreditBalance(userID string, credits int64, timeProvider coreport.TimeProvider) (*CreditBalance, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}
	if credits < 0 {
		return nil, errs.ErrInvalidCredits
	}

	now := timeProvider.Now()
	return &CreditBalance{
		UserID:    userID,
		Credits:   credits,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CanAfford reports whether the balance covers n credits
func (b *CreditBalance) CanAfford(n int64) bool {
	return n > 0 && b.Credits >= n
}

// ValidateUserID rejects a missing identity
func ValidateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errs.ErrUnauthenticated
	}
	return nil
}

// ValidateCredits rejects non-positive credit amounts
func ValidateCredits(n int64) error {
	if n <= 0 {
		return errs.ErrInvalidCredits
	}
	return nil
}
