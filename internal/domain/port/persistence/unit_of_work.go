package persistence

import (
	"context"
)

// UnitOfWork coordinates ledger and history writes that must commit together
type UnitOfWork interface {
	// Begin starts a new transaction and returns a transactional context
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the transaction in the given context
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction in the given context
	Rollback(ctx context.Context) error

	// GetCreditRepository returns a credit repository bound to the current transaction
	GetCreditRepository(ctx context.Context) CreditRepository

	// GetGenerationRepository returns a generation repository bound to the current transaction
	GetGenerationRepository(ctx context.Context) GenerationRepository
}
