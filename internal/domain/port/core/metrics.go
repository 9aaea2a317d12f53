package core

import "time"

// Generation outcomes recorded by Metrics
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeTimeout   = "timeout"
	OutcomeCanceled  = "canceled"
	OutcomeRejected  = "rejected"
)

// Ledger movements recorded by Metrics
const (
	CreditsDeducted = "deducted"
	CreditsRefunded = "refunded"
	CreditsGranted  = "granted"
	CreditsRecharge = "recharged"
)

// Metrics records domain counters and timings
type Metrics interface {
	// GenerationFinished records a generation flow outcome and its duration
	GenerationFinished(outcome string, duration time.Duration)
	// CreditsMoved records a ledger movement
	CreditsMoved(kind string, credits int64)
	// TaskPolled records one provider status query
	TaskPolled(status string)
	// PendingReconciled records one reconciler resolution
	PendingReconciled(outcome string)
}
