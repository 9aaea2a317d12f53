package metrics

import (
	"time"

	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
)

// Noop discards all measurements
type Noop struct{}

// NewNoop creates a metrics sink for tests and tools
func NewNoop() coreport.Metrics { return Noop{} }

func (Noop) GenerationFinished(string, time.Duration) {}
func (Noop) CreditsMoved(string, int64)               {}
func (Noop) TaskPolled(string)                        {}
func (Noop) PendingReconciled(string)                 {}
