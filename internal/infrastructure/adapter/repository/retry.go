package repository

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	coreport "github.com/amirhossein-jamali/imagegen/internal/domain/port/core"
)

// RetryConfig holds configuration for retry operations
type RetryConfig struct {
	MaxRetries    int
	RetryInterval time.Duration
	MaxInterval   time.Duration
	JitterFactor  float64 // Randomization factor applied to each interval (0.0-1.0)
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    4,
		RetryInterval: 20 * time.Millisecond,
		MaxInterval:   500 * time.Millisecond,
		JitterFactor:  0.2,
	}
}

// RetryOnTransientError re-runs operation while it fails with a transient error
// Only errors after which the database rolled the statement back are retried
func RetryOnTransientError[T any](
	ctx context.Context,
	config RetryConfig,
	classifier *ErrorClassifier,
	logger coreport.Logger,
	operation func() (T, error),
) (T, error) {
	attempt := 0
	op := func() (T, error) {
		attempt++
		result, err := operation()
		if err == nil {
			return result, nil
		}
		if !classifier.IsTransientError(err) {
			return result, backoff.Permanent(err)
		}
		logger.Warn("Transient database error, retrying operation", map[string]any{
			"attempt":     attempt,
			"max_retries": config.MaxRetries,
			"error":       err.Error(),
		})
		return result, err
	}

	expBackOff := backoff.NewExponentialBackOff()
	expBackOff.InitialInterval = config.RetryInterval
	expBackOff.MaxInterval = config.MaxInterval
	expBackOff.RandomizationFactor = config.JitterFactor

	result, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(expBackOff),
		backoff.WithMaxTries(uint(config.MaxRetries)),
	)
	if err != nil && attempt > 1 {
		logger.Error("All retry attempts failed", map[string]any{
			"attempts": attempt,
			"error":    err.Error(),
		})
	}
	return result, err
}
