// internal/common/database/retry.go
package database

import (
	"context"
	"fmt"
	"time"

	"jobtracker/internal/common/logger"
)

// ConnectWithBackoff retries op with exponential backoff. Used only at
// startup; runtime remote calls are never retried automatically.
func ConnectWithBackoff(ctx context.Context, op func(context.Context) error, maxRetries int, initialDelay time.Duration, log logger.Logger, name string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if i == maxRetries-1 {
			break
		}
		log.Warn(fmt.Sprintf("%s failed, retrying...", name), map[string]interface{}{
			"error":       err,
			"attempt":     i + 1,
			"maxRetries":  maxRetries,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, maxRetries, err)
}
