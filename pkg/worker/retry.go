package worker

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jwalitptl/intake-api/pkg/logger"
	"github.com/jwalitptl/intake-api/pkg/messaging"
)

type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts: 3,
		Delay:    2 * time.Second,
	}
}

// Retrying wraps h so a failed payload is retried up to config.Attempts
// times in total, config.Delay apart. The last error is returned, or the
// context error once ctx is done.
func Retrying(h messaging.Handler, config RetryConfig, log *logger.Logger) messaging.Handler {
	if config.Attempts <= 0 {
		config.Attempts = 1
	}

	return func(ctx context.Context, payload []byte) error {
		policy := backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(config.Delay), uint64(config.Attempts-1)),
			ctx,
		)
		return backoff.Retry(func() error {
			err := h(ctx, payload)
			if err != nil {
				log.Warn("handler attempt failed", "error", err.Error())
			}
			return err
		}, policy)
	}
}
